package thoughtflow

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func BuildWebsocketURL(serverURL string, cardID string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(serverURL))
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid server url")
	}

	wsScheme := "ws"
	if parsed.Scheme == "https" {
		wsScheme = "wss"
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("server url must start with http:// or https://")
	}

	wsURL := &url.URL{
		Scheme: wsScheme,
		Host:   parsed.Host,
		Path:   strings.TrimSuffix(parsed.Path, "/") + "/ws",
	}

	if value := strings.TrimSpace(cardID); value != "" {
		q := wsURL.Query()
		q.Set("card", value)
		wsURL.RawQuery = q.Encode()
	}

	return wsURL.String(), nil
}

func newWatchCommand(cfg *Config, stdout io.Writer) *cobra.Command {
	watchCmd := &cobra.Command{
		Use:     "watch",
		Aliases: []string{"events", "stream"},
		Short:   "Stream realtime card events over websocket.",
		Long:    "Connect to the server websocket and print card events until interrupted. A resync.required event means some events were dropped.",
		Example: strings.TrimSpace(`thoughtflow watch
thoughtflow watch --card 01HV7Z8K2M3N4P5Q6R7S8T9V0W
thoughtflow events --output json`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cardID, _ := cmd.Flags().GetString("card")
			wsURL, err := BuildWebsocketURL(cfg.ServerURL, strings.TrimSpace(cardID))
			if err != nil {
				return &cliError{status: http.StatusBadRequest, message: err.Error()}
			}

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return streamEvents(ctx, wsURL, cfg.Output, stdout)
		},
	}

	watchCmd.Flags().String("card", "", "Only stream events for this card id")
	return watchCmd
}

func streamEvents(ctx context.Context, wsURL string, output Output, stdout io.Writer) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return &cliError{status: http.StatusBadGateway, message: err.Error()}
	}
	defer conn.Close()

	// ReadJSON does not observe ctx; closing the connection unblocks it.
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "interrupt"),
			time.Now().Add(500*time.Millisecond),
		)
		_ = conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		var event map[string]any
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return &cliError{status: http.StatusBadGateway, message: err.Error()}
		}

		line, err := FormatWatchLine(output, event)
		if err != nil {
			return &cliError{status: http.StatusInternalServerError, message: err.Error()}
		}
		if _, err := fmt.Fprintln(stdout, line); err != nil {
			return &cliError{status: http.StatusInternalServerError, message: err.Error()}
		}
	}
}
