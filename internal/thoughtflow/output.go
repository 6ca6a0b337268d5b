package thoughtflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/simonjohansson/thoughtflow/internal/cardstore"
	"github.com/simonjohansson/thoughtflow/internal/gateway"
	"github.com/simonjohansson/thoughtflow/internal/model"
	"github.com/simonjohansson/thoughtflow/internal/thoughtflow/commands/common"
)

type Output string

const (
	OutputText Output = "text"
	OutputJSON Output = "json"
)

const displayTimeLayout = "2006-01-02 15:04"

type cliError struct {
	status  int
	message string
	rawJSON []byte
}

func (e *cliError) Error() string {
	return e.message
}

func isValidOutput(v string) bool {
	return v == string(OutputText) || v == string(OutputJSON)
}

func FormatError(output Output, status int, message string) string {
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = http.StatusText(status)
	}

	if output == OutputJSON {
		payload := map[string]any{
			"status": status,
			"error":  msg,
		}
		raw, _ := json.Marshal(payload)
		return string(raw)
	}

	return fmt.Sprintf("error (%d): %s", status, msg)
}

// wrapCLIError maps store, gateway, and transport failures to an exit
// status and message.
func wrapCLIError(err error) error {
	if err == nil {
		return nil
	}

	var cErr *cliError
	if errors.As(err, &cErr) {
		return cErr
	}

	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		out := &cliError{status: apiErr.Status, message: apiErr.Error()}
		if json.Valid(apiErr.Body) {
			out.rawJSON = compactJSON(apiErr.Body)
		}
		return out
	}

	var validation *cardstore.ValidationError
	switch {
	case errors.As(err, &validation):
		return &cliError{status: http.StatusBadRequest, message: validation.Message}
	case errors.Is(err, cardstore.ErrNoChanges):
		return &cliError{status: http.StatusBadRequest, message: cardstore.ErrNoChanges.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return &cliError{status: http.StatusGatewayTimeout, message: err.Error()}
	}

	return &cliError{status: http.StatusBadGateway, message: err.Error()}
}

func compactJSON(raw []byte) []byte {
	var out bytes.Buffer
	if err := json.Compact(&out, raw); err != nil {
		return raw
	}
	return out.Bytes()
}

func asCLIError(err error, target **cliError) bool {
	return errors.As(err, target)
}

func renderFromString(output string, stdout io.Writer, value any) error {
	if !isValidOutput(output) {
		return &cliError{status: http.StatusBadRequest, message: fmt.Sprintf("invalid --output: %s", output)}
	}
	return render(Output(output), stdout, value)
}

func render(output Output, stdout io.Writer, value any) error {
	if view, ok := value.(cardstore.TimelineView); ok {
		events := view.Events
		if events == nil {
			events = []model.TimelineEvent{}
		}
		value = model.Timeline{Events: events, Total: view.Total}
	}

	if output == OutputJSON {
		raw, err := json.Marshal(value)
		if err != nil {
			return &cliError{status: http.StatusInternalServerError, message: err.Error()}
		}
		_, _ = fmt.Fprintln(stdout, string(raw))
		return nil
	}

	var text string
	switch v := value.(type) {
	case model.Card:
		text = formatCard(v)
	case model.CardList:
		text = formatCardList(v)
	case model.HistoryPage:
		text = formatHistory(v)
	case model.Timeline:
		text = formatTimeline(v)
	case model.MessageResponse:
		text = v.Message
	case common.Document:
		_, _ = io.WriteString(stdout, v.Body)
		return nil
	default:
		raw, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return &cliError{status: http.StatusInternalServerError, message: err.Error()}
		}
		text = string(raw)
	}
	if strings.TrimSpace(text) == "" {
		text = "ok"
	}
	_, _ = fmt.Fprintln(stdout, text)
	return nil
}

func formatCard(card model.Card) string {
	lines := []string{
		fmt.Sprintf("id:      %s", card.ID),
		fmt.Sprintf("title:   %s", card.Title),
		fmt.Sprintf("style:   %s on %s", card.Style.TextColor, card.Style.BackgroundColor),
		fmt.Sprintf("created: %s", formatTime(card.CreatedAt)),
		fmt.Sprintf("updated: %s", formatTime(card.UpdatedAt)),
	}
	if card.IsDeleted {
		lines = append(lines, "status:  deleted")
	}
	lines = append(lines, "", card.Content)

	if len(card.Todos) > 0 {
		lines = append(lines, "", fmt.Sprintf("todos (%s):", todoProgress(card.Todos)))
		for _, todo := range card.Todos {
			mark := " "
			if todo.Completed {
				mark = "x"
			}
			lines = append(lines, fmt.Sprintf("  [%s] %s  (%s)", mark, todo.Text, todo.ID))
		}
	}

	lines = append(lines, "", fmt.Sprintf("edits: %d", len(card.History)))
	return strings.Join(lines, "\n")
}

func formatCardList(list model.CardList) string {
	if len(list.Cards) == 0 {
		return "no cards"
	}
	lines := make([]string, 0, len(list.Cards)+1)
	for _, card := range list.Cards {
		line := fmt.Sprintf("%s  %s  updated %s", card.ID, card.Title, formatTime(card.UpdatedAt))
		if len(card.Todos) > 0 {
			line += "  todos " + todoProgress(card.Todos)
		}
		lines = append(lines, line)
	}
	lines = append(lines, fmt.Sprintf("%d card(s)", list.Total))
	return strings.Join(lines, "\n")
}

func formatHistory(page model.HistoryPage) string {
	lines := []string{fmt.Sprintf("%s (%s): %d edit(s)", page.CardTitle, page.CardID, page.TotalEdits)}
	for _, entry := range page.History {
		fields := make([]string, 0, 4)
		for _, field := range entry.Changes.Fields() {
			fields = append(fields, string(field))
		}
		lines = append(lines, fmt.Sprintf("%s  %s  changed %s", formatTime(entry.EditTime), entry.Operator, strings.Join(fields, ", ")))
		if change := entry.Changes.Title; change != nil {
			lines = append(lines, fmt.Sprintf("  title: %q -> %q", change.Old, change.New))
		}
		if change := entry.Changes.Content; change != nil {
			lines = append(lines, fmt.Sprintf("  content: %d -> %d chars", len([]rune(change.Old)), len([]rune(change.New))))
		}
		if change := entry.Changes.Todos; change != nil {
			lines = append(lines, fmt.Sprintf("  todos: %s -> %s", todoProgress(change.Old), todoProgress(change.New)))
		}
		if note := strings.TrimSpace(entry.Note); note != "" {
			lines = append(lines, "  note: "+note)
		}
	}
	return strings.Join(lines, "\n")
}

// formatTimeline groups events by UTC day, keeping the newest-first order.
func formatTimeline(timeline model.Timeline) string {
	if len(timeline.Events) == 0 {
		return "no activity"
	}
	lines := make([]string, 0, len(timeline.Events)+4)
	day := ""
	for _, event := range timeline.Events {
		current := event.Time.UTC().Format("2006-01-02")
		if current != day {
			if day != "" {
				lines = append(lines, "")
			}
			lines = append(lines, current)
			day = current
		}
		lines = append(lines, fmt.Sprintf("  %s  %-14s %s", event.Time.UTC().Format("15:04"), event.Type, event.Description))
	}
	lines = append(lines, "", fmt.Sprintf("%d event(s)", timeline.Total))
	return strings.Join(lines, "\n")
}

func todoProgress(todos []model.Todo) string {
	done := 0
	for _, todo := range todos {
		if todo.Completed {
			done++
		}
	}
	return fmt.Sprintf("%d/%d", done, len(todos))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(displayTimeLayout)
}

func FormatWatchLine(output Output, event map[string]any) (string, error) {
	if output == OutputJSON {
		raw, err := json.Marshal(event)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	parts := make([]string, 0, 3)
	if value, ok := event["type"]; ok {
		parts = append(parts, fmt.Sprintf("type=%v", value))
	}
	if value, ok := event["card_id"]; ok && fmt.Sprintf("%v", value) != "" {
		parts = append(parts, fmt.Sprintf("card_id=%v", value))
	}
	if value, ok := event["card_title"]; ok && fmt.Sprintf("%v", value) != "" {
		parts = append(parts, fmt.Sprintf("card_title=%q", fmt.Sprintf("%v", value)))
	}
	if len(parts) == 0 {
		return "(event)", nil
	}

	return strings.Join(parts, " "), nil
}
