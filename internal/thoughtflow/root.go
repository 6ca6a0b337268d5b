package thoughtflow

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/simonjohansson/thoughtflow/internal/thoughtflow/commands/activitycmd"
	"github.com/simonjohansson/thoughtflow/internal/thoughtflow/commands/cardcmd"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	serverURL string
	output    string
	operator  string
	verbose   bool
}

type commandRuntime struct {
	cfg     *Config
	verbose *bool
	stderr  io.Writer
}

func (r commandRuntime) ServerURL() string {
	return r.cfg.ServerURL
}

func (r commandRuntime) Output() string {
	return string(r.cfg.Output)
}

func (r commandRuntime) Operator() string {
	return r.cfg.Operator
}

// Logger writes debug logs to stderr with --verbose and discards them otherwise.
func (r commandRuntime) Logger() *slog.Logger {
	if r.verbose == nil || !*r.verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(r.stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func NewRootCommand(initial Config, stdout, stderr io.Writer) *cobra.Command {
	cfg := initial
	flags := globalFlags{
		serverURL: initial.ServerURL,
		output:    string(initial.Output),
		operator:  initial.Operator,
	}
	runtime := commandRuntime{cfg: &cfg, verbose: &flags.verbose, stderr: stderr}

	root := &cobra.Command{
		Use:   "thoughtflow",
		Short: "Run the ThoughtFlow server and manage idea cards over HTTP.",
		Long: strings.TrimSpace(`thoughtflow is a unified binary for:
- starting the ThoughtFlow API server
- managing idea cards, their todos, history, and activity timeline over HTTP

Use thoughtflow help <command> for command-specific examples.

The CLI is intentionally transport-focused:
- --server-url selects the server endpoint
- --output selects text/json formatting
- --operator names who made an edit in card history`),
		Example: strings.TrimSpace(`thoughtflow --help
thoughtflow serve
thoughtflow card create -t "Buy milk" -c "2% or whole"
thoughtflow cards ls
thoughtflow card todo add -i 01HV7Z8K2M3N4P5Q6R7S8T9V0W -t "check fridge"
thoughtflow timeline --days 7
thoughtflow watch
thoughtflow --output json primer`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return applyGlobalFlags(&cfg, flags)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&flags.serverURL, "server-url", flags.serverURL, "Server API base URL (e.g. http://127.0.0.1:8080)")
	root.PersistentFlags().StringVar(&flags.output, "output", flags.output, "Output format: text or json")
	root.PersistentFlags().StringVar(&flags.operator, "operator", flags.operator, "Name recorded as the operator of card edits")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log client activity to stderr")

	root.AddCommand(newServeCommand(&cfg))
	root.AddCommand(newPrimerCommand(&cfg, stdout))
	root.AddCommand(cardcmd.New(runtime, stdout, renderFromString, wrapCLIError))
	root.AddCommand(activitycmd.NewHistory(runtime, stdout, renderFromString, wrapCLIError))
	root.AddCommand(activitycmd.NewTimeline(runtime, stdout, renderFromString, wrapCLIError))
	root.AddCommand(newWatchCommand(&cfg, stdout))

	return root
}

func applyGlobalFlags(cfg *Config, flags globalFlags) error {
	output := strings.ToLower(strings.TrimSpace(flags.output))
	if !isValidOutput(output) {
		return &cliError{status: http.StatusBadRequest, message: fmt.Sprintf("invalid --output: %s", output)}
	}

	cfg.ServerURL = strings.TrimSpace(flags.serverURL)
	cfg.Output = Output(output)
	cfg.Operator = strings.TrimSpace(flags.operator)

	if cfg.ServerURL == "" {
		return &cliError{status: http.StatusBadRequest, message: "--server-url cannot be empty"}
	}

	return nil
}

func newPrimerCommand(cfg *Config, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "primer",
		Short: "Print concise usage guidance.",
		Long:  "Prints quick command examples and usage conventions for scripting.",
		Example: strings.TrimSpace(`thoughtflow primer
thoughtflow --output json primer`),
		RunE: func(_ *cobra.Command, _ []string) error {
			return printPrimer(cfg.Output, stdout)
		},
	}
}
