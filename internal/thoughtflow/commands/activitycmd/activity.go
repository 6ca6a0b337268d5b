package activitycmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/simonjohansson/thoughtflow/internal/cardstore"
	"github.com/simonjohansson/thoughtflow/internal/model"
	"github.com/simonjohansson/thoughtflow/internal/thoughtflow/commands/common"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	dateLayout,
}

// Now is swapped in tests.
var Now = func() time.Time { return time.Now().UTC() }

func NewHistory(runtime common.Runtime, stdout io.Writer, render common.RenderFunc, wrapErr common.WrapErrorFunc) *cobra.Command {
	return &cobra.Command{
		Use:     "history <card-id>",
		Aliases: []string{"log"},
		Short:   "Show the edit history of a card.",
		Long:    "List every recorded edit of a card, newest first, with the fields each edit changed.",
		Args:    cobra.ExactArgs(1),
		Example: strings.TrimSpace(`thoughtflow history 01HV7Z8K2M3N4P5Q6R7S8T9V0W
thoughtflow --output json log 01HV7Z8K2M3N4P5Q6R7S8T9V0W`),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := common.NewStore(runtime)
			if err != nil {
				return wrapErr(err)
			}
			ctx, cancel := common.Context(cmd.Context())
			defer cancel()

			page, err := st.FetchHistory(ctx, strings.TrimSpace(args[0]))
			if err != nil {
				return wrapErr(err)
			}
			return render(runtime.Output(), stdout, page)
		},
	}
}

func NewTimeline(runtime common.Runtime, stdout io.Writer, render common.RenderFunc, wrapErr common.WrapErrorFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "timeline",
		Aliases: []string{"activity"},
		Short:   "Show activity across all cards.",
		Long:    "List creations, deletions, title changes, and todo changes across every card, newest first. Both ends of the window are inclusive.",
		Example: strings.TrimSpace(`thoughtflow timeline
thoughtflow timeline --days 7
thoughtflow timeline --since 2024-03-01 --until 2024-03-31T23:59:59Z`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			since, _ := cmd.Flags().GetString("since")
			until, _ := cmd.Flags().GetString("until")
			days, _ := cmd.Flags().GetInt("days")

			window, err := ParseWindow(since, until, days, Now())
			if err != nil {
				return wrapErr(err)
			}

			st, err := common.NewStore(runtime)
			if err != nil {
				return wrapErr(err)
			}
			ctx, cancel := common.Context(cmd.Context())
			defer cancel()

			view, err := st.FetchTimeline(ctx, window)
			if err != nil {
				return wrapErr(err)
			}
			return render(runtime.Output(), stdout, view)
		},
	}
	cmd.Flags().String("since", "", "Window start (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().String("until", "", "Window end (RFC 3339, or YYYY-MM-DD for the end of that day)")
	cmd.Flags().Int("days", 0, "Only show the last N days; cannot be combined with --since")
	return cmd
}

// ParseWindow builds a timeline window from the CLI flags. A window given
// with --days ends at now.
func ParseWindow(since, until string, days int, now time.Time) (model.TimeWindow, error) {
	var window model.TimeWindow

	if days < 0 {
		return window, &cardstore.ValidationError{Field: "days", Message: "--days must not be negative"}
	}
	if days > 0 && strings.TrimSpace(since) != "" {
		return window, &cardstore.ValidationError{Field: "days", Message: "--days cannot be combined with --since"}
	}

	start, _, err := parseTime("--since", since)
	if err != nil {
		return window, err
	}
	end, dateOnly, err := parseTime("--until", until)
	if err != nil {
		return window, err
	}
	if end != nil && dateOnly {
		last := end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		end = &last
	}
	if days > 0 {
		from := now.AddDate(0, 0, -days)
		start = &from
		if end == nil {
			to := now
			end = &to
		}
	}
	if start != nil && end != nil && start.After(*end) {
		return window, &cardstore.ValidationError{Field: "since", Message: "--since must not be after --until"}
	}

	window.Start = start
	window.End = end
	return window, nil
}

// parseTime reports whether the value was a bare date so an --until date can
// cover the whole day.
func parseTime(flag, raw string) (*time.Time, bool, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, false, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, layout == dateLayout, nil
		}
	}
	return nil, false, &cardstore.ValidationError{
		Field:   strings.TrimPrefix(flag, "--"),
		Message: fmt.Sprintf("invalid %s %q: expected RFC 3339 or YYYY-MM-DD", flag, value),
	}
}
