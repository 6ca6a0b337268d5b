package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/simonjohansson/thoughtflow/internal/diff"
	"github.com/simonjohansson/thoughtflow/internal/model"
)

// BuildTimeline derives activity events from every card, deleted ones
// included. Events outside the inclusive window are dropped and the rest are
// returned newest first.
func BuildTimeline(cards []model.Card, window model.TimeWindow) []model.TimelineEvent {
	events := make([]model.TimelineEvent, 0)
	for _, card := range cards {
		events = append(events, cardEvents(card)...)
	}

	filtered := events[:0]
	for _, event := range events {
		if window.Contains(event.Time) {
			filtered = append(filtered, event)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Time.After(filtered[j].Time)
	})
	return filtered
}

func cardEvents(card model.Card) []model.TimelineEvent {
	var events []model.TimelineEvent
	add := func(eventType model.TimelineEventType, at time.Time, description string, details map[string]any) {
		events = append(events, model.TimelineEvent{
			ID:          eventID(at),
			Type:        eventType,
			CardID:      card.ID,
			CardTitle:   card.Title,
			Time:        at,
			Description: description,
			Details:     details,
		})
	}

	if !card.CreatedAt.IsZero() {
		add(model.TimelineCardCreated, card.CreatedAt, fmt.Sprintf("Created %q", card.Title), nil)
	}
	if card.IsDeleted {
		deletedAt := card.UpdatedAt
		if deletedAt.IsZero() {
			deletedAt = card.CreatedAt
		}
		add(model.TimelineCardDeleted, deletedAt, fmt.Sprintf("Deleted %q", card.Title), nil)
	}

	for _, entry := range card.History {
		if entry.EditTime.IsZero() {
			continue
		}
		if title := entry.Changes.Title; title != nil {
			add(model.TimelineTitleChanged, entry.EditTime,
				fmt.Sprintf("Renamed %q to %q", title.Old, title.New),
				map[string]any{"old_title": title.Old, "new_title": title.New})
		}
		if todos := entry.Changes.Todos; todos != nil {
			for _, change := range diff.Todos(todos.Old, todos.New) {
				eventType, description, details := todoEvent(card.Title, change)
				add(eventType, entry.EditTime, description, details)
			}
		}
	}
	return events
}

func todoEvent(cardTitle string, change diff.TodoChange) (model.TimelineEventType, string, map[string]any) {
	switch change.Kind {
	case diff.TodoAdded:
		return model.TimelineTodoAdded,
			fmt.Sprintf("%q: added todo %q", cardTitle, change.New.Text),
			map[string]any{"todo_id": change.ID, "todo_text": change.New.Text}
	case diff.TodoDeleted:
		return model.TimelineTodoDeleted,
			fmt.Sprintf("%q: deleted todo %q", cardTitle, change.Old.Text),
			map[string]any{"todo_id": change.ID, "todo_text": change.Old.Text}
	default:
		var changes []string
		if change.TextChanged {
			changes = append(changes, fmt.Sprintf("text: %q -> %q", change.Old.Text, change.New.Text))
		}
		if change.CompletedChanged {
			status := "open"
			if change.New.Completed {
				status = "done"
			}
			changes = append(changes, "status: "+status)
		}
		return model.TimelineTodoUpdated,
			fmt.Sprintf("%q: updated todo %q (%s)", cardTitle, change.New.Text, strings.Join(changes, ", ")),
			map[string]any{
				"todo_id":       change.ID,
				"todo_text":     change.New.Text,
				"old_todo_text": change.Old.Text,
				"changes":       changes,
			}
	}
}

func eventID(at time.Time) string {
	var ms uint64
	if at.After(time.Unix(0, 0)) {
		ms = ulid.Timestamp(at)
	}
	return ulid.MustNew(ms, ulid.DefaultEntropy()).String()
}
