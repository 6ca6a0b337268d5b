package model

import (
	"time"

	"github.com/google/uuid"
)

var PresetCardStyles = []CardStyle{
	{BackgroundColor: "#FFF9C4", TextColor: "#333333", BorderRadius: "20px", Shadow: "soft"},
	{BackgroundColor: "#FED7E2", TextColor: "#333333", BorderRadius: "20px", Shadow: "soft"},
	{BackgroundColor: "#E6F7FF", TextColor: "#333333", BorderRadius: "20px", Shadow: "soft"},
	{BackgroundColor: "#E8F5E9", TextColor: "#333333", BorderRadius: "20px", Shadow: "soft"},
	{BackgroundColor: "#F3E5F5", TextColor: "#333333", BorderRadius: "20px", Shadow: "soft"},
	{BackgroundColor: "#FFE0B2", TextColor: "#333333", BorderRadius: "20px", Shadow: "soft"},
}

var DefaultCardStyle = PresetCardStyles[0]

// NewTodo returns an unchecked todo with a fresh client-side id.
func NewTodo(text string, now time.Time) Todo {
	return Todo{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (t Todo) WithText(text string, now time.Time) Todo {
	t.Text = text
	t.UpdatedAt = now
	return t
}

func (t Todo) WithCompleted(completed bool, now time.Time) Todo {
	t.Completed = completed
	t.UpdatedAt = now
	return t
}

func CloneTodos(todos []Todo) []Todo {
	if todos == nil {
		return nil
	}
	out := make([]Todo, len(todos))
	copy(out, todos)
	return out
}

func IndexOfTodo(todos []Todo, id string) int {
	for i, todo := range todos {
		if todo.ID == id {
			return i
		}
	}
	return -1
}

// CloneCard copies the slices of a card so the copy can be handed out
// without sharing backing arrays.
func CloneCard(c Card) Card {
	c.Todos = CloneTodos(c.Todos)
	if c.History != nil {
		history := make([]HistoryEntry, len(c.History))
		copy(history, c.History)
		c.History = history
	}
	return c
}
