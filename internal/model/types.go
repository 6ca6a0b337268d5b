package model

import "time"

type Todo struct {
	ID        string    `json:"todo_id" yaml:"todo_id"`
	Text      string    `json:"text" yaml:"text"`
	Completed bool      `json:"completed" yaml:"completed"`
	CreatedAt time.Time `json:"create_time" yaml:"create_time"`
	UpdatedAt time.Time `json:"update_time" yaml:"update_time"`
}

type CardStyle struct {
	BackgroundColor string `json:"bg_color" yaml:"bg_color"`
	TextColor       string `json:"text_color" yaml:"text_color"`
	BorderRadius    string `json:"border_radius" yaml:"border_radius"`
	Shadow          string `json:"shadow" yaml:"shadow"`
}

type Card struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Todos     []Todo         `json:"todos"`
	Style     CardStyle      `json:"card_style"`
	IsDeleted bool           `json:"is_deleted"`
	CreatedAt time.Time      `json:"create_time"`
	UpdatedAt time.Time      `json:"update_time"`
	History   []HistoryEntry `json:"edit_history"`
}

// Snapshot is the mutable part of a card, as compared by the diff engine.
// A nil Style means the caller did not supply one.
type Snapshot struct {
	Title   string
	Content string
	Style   *CardStyle
	Todos   []Todo
}

func (c Card) Snapshot() Snapshot {
	style := c.Style
	return Snapshot{
		Title:   c.Title,
		Content: c.Content,
		Style:   &style,
		Todos:   CloneTodos(c.Todos),
	}
}

type HistoryEntry struct {
	ID       string    `json:"history_id" yaml:"history_id"`
	EditTime time.Time `json:"edit_time" yaml:"edit_time"`
	Operator string    `json:"operator" yaml:"operator"`
	Changes  ChangeSet `json:"change_content" yaml:"change_content"`
	Note     string    `json:"edit_note,omitempty" yaml:"edit_note,omitempty"`
}

type Field string

const (
	FieldTitle   Field = "title"
	FieldContent Field = "content"
	FieldStyle   Field = "card_style"
	FieldTodos   Field = "todos"
)

type TextChange struct {
	Old string `json:"old" yaml:"old"`
	New string `json:"new" yaml:"new"`
}

type StyleChange struct {
	Old CardStyle `json:"old" yaml:"old"`
	New CardStyle `json:"new" yaml:"new"`
}

type TodosChange struct {
	Old []Todo `json:"old" yaml:"old"`
	New []Todo `json:"new" yaml:"new"`
}

// ChangeSet holds an entry for each field that differs between two snapshots.
// Unchanged fields are nil.
type ChangeSet struct {
	Title   *TextChange  `json:"title,omitempty" yaml:"title,omitempty"`
	Content *TextChange  `json:"content,omitempty" yaml:"content,omitempty"`
	Style   *StyleChange `json:"card_style,omitempty" yaml:"card_style,omitempty"`
	Todos   *TodosChange `json:"todos,omitempty" yaml:"todos,omitempty"`
}

func (c ChangeSet) IsEmpty() bool {
	return c.Title == nil && c.Content == nil && c.Style == nil && c.Todos == nil
}

func (c ChangeSet) Has(field Field) bool {
	switch field {
	case FieldTitle:
		return c.Title != nil
	case FieldContent:
		return c.Content != nil
	case FieldStyle:
		return c.Style != nil
	case FieldTodos:
		return c.Todos != nil
	default:
		return false
	}
}

func (c ChangeSet) Fields() []Field {
	fields := make([]Field, 0, 4)
	for _, field := range []Field{FieldTitle, FieldContent, FieldStyle, FieldTodos} {
		if c.Has(field) {
			fields = append(fields, field)
		}
	}
	return fields
}

type TimelineEvent struct {
	ID          string            `json:"event_id"`
	Type        TimelineEventType `json:"event_type"`
	CardID      string            `json:"card_id"`
	CardTitle   string            `json:"card_title"`
	Time        time.Time         `json:"event_time"`
	Description string            `json:"description"`
	Details     map[string]any    `json:"details,omitempty"`
}

type CreateCardRequest struct {
	Title   string     `json:"title"`
	Content string     `json:"content"`
	Style   *CardStyle `json:"card_style,omitempty"`
}

type UpdateCardRequest struct {
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Style      *CardStyle `json:"card_style,omitempty"`
	Todos      []Todo     `json:"todos"`
	OldTitle   string     `json:"old_title"`
	OldContent string     `json:"old_content"`
	OldStyle   *CardStyle `json:"old_card_style,omitempty"`
	OldTodos   []Todo     `json:"old_todos"`
	Operator   string     `json:"operator,omitempty"`
	Note       string     `json:"edit_note,omitempty"`
}

type CardList struct {
	Cards []Card `json:"cards"`
	Total int    `json:"total"`
}

type HistoryPage struct {
	CardID     string         `json:"card_id"`
	CardTitle  string         `json:"card_title"`
	TotalEdits int            `json:"total_edits"`
	History    []HistoryEntry `json:"history"`
}

type Timeline struct {
	Events []TimelineEvent `json:"events"`
	Total  int             `json:"total"`
}

type MessageResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

type Event struct {
	Type      EventType `json:"type"`
	CardID    string    `json:"card_id,omitempty"`
	CardTitle string    `json:"card_title,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TimeWindow bounds a timeline query. Nil ends are open.
type TimeWindow struct {
	Start *time.Time
	End   *time.Time
}

func (w TimeWindow) Contains(t time.Time) bool {
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && t.After(*w.End) {
		return false
	}
	return true
}
