package diff

import "github.com/simonjohansson/thoughtflow/internal/model"

type TodoChangeKind string

const (
	TodoAdded   TodoChangeKind = "added"
	TodoDeleted TodoChangeKind = "deleted"
	TodoUpdated TodoChangeKind = "updated"
)

type TodoChange struct {
	Kind TodoChangeKind
	ID   string
	Old  *model.Todo
	New  *model.Todo

	TextChanged      bool
	CompletedChanged bool
}

// Todos matches items by id and reports additions (in new order), deletions
// (in old order) and in-place edits (in new order). Items without an id are
// skipped. Reordering alone is not reported.
func Todos(old, new []model.Todo) []TodoChange {
	oldByID := indexByID(old)
	newByID := indexByID(new)

	var changes []TodoChange
	for _, todo := range new {
		if todo.ID == "" {
			continue
		}
		if _, ok := oldByID[todo.ID]; !ok {
			added := todo
			changes = append(changes, TodoChange{Kind: TodoAdded, ID: todo.ID, New: &added})
		}
	}
	for _, todo := range old {
		if todo.ID == "" {
			continue
		}
		if _, ok := newByID[todo.ID]; !ok {
			deleted := todo
			changes = append(changes, TodoChange{Kind: TodoDeleted, ID: todo.ID, Old: &deleted})
		}
	}
	for _, after := range new {
		before, ok := oldByID[after.ID]
		if after.ID == "" || !ok {
			continue
		}
		textChanged := before.Text != after.Text
		completedChanged := before.Completed != after.Completed
		if !textChanged && !completedChanged {
			continue
		}
		b, a := before, after
		changes = append(changes, TodoChange{
			Kind:             TodoUpdated,
			ID:               after.ID,
			Old:              &b,
			New:              &a,
			TextChanged:      textChanged,
			CompletedChanged: completedChanged,
		})
	}
	return changes
}

func indexByID(todos []model.Todo) map[string]model.Todo {
	out := make(map[string]model.Todo, len(todos))
	for _, todo := range todos {
		if todo.ID != "" {
			out[todo.ID] = todo
		}
	}
	return out
}
