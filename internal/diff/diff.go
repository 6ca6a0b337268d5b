// Package diff computes field-level change sets between two card snapshots.
package diff

import "github.com/simonjohansson/thoughtflow/internal/model"

// Compute returns the fields that differ between old and new. Style is only
// compared when both snapshots carry one. The result is never nil-valued;
// an unchanged pair yields an empty ChangeSet.
func Compute(old, new model.Snapshot) model.ChangeSet {
	var cs model.ChangeSet
	if old.Title != new.Title {
		cs.Title = &model.TextChange{Old: old.Title, New: new.Title}
	}
	if old.Content != new.Content {
		cs.Content = &model.TextChange{Old: old.Content, New: new.Content}
	}
	if old.Style != nil && new.Style != nil && *old.Style != *new.Style {
		cs.Style = &model.StyleChange{Old: *old.Style, New: *new.Style}
	}
	if !TodosEqual(old.Todos, new.Todos) {
		cs.Todos = &model.TodosChange{
			Old: nonNil(model.CloneTodos(old.Todos)),
			New: nonNil(model.CloneTodos(new.Todos)),
		}
	}
	return cs
}

// TodosEqual compares two checklists by order, id, text and completion.
// Timestamps are ignored.
func TodosEqual(a, b []model.Todo) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Text != b[i].Text || a[i].Completed != b[i].Completed {
			return false
		}
	}
	return true
}

func nonNil(todos []model.Todo) []model.Todo {
	if todos == nil {
		return []model.Todo{}
	}
	return todos
}
