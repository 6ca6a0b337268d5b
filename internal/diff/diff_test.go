package diff

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/simonjohansson/thoughtflow/internal/model"
	"github.com/stretchr/testify/require"
)

func snapshot() model.Snapshot {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	style := model.DefaultCardStyle
	return model.Snapshot{
		Title:   "Buy milk",
		Content: "2%",
		Style:   &style,
		Todos: []model.Todo{
			{ID: "t1", Text: "go to store", CreatedAt: now, UpdatedAt: now},
			{ID: "t2", Text: "pay", Completed: true, CreatedAt: now, UpdatedAt: now},
		},
	}
}

func TestComputeUnchangedIsEmpty(t *testing.T) {
	t.Parallel()

	x := snapshot()
	cs := Compute(x, x)
	require.True(t, cs.IsEmpty())
	require.Empty(t, cs.Fields())

	raw, err := json.Marshal(cs)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(raw))
}

func TestComputeReportsOnlyChangedFields(t *testing.T) {
	t.Parallel()

	old := snapshot()

	titled := snapshot()
	titled.Title = "Buy oat milk"
	cs := Compute(old, titled)
	require.Equal(t, []model.Field{model.FieldTitle}, cs.Fields())
	require.Equal(t, &model.TextChange{Old: "Buy milk", New: "Buy oat milk"}, cs.Title)

	content := snapshot()
	content.Content = "whole"
	cs = Compute(old, content)
	require.Equal(t, []model.Field{model.FieldContent}, cs.Fields())

	styled := snapshot()
	pink := model.PresetCardStyles[1]
	styled.Style = &pink
	cs = Compute(old, styled)
	require.Equal(t, []model.Field{model.FieldStyle}, cs.Fields())
	require.Equal(t, model.DefaultCardStyle, cs.Style.Old)
	require.Equal(t, pink, cs.Style.New)
}

func TestComputeSkipsStyleWithoutBaseline(t *testing.T) {
	t.Parallel()

	old := snapshot()
	old.Style = nil
	changed := snapshot()
	pink := model.PresetCardStyles[1]
	changed.Style = &pink

	require.True(t, Compute(old, changed).IsEmpty())
	require.True(t, Compute(changed, old).IsEmpty())
}

func TestComputeTodosRecordsWholeSequences(t *testing.T) {
	t.Parallel()

	old := snapshot()

	reordered := snapshot()
	reordered.Todos[0], reordered.Todos[1] = reordered.Todos[1], reordered.Todos[0]
	cs := Compute(old, reordered)
	require.Equal(t, []model.Field{model.FieldTodos}, cs.Fields())
	require.Len(t, cs.Todos.Old, 2)
	require.Len(t, cs.Todos.New, 2)
	require.Equal(t, "t2", cs.Todos.New[0].ID)

	toggled := snapshot()
	toggled.Todos[0].Completed = true
	require.True(t, Compute(old, toggled).Has(model.FieldTodos))

	removed := snapshot()
	removed.Todos = removed.Todos[:1]
	require.True(t, Compute(old, removed).Has(model.FieldTodos))
}

func TestComputeTodosIgnoresTimestamps(t *testing.T) {
	t.Parallel()

	old := snapshot()
	touched := snapshot()
	touched.Todos[0].UpdatedAt = touched.Todos[0].UpdatedAt.Add(time.Hour)

	require.True(t, Compute(old, touched).IsEmpty())
}

func TestComputeTreatsNilAndEmptyTodosAsEqual(t *testing.T) {
	t.Parallel()

	a := snapshot()
	a.Todos = nil
	b := snapshot()
	b.Todos = []model.Todo{}
	require.True(t, Compute(a, b).IsEmpty())

	b.Todos = []model.Todo{{ID: "x", Text: "new"}}
	cs := Compute(a, b)
	require.NotNil(t, cs.Todos.Old)
	require.Empty(t, cs.Todos.Old)
}

func TestComputeDoesNotAliasInput(t *testing.T) {
	t.Parallel()

	old := snapshot()
	changed := snapshot()
	changed.Todos[0].Text = "changed"

	cs := Compute(old, changed)
	changed.Todos[0].Text = "mutated later"
	require.Equal(t, "changed", cs.Todos.New[0].Text)
}

func TestTodosSubDiff(t *testing.T) {
	t.Parallel()

	old := []model.Todo{
		{ID: "a", Text: "keep"},
		{ID: "b", Text: "drop"},
		{ID: "c", Text: "rename"},
		{ID: "d", Text: "check"},
	}
	new := []model.Todo{
		{ID: "d", Text: "check", Completed: true},
		{ID: "a", Text: "keep"},
		{ID: "c", Text: "renamed"},
		{ID: "e", Text: "added"},
	}

	changes := Todos(old, new)
	require.Len(t, changes, 4)

	require.Equal(t, TodoAdded, changes[0].Kind)
	require.Equal(t, "e", changes[0].ID)
	require.Nil(t, changes[0].Old)

	require.Equal(t, TodoDeleted, changes[1].Kind)
	require.Equal(t, "b", changes[1].ID)
	require.Nil(t, changes[1].New)

	require.Equal(t, TodoUpdated, changes[2].Kind)
	require.Equal(t, "d", changes[2].ID)
	require.True(t, changes[2].CompletedChanged)
	require.False(t, changes[2].TextChanged)

	require.Equal(t, TodoUpdated, changes[3].Kind)
	require.Equal(t, "c", changes[3].ID)
	require.True(t, changes[3].TextChanged)
	require.Equal(t, "rename", changes[3].Old.Text)
	require.Equal(t, "renamed", changes[3].New.Text)
}

func TestTodosSubDiffIgnoresReorderAndMissingIDs(t *testing.T) {
	t.Parallel()

	old := []model.Todo{{ID: "a", Text: "one"}, {ID: "b", Text: "two"}, {Text: "anonymous"}}
	new := []model.Todo{{ID: "b", Text: "two"}, {ID: "a", Text: "one"}}

	require.Empty(t, Todos(old, new))
}
