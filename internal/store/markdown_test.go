package store

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/simonjohansson/thoughtflow/internal/model"
	"github.com/stretchr/testify/require"
)

func TestMarkdownStoreUsesRWMutex(t *testing.T) {
	s, err := NewMarkdownStore(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, reflect.TypeOf(sync.RWMutex{}), reflect.TypeOf(s.mu))
}

func TestGetCardBlocksWhileWriteLockHeld(t *testing.T) {
	s, err := NewMarkdownStore(t.TempDir())
	require.NoError(t, err)

	card, err := s.CreateCard("Alpha", "body", model.DefaultCardStyle)
	require.NoError(t, err)

	done := make(chan struct{})
	s.mu.Lock()
	go func() {
		defer close(done)
		_, _ = s.GetCard(card.ID)
	}()

	select {
	case <-done:
		t.Fatal("expected GetCard to block while write lock is held")
	case <-time.After(100 * time.Millisecond):
	}

	s.mu.Unlock()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("GetCard did not finish after releasing write lock")
	}
}

func TestMarkdownStoreCardLifecycle(t *testing.T) {
	dir := t.TempDir()
	s, err := NewMarkdownStore(dir)
	require.NoError(t, err)

	pink := model.PresetCardStyles[1]
	card, err := s.CreateCard("Buy milk", "2%", pink)
	require.NoError(t, err)
	require.Len(t, card.ID, 26)
	require.False(t, card.IsDeleted)
	require.Equal(t, pink, card.Style)
	require.NotNil(t, card.Todos)
	require.FileExists(t, filepath.Join(dir, "cards", card.ID+".md"))

	loaded, err := s.GetCard(card.ID)
	require.NoError(t, err)
	require.Equal(t, card.ID, loaded.ID)
	require.Equal(t, "Buy milk", loaded.Title)
	require.Equal(t, "2%", loaded.Content)
	require.True(t, card.CreatedAt.Equal(loaded.CreatedAt))
	require.Empty(t, loaded.Todos)
	require.Empty(t, loaded.History)

	todo := model.NewTodo("go to store", card.CreatedAt)
	updated, err := s.UpdateCard(card.ID, func(c *model.Card, now time.Time) error {
		c.Todos = append(c.Todos, todo)
		c.History = append(c.History, model.HistoryEntry{
			ID:       "h1",
			EditTime: now,
			Operator: "anonymous",
			Changes: model.ChangeSet{
				Todos: &model.TodosChange{Old: []model.Todo{}, New: []model.Todo{todo}},
			},
			Note: "added todo",
		})
		return nil
	})
	require.NoError(t, err)
	require.False(t, updated.UpdatedAt.Before(card.UpdatedAt))

	loaded, err = s.GetCard(card.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Todos, 1)
	require.Equal(t, todo.ID, loaded.Todos[0].ID)
	require.Len(t, loaded.History, 1)
	require.Equal(t, "added todo", loaded.History[0].Note)
	require.NotNil(t, loaded.History[0].Changes.Todos)
	require.Equal(t, []model.Field{model.FieldTodos}, loaded.History[0].Changes.Fields())
	require.Equal(t, "go to store", loaded.History[0].Changes.Todos.New[0].Text)

	second, err := s.CreateCard("Second", "x", model.DefaultCardStyle)
	require.NoError(t, err)

	cards, err := s.Snapshot()
	require.NoError(t, err)
	require.Len(t, cards, 2)
	require.ElementsMatch(t, []string{card.ID, second.ID}, []string{cards[0].ID, cards[1].ID})
}

func TestMarkdownContentRoundTripsVerbatim(t *testing.T) {
	t.Parallel()

	s, err := NewMarkdownStore(t.TempDir())
	require.NoError(t, err)

	content := "# Heading\n\n---\n## Todos\nno trailing newline"
	card, err := s.CreateCard("title: with colon", content, model.DefaultCardStyle)
	require.NoError(t, err)

	loaded, err := s.GetCard(card.ID)
	require.NoError(t, err)
	require.Equal(t, content, loaded.Content)
	require.Equal(t, "title: with colon", loaded.Title)
}

func TestMarkdownStoreMissingCard(t *testing.T) {
	t.Parallel()

	s, err := NewMarkdownStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.GetCard("01HZZZZZZZZZZZZZZZZZZZZZZZ")
	require.ErrorIs(t, err, os.ErrNotExist)
	_, err = s.GetCard("../escape")
	require.ErrorIs(t, err, os.ErrNotExist)
	_, err = s.UpdateCard("missing", func(*model.Card, time.Time) error { return nil })
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestUpdateCardLeavesFileWhenMutateFails(t *testing.T) {
	t.Parallel()

	s, err := NewMarkdownStore(t.TempDir())
	require.NoError(t, err)
	card, err := s.CreateCard("Keep", "me", model.DefaultCardStyle)
	require.NoError(t, err)

	sentinel := errors.New("rejected")
	_, err = s.UpdateCard(card.ID, func(c *model.Card, _ time.Time) error {
		c.Title = "changed"
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	loaded, err := s.GetCard(card.ID)
	require.NoError(t, err)
	require.Equal(t, "Keep", loaded.Title)
}

func TestCreateCardRequiresTitle(t *testing.T) {
	t.Parallel()

	s, err := NewMarkdownStore(t.TempDir())
	require.NoError(t, err)
	_, err = s.CreateCard("  ", "content", model.DefaultCardStyle)
	require.Error(t, err)
}

func TestParseCardRejectsMissingFrontmatter(t *testing.T) {
	t.Parallel()

	_, err := parseCard([]byte("# just markdown"))
	require.Error(t, err)
	_, err = parseCard([]byte("---\nid: x\n"))
	require.Error(t, err)

	card, err := parseCard([]byte(strings.Join([]string{
		"---",
		"id: abc",
		"title: T",
		"deleted: true",
		"card_style:",
		"  bg_color: '#FFF9C4'",
		"---",
		"body",
	}, "\n")))
	require.NoError(t, err)
	require.True(t, card.IsDeleted)
	require.Equal(t, "#FFF9C4", card.Style.BackgroundColor)
	require.Equal(t, "body", card.Content)
	require.NotNil(t, card.Todos)
	require.NotNil(t, card.History)
}

func TestWriteFileAtomicCleansTempOnRenameFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target.md")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	previousRename := renameFile
	renameFile = func(_, _ string) error { return errors.New("rename failed") }
	t.Cleanup(func() { renameFile = previousRename })

	err := writeFileAtomic(path, []byte("new"), 0o644)
	require.Error(t, err)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	require.Equal(t, "old", string(data))

	leftovers, globErr := filepath.Glob(filepath.Join(dir, ".tmp-*"))
	require.NoError(t, globErr)
	require.Empty(t, leftovers)
}

func TestWriteFileAtomicReplacesTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target.md")
	require.NoError(t, os.WriteFile(path, []byte("before"), 0o644))

	require.NoError(t, writeFileAtomic(path, []byte("after"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "after", string(data))
}
