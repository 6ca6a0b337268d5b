package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/simonjohansson/thoughtflow/internal/model"
	"gopkg.in/yaml.v3"
)

// MarkdownStore keeps one markdown file per card. The YAML frontmatter holds
// the structured fields and the body holds the card content verbatim.
type MarkdownStore struct {
	dataDir  string
	cardsDir string
	mu       sync.RWMutex
	now      func() time.Time
}

var renameFile = os.Rename

func NewMarkdownStore(dataDir string) (*MarkdownStore, error) {
	cardsDir := filepath.Join(dataDir, "cards")
	if err := os.MkdirAll(cardsDir, 0o755); err != nil {
		return nil, err
	}
	return &MarkdownStore{
		dataDir:  dataDir,
		cardsDir: cardsDir,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

type cardFrontmatter struct {
	ID        string               `yaml:"id"`
	Title     string               `yaml:"title"`
	Deleted   bool                 `yaml:"deleted"`
	CreatedAt time.Time            `yaml:"created_at"`
	UpdatedAt time.Time            `yaml:"updated_at"`
	Style     model.CardStyle      `yaml:"card_style"`
	Todos     []model.Todo         `yaml:"todos,omitempty"`
	History   []model.HistoryEntry `yaml:"history,omitempty"`
}

func (s *MarkdownStore) CreateCard(title, content string, style model.CardStyle) (model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(title) == "" {
		return model.Card{}, errors.New("title is required")
	}
	now := s.now()
	id, err := ulid.New(ulid.Timestamp(now), ulid.DefaultEntropy())
	if err != nil {
		return model.Card{}, fmt.Errorf("generate card id: %w", err)
	}
	card := model.Card{
		ID:        id.String(),
		Title:     title,
		Content:   content,
		Todos:     []model.Todo{},
		Style:     style,
		CreatedAt: now,
		UpdatedAt: now,
		History:   []model.HistoryEntry{},
	}
	if err := s.writeCard(card); err != nil {
		return model.Card{}, err
	}
	return card, nil
}

func (s *MarkdownStore) GetCard(id string) (model.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadCard(id)
}

// UpdateCard loads the card, applies mutate and writes it back under the
// write lock. UpdatedAt is set to now when mutate succeeds. Errors returned
// by mutate are passed through and nothing is written.
func (s *MarkdownStore) UpdateCard(id string, mutate func(card *model.Card, now time.Time) error) (model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, err := s.loadCard(id)
	if err != nil {
		return model.Card{}, err
	}
	now := s.now()
	if err := mutate(&card, now); err != nil {
		return model.Card{}, err
	}
	card.UpdatedAt = now
	if err := s.writeCard(card); err != nil {
		return model.Card{}, err
	}
	return card, nil
}

// Snapshot returns every card on disk ordered by id.
func (s *MarkdownStore) Snapshot() ([]model.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.cardsDir)
	if err != nil {
		return nil, err
	}
	cards := make([]model.Card, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		card, err := s.loadCard(strings.TrimSuffix(entry.Name(), ".md"))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", entry.Name(), err)
		}
		cards = append(cards, card)
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	return cards, nil
}

func (s *MarkdownStore) loadCard(id string) (model.Card, error) {
	if !validCardID(id) {
		return model.Card{}, os.ErrNotExist
	}
	data, err := os.ReadFile(s.cardPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Card{}, os.ErrNotExist
		}
		return model.Card{}, err
	}
	return parseCard(data)
}

func (s *MarkdownStore) writeCard(c model.Card) error {
	data, err := serializeCard(c)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.cardPath(c.ID), data, 0o644)
}

func (s *MarkdownStore) cardPath(id string) string {
	return filepath.Join(s.cardsDir, id+".md")
}

func validCardID(id string) bool {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return false
	}
	return true
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}

	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return err
	}
	if err := renameFile(tmpPath, path); err != nil {
		return err
	}

	cleanup = false
	return nil
}

func serializeCard(c model.Card) ([]byte, error) {
	fm := cardFrontmatter{
		ID:        c.ID,
		Title:     c.Title,
		Deleted:   c.IsDeleted,
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
		Style:     c.Style,
		Todos:     c.Todos,
		History:   c.History,
	}
	yml, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(yml)
	buf.WriteString("---\n")
	buf.WriteString(c.Content)
	return buf.Bytes(), nil
}

func parseCard(data []byte) (model.Card, error) {
	yml, body, err := splitFrontmatter(data)
	if err != nil {
		return model.Card{}, err
	}
	var fm cardFrontmatter
	if err := yaml.Unmarshal(yml, &fm); err != nil {
		return model.Card{}, err
	}
	card := model.Card{
		ID:        fm.ID,
		Title:     fm.Title,
		Content:   body,
		Todos:     fm.Todos,
		Style:     fm.Style,
		IsDeleted: fm.Deleted,
		CreatedAt: fm.CreatedAt,
		UpdatedAt: fm.UpdatedAt,
		History:   fm.History,
	}
	if card.Todos == nil {
		card.Todos = []model.Todo{}
	}
	if card.History == nil {
		card.History = []model.HistoryEntry{}
	}
	return card, nil
}

func splitFrontmatter(data []byte) ([]byte, string, error) {
	raw := string(data)
	if !strings.HasPrefix(raw, "---\n") {
		return nil, "", errors.New("missing frontmatter")
	}
	rest := raw[4:]
	idx := strings.Index(rest, "\n---\n")
	if idx < 0 {
		return nil, "", errors.New("invalid frontmatter")
	}
	yml := rest[:idx]
	body := rest[idx+5:]
	return []byte(yml), body, nil
}
