package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/simonjohansson/thoughtflow/internal/model"
)

// SQLiteProjection is a disposable read model of the markdown cards. It can
// always be rebuilt from the markdown files.
type SQLiteProjection struct {
	db *sql.DB
}

func NewSQLiteProjection(path string) (*SQLiteProjection, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	projection := &SQLiteProjection{db: db}
	if err := projection.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return projection, nil
}

func (p *SQLiteProjection) Close() error {
	return p.db.Close()
}

func (p *SQLiteProjection) init() error {
	_, err := p.db.Exec(`
CREATE TABLE IF NOT EXISTS cards (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  deleted INTEGER NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  todos_count INTEGER NOT NULL,
  history_count INTEGER NOT NULL,
  document TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS cards_deleted_updated ON cards (deleted, updated_at DESC);
`)
	return err
}

const upsertCardSQL = `
INSERT INTO cards (id, title, deleted, created_at, updated_at, todos_count, history_count, document)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  title = excluded.title,
  deleted = excluded.deleted,
  created_at = excluded.created_at,
  updated_at = excluded.updated_at,
  todos_count = excluded.todos_count,
  history_count = excluded.history_count,
  document = excluded.document;
`

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (p *SQLiteProjection) UpsertCard(card model.Card) error {
	return upsertCard(p.db, card)
}

func upsertCard(db execer, card model.Card) error {
	doc, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("encode card %s: %w", card.ID, err)
	}
	_, err = db.Exec(upsertCardSQL,
		card.ID,
		card.Title,
		boolToInt(card.IsDeleted),
		card.CreatedAt.UTC().UnixNano(),
		card.UpdatedAt.UTC().UnixNano(),
		len(card.Todos),
		len(card.History),
		string(doc),
	)
	return err
}

// ListCards returns active or deleted cards, most recently updated first.
func (p *SQLiteProjection) ListCards(deleted bool) ([]model.Card, error) {
	return p.queryCards(`SELECT document FROM cards WHERE deleted = ? ORDER BY updated_at DESC, id DESC`, boolToInt(deleted))
}

// ListAll returns every card regardless of deleted state.
func (p *SQLiteProjection) ListAll() ([]model.Card, error) {
	return p.queryCards(`SELECT document FROM cards ORDER BY updated_at DESC, id DESC`)
}

func (p *SQLiteProjection) queryCards(query string, args ...any) ([]model.Card, error) {
	rows, err := p.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := make([]model.Card, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		card, err := cardFromDocument(doc)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}

func (p *SQLiteProjection) RebuildFromMarkdown(cards []model.Card) (err error) {
	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`DELETE FROM cards`); err != nil {
		return err
	}

	sorted := append([]model.Card(nil), cards...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for _, card := range sorted {
		if err = upsertCard(tx, card); err != nil {
			return fmt.Errorf("insert card %s: %w", card.ID, err)
		}
	}

	return tx.Commit()
}

func cardFromDocument(doc string) (model.Card, error) {
	var card model.Card
	if err := json.Unmarshal([]byte(doc), &card); err != nil {
		return model.Card{}, fmt.Errorf("decode card document: %w", err)
	}
	if card.Todos == nil {
		card.Todos = []model.Todo{}
	}
	if card.History == nil {
		card.History = []model.HistoryEntry{}
	}
	return card, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
