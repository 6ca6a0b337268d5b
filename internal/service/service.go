package service

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/simonjohansson/thoughtflow/internal/diff"
	"github.com/simonjohansson/thoughtflow/internal/model"
)

const (
	MaxTitleLength    = 100
	MaxContentLength  = 2000
	MaxTodoTextLength = 500

	DefaultOperator = "anonymous"
)

type MarkdownStore interface {
	CreateCard(title, content string, style model.CardStyle) (model.Card, error)
	GetCard(id string) (model.Card, error)
	UpdateCard(id string, mutate func(card *model.Card, now time.Time) error) (model.Card, error)
	Snapshot() ([]model.Card, error)
}

type Projection interface {
	UpsertCard(card model.Card) error
	ListCards(deleted bool) ([]model.Card, error)
	ListAll() ([]model.Card, error)
	RebuildFromMarkdown(cards []model.Card) error
}

type Publisher interface {
	Publish(event model.Event)
}

type RebuildResult struct {
	CardsRebuilt int
}

type Service struct {
	store      MarkdownStore
	projection Projection
	publisher  Publisher
	logger     *slog.Logger
}

func New(store MarkdownStore, projection Projection, publisher Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      store,
		projection: projection,
		publisher:  publisher,
		logger:     logger,
	}
}

func (s *Service) CreateCard(req model.CreateCardRequest) (model.Card, error) {
	if err := validateTitle(req.Title); err != nil {
		return model.Card{}, err
	}
	if err := validateContent(req.Content); err != nil {
		return model.Card{}, err
	}
	style := styleOrDefault(req.Style)

	card, err := s.store.CreateCard(req.Title, req.Content, style)
	if err != nil {
		return model.Card{}, newError(CodeInternal, "create card failed", err)
	}
	card = normalizeCardDefaults(card)
	if err := s.projection.UpsertCard(card); err != nil {
		return model.Card{}, newError(CodeInternal, "projection sync failed", err)
	}
	s.logger.Info("card created", "card_id", card.ID)
	s.publish(model.EventTypeCardCreated, card)
	return card, nil
}

func (s *Service) ListActiveCards() (model.CardList, error) {
	return s.listCards(false)
}

func (s *Service) ListDeletedCards() (model.CardList, error) {
	return s.listCards(true)
}

func (s *Service) listCards(deleted bool) (model.CardList, error) {
	cards, err := s.projection.ListCards(deleted)
	if err != nil {
		return model.CardList{}, newError(CodeInternal, "list cards failed", err)
	}
	if cards == nil {
		cards = []model.Card{}
	}
	for i := range cards {
		cards[i] = normalizeCardDefaults(cards[i])
	}
	return model.CardList{Cards: cards, Total: len(cards)}, nil
}

func (s *Service) GetCard(id string) (model.Card, error) {
	card, err := s.store.GetCard(id)
	if err != nil {
		return model.Card{}, storeError(err, "get card failed")
	}
	return normalizeCardDefaults(card), nil
}

// UpdateCard applies the new values and appends one history entry describing
// the difference between the request's old and new values. A request without
// a style keeps the stored one; a missing old style means the stored style.
func (s *Service) UpdateCard(id string, req model.UpdateCardRequest) (model.Card, error) {
	if err := validateTitle(req.Title); err != nil {
		return model.Card{}, err
	}
	if err := validateContent(req.Content); err != nil {
		return model.Card{}, err
	}
	for _, todo := range req.Todos {
		if err := validateTodoText(todo.Text); err != nil {
			return model.Card{}, err
		}
	}

	operator := strings.TrimSpace(req.Operator)
	if operator == "" {
		operator = DefaultOperator
	}

	var changes model.ChangeSet
	card, err := s.store.UpdateCard(id, func(card *model.Card, now time.Time) error {
		if card.IsDeleted {
			return validationError("deleted cards cannot be edited")
		}
		newStyle, oldStyle := requestStyles(card.Style, req)
		changes = diff.Compute(
			model.Snapshot{Title: req.OldTitle, Content: req.OldContent, Style: &oldStyle, Todos: req.OldTodos},
			model.Snapshot{Title: req.Title, Content: req.Content, Style: &newStyle, Todos: req.Todos},
		)
		if changes.IsEmpty() {
			return validationError("no changes to save")
		}
		card.Title = req.Title
		card.Content = req.Content
		card.Style = newStyle
		card.Todos = model.CloneTodos(req.Todos)
		if card.Todos == nil {
			card.Todos = []model.Todo{}
		}
		card.History = append(card.History, model.HistoryEntry{
			ID:       uuid.NewString(),
			EditTime: now,
			Operator: operator,
			Changes:  changes,
			Note:     req.Note,
		})
		return nil
	})
	if err != nil {
		return model.Card{}, storeError(err, "update card failed")
	}
	card = normalizeCardDefaults(card)
	if err := s.projection.UpsertCard(card); err != nil {
		return model.Card{}, newError(CodeInternal, "projection sync failed", err)
	}
	s.logger.Info("card updated", "card_id", card.ID, "operator", operator, "fields", changes.Fields())
	s.publish(model.EventTypeCardUpdated, card)
	return card, nil
}

func (s *Service) SoftDeleteCard(id string) (model.MessageResponse, error) {
	card, err := s.setDeleted(id, true)
	if err != nil {
		return model.MessageResponse{}, err
	}
	s.logger.Info("card soft deleted", "card_id", card.ID)
	s.publish(model.EventTypeCardDeletedSoft, card)
	return model.MessageResponse{Message: "card deleted; it can be restored from the deleted list", Success: true}, nil
}

func (s *Service) RecoverCard(id string) (model.MessageResponse, error) {
	card, err := s.setDeleted(id, false)
	if err != nil {
		return model.MessageResponse{}, err
	}
	s.logger.Info("card recovered", "card_id", card.ID)
	s.publish(model.EventTypeCardRecovered, card)
	return model.MessageResponse{Message: "card recovered", Success: true}, nil
}

func (s *Service) setDeleted(id string, deleted bool) (model.Card, error) {
	card, err := s.store.UpdateCard(id, func(card *model.Card, _ time.Time) error {
		if card.IsDeleted == deleted {
			if deleted {
				return validationError("card is already deleted")
			}
			return validationError("card is not deleted")
		}
		card.IsDeleted = deleted
		return nil
	})
	if err != nil {
		return model.Card{}, storeError(err, "update card failed")
	}
	card = normalizeCardDefaults(card)
	if err := s.projection.UpsertCard(card); err != nil {
		return model.Card{}, newError(CodeInternal, "projection sync failed", err)
	}
	return card, nil
}

// History returns the card's edits newest first.
func (s *Service) History(id string) (model.HistoryPage, error) {
	card, err := s.GetCard(id)
	if err != nil {
		return model.HistoryPage{}, err
	}
	entries := make([]model.HistoryEntry, len(card.History))
	for i, entry := range card.History {
		entries[len(card.History)-1-i] = entry
	}
	return model.HistoryPage{
		CardID:     card.ID,
		CardTitle:  card.Title,
		TotalEdits: len(entries),
		History:    entries,
	}, nil
}

func (s *Service) Timeline(window model.TimeWindow) (model.Timeline, error) {
	if window.Start != nil && window.End != nil && window.Start.After(*window.End) {
		return model.Timeline{}, validationError("start_time must not be after end_time")
	}
	cards, err := s.projection.ListAll()
	if err != nil {
		return model.Timeline{}, newError(CodeInternal, "list cards failed", err)
	}
	events := BuildTimeline(cards, window)
	return model.Timeline{Events: events, Total: len(events)}, nil
}

func (s *Service) RebuildProjection() (RebuildResult, error) {
	cards, err := s.store.Snapshot()
	if err != nil {
		return RebuildResult{}, newError(CodeInternal, "snapshot failed", err)
	}
	if err := s.projection.RebuildFromMarkdown(cards); err != nil {
		return RebuildResult{}, newError(CodeInternal, "rebuild projection failed", err)
	}
	s.logger.Info("projection rebuilt", "cards_rebuilt", len(cards))
	return RebuildResult{CardsRebuilt: len(cards)}, nil
}

func (s *Service) publish(eventType model.EventType, card model.Card) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(model.Event{
		Type:      eventType,
		CardID:    card.ID,
		CardTitle: card.Title,
		Timestamp: time.Now().UTC(),
	})
}

func normalizeCardDefaults(card model.Card) model.Card {
	if card.Todos == nil {
		card.Todos = []model.Todo{}
	}
	if card.History == nil {
		card.History = []model.HistoryEntry{}
	}
	if card.Style == (model.CardStyle{}) {
		card.Style = model.DefaultCardStyle
	}
	return card
}

// requestStyles resolves the new and old styles of an update against the
// stored style. Without a new style the style is not part of the edit.
func requestStyles(stored model.CardStyle, req model.UpdateCardRequest) (model.CardStyle, model.CardStyle) {
	current := styleOrDefault(&stored)
	if req.Style == nil {
		return current, current
	}
	newStyle := styleOrDefault(req.Style)
	if req.OldStyle == nil {
		return newStyle, current
	}
	return newStyle, styleOrDefault(req.OldStyle)
}

func styleOrDefault(style *model.CardStyle) model.CardStyle {
	if style == nil || *style == (model.CardStyle{}) {
		return model.DefaultCardStyle
	}
	return *style
}

func validateTitle(title string) error {
	return validateLength("title", title, MaxTitleLength)
}

func validateContent(content string) error {
	return validateLength("content", content, MaxContentLength)
}

func validateTodoText(text string) error {
	return validateLength("todo text", text, MaxTodoTextLength)
}

func validateLength(field, value string, limit int) error {
	if strings.TrimSpace(value) == "" {
		return validationError(field + " is required")
	}
	if n := utf8.RuneCountInString(value); n > limit {
		return validationError(fmt.Sprintf("%s must be at most %d characters, got %d", field, limit, n))
	}
	return nil
}
