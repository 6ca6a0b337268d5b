// Package cardstore holds the in-memory model of active and soft-deleted
// idea cards and keeps it in step with the remote service.
//
// Every operation validates locally, performs one gateway call without
// holding the lock, then commits its result by swapping whole collections.
package cardstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/simonjohansson/thoughtflow/internal/diff"
	"github.com/simonjohansson/thoughtflow/internal/model"
)

type Gateway interface {
	CreateCard(ctx context.Context, req model.CreateCardRequest) (model.Card, error)
	ListActiveCards(ctx context.Context) (model.CardList, error)
	ListDeletedCards(ctx context.Context) (model.CardList, error)
	GetCard(ctx context.Context, id string) (model.Card, error)
	UpdateCard(ctx context.Context, id string, req model.UpdateCardRequest) (model.Card, error)
	SoftDeleteCard(ctx context.Context, id string) (model.MessageResponse, error)
	RecoverCard(ctx context.Context, id string) (model.MessageResponse, error)
	GetHistory(ctx context.Context, id string) (model.HistoryPage, error)
	GetTimeline(ctx context.Context, window model.TimeWindow) (model.Timeline, error)
}

type Bucket int

const (
	BucketNone Bucket = iota
	BucketActive
	BucketDeleted
)

func (b Bucket) String() string {
	switch b {
	case BucketActive:
		return "active"
	case BucketDeleted:
		return "deleted"
	default:
		return "none"
	}
}

type Options struct {
	Logger *slog.Logger
	// Operator is sent with updates that do not name one.
	Operator string
	// OnChange is called outside the lock after every state transition.
	OnChange func(State)
}

type TimelineView struct {
	Window model.TimeWindow
	Events []model.TimelineEvent
	Total  int
}

type State struct {
	Active          []model.Card
	Deleted         []model.Card
	Loading         bool
	LastError       string
	EditingID       string
	HistoryCardID   string
	PendingDeleteID string
	History         *model.HistoryPage
	Timeline        *TimelineView
}

type UpdateInput struct {
	New      model.Snapshot
	Old      model.Snapshot
	Operator string
	Note     string
}

type Store struct {
	gateway  Gateway
	logger   *slog.Logger
	operator string
	onChange func(State)

	mu              sync.Mutex
	active          []model.Card
	deleted         []model.Card
	inFlight        int
	lastError       string
	editingID       string
	historyCardID   string
	pendingDeleteID string
	history         *model.HistoryPage
	timeline        *TimelineView
}

func New(gateway Gateway, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		gateway:  gateway,
		logger:   logger,
		operator: strings.TrimSpace(opts.Operator),
		onChange: opts.OnChange,
	}
}

func (s *Store) LoadActive(ctx context.Context) error {
	s.begin()
	list, err := s.gateway.ListActiveCards(ctx)
	if err != nil {
		return s.fail("load active cards", err)
	}
	s.commit(func() {
		s.active = cloneCards(list.Cards)
		s.deleted = withoutIDs(s.deleted, s.active)
	})
	return nil
}

func (s *Store) LoadDeleted(ctx context.Context) error {
	s.begin()
	list, err := s.gateway.ListDeletedCards(ctx)
	if err != nil {
		return s.fail("load deleted cards", err)
	}
	s.commit(func() {
		s.deleted = cloneCards(list.Cards)
		s.active = withoutIDs(s.active, s.deleted)
	})
	return nil
}

func (s *Store) Create(ctx context.Context, draft model.CreateCardRequest) (model.Card, error) {
	if err := validateText(draft.Title, draft.Content); err != nil {
		return model.Card{}, err
	}
	s.begin()
	card, err := s.gateway.CreateCard(ctx, draft)
	if err != nil {
		return model.Card{}, s.fail("create card", err)
	}
	s.commit(func() {
		s.active = prepend(card, withoutID(s.active, card.ID))
		s.deleted = withoutID(s.deleted, card.ID)
	})
	s.logger.Debug("card created", "card_id", card.ID)
	return model.CloneCard(card), nil
}

// Get refreshes a single card. A known card is replaced in place, or moved to
// the front of the other collection when its deleted flag changed. An unknown
// card is returned but not stored.
func (s *Store) Get(ctx context.Context, id string) (model.Card, error) {
	s.begin()
	card, err := s.gateway.GetCard(ctx, id)
	if err != nil {
		return model.Card{}, s.fail("get card", err)
	}
	s.commit(func() {
		home, other := &s.active, &s.deleted
		if card.IsDeleted {
			home, other = other, home
		}
		switch {
		case indexOf(*home, card.ID) >= 0:
			*home = replaceByID(*home, card)
		case indexOf(*other, card.ID) >= 0:
			*other = withoutID(*other, card.ID)
			*home = prepend(card, *home)
		}
	})
	return model.CloneCard(card), nil
}

// Update sends the new values together with the caller's baseline. An
// unchanged pair returns ErrNoChanges without calling the gateway.
func (s *Store) Update(ctx context.Context, id string, in UpdateInput) (model.Card, error) {
	if err := validateText(in.New.Title, in.New.Content); err != nil {
		return model.Card{}, err
	}
	changes := diff.Compute(in.Old, in.New)
	if changes.IsEmpty() {
		return model.Card{}, ErrNoChanges
	}

	operator := strings.TrimSpace(in.Operator)
	if operator == "" {
		operator = s.operator
	}
	req := model.UpdateCardRequest{
		Title:      in.New.Title,
		Content:    in.New.Content,
		Style:      copyStyle(in.New.Style),
		Todos:      todosOrEmpty(in.New.Todos),
		OldTitle:   in.Old.Title,
		OldContent: in.Old.Content,
		OldStyle:   copyStyle(in.Old.Style),
		OldTodos:   todosOrEmpty(in.Old.Todos),
		Operator:   operator,
		Note:       in.Note,
	}

	s.begin()
	card, err := s.gateway.UpdateCard(ctx, id, req)
	if err != nil {
		return model.Card{}, s.fail("update card", err)
	}
	s.commit(func() {
		s.active = replaceByID(s.active, card)
		if s.editingID == id {
			s.editingID = ""
		}
	})
	s.logger.Debug("card updated", "card_id", id, "fields", changes.Fields())
	return model.CloneCard(card), nil
}

func (s *Store) SoftDelete(ctx context.Context, id string) error {
	s.begin()
	if _, err := s.gateway.SoftDeleteCard(ctx, id); err != nil {
		return s.fail("delete card", err)
	}
	s.commit(func() {
		s.active, s.deleted = relocate(s.active, s.deleted, id, true)
		if s.pendingDeleteID == id {
			s.pendingDeleteID = ""
		}
	})
	s.logger.Debug("card soft deleted", "card_id", id)
	return nil
}

func (s *Store) Recover(ctx context.Context, id string) error {
	s.begin()
	if _, err := s.gateway.RecoverCard(ctx, id); err != nil {
		return s.fail("recover card", err)
	}
	s.commit(func() {
		s.deleted, s.active = relocate(s.deleted, s.active, id, false)
		if s.pendingDeleteID == id {
			s.pendingDeleteID = ""
		}
	})
	s.logger.Debug("card recovered", "card_id", id)
	return nil
}

func (s *Store) FetchHistory(ctx context.Context, id string) (model.HistoryPage, error) {
	s.begin()
	page, err := s.gateway.GetHistory(ctx, id)
	if err != nil {
		return model.HistoryPage{}, s.fail("fetch history", err)
	}
	s.commit(func() {
		stored := cloneHistoryPage(page)
		s.history = &stored
		s.historyCardID = id
	})
	return cloneHistoryPage(page), nil
}

// FetchTimeline passes the window through untouched. Events and total are
// stored as returned.
func (s *Store) FetchTimeline(ctx context.Context, window model.TimeWindow) (TimelineView, error) {
	s.begin()
	timeline, err := s.gateway.GetTimeline(ctx, window)
	if err != nil {
		return TimelineView{}, s.fail("fetch timeline", err)
	}
	view := TimelineView{
		Window: window,
		Events: append([]model.TimelineEvent(nil), timeline.Events...),
		Total:  timeline.Total,
	}
	s.commit(func() {
		stored := view
		stored.Events = append([]model.TimelineEvent(nil), view.Events...)
		s.timeline = &stored
	})
	return view, nil
}

func (s *Store) SetEditing(id string) {
	s.set(func() { s.editingID = id })
}

func (s *Store) SetHistoryCardID(id string) {
	s.set(func() { s.historyCardID = id })
}

func (s *Store) SetPendingDelete(id string) {
	s.set(func() { s.pendingDeleteID = id })
}

func (s *Store) ClearHistory() {
	s.set(func() {
		s.history = nil
		s.historyCardID = ""
	})
}

func (s *Store) ClearError() {
	s.set(func() { s.lastError = "" })
}

// Reset drops all cards and UI state. Calls still in flight will commit into
// the empty store when they return.
func (s *Store) Reset() {
	s.set(func() {
		s.active = nil
		s.deleted = nil
		s.inFlight = 0
		s.lastError = ""
		s.editingID = ""
		s.historyCardID = ""
		s.pendingDeleteID = ""
		s.history = nil
		s.timeline = nil
	})
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

func (s *Store) Active() []model.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCards(s.active)
}

func (s *Store) Deleted() []model.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCards(s.deleted)
}

func (s *Store) Find(id string) (model.Card, Bucket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.active, id); i >= 0 {
		return model.CloneCard(s.active[i]), BucketActive, true
	}
	if i := indexOf(s.deleted, id); i >= 0 {
		return model.CloneCard(s.deleted[i]), BucketDeleted, true
	}
	return model.Card{}, BucketNone, false
}

func (s *Store) begin() {
	s.set(func() {
		s.inFlight++
		s.lastError = ""
	})
}

func (s *Store) commit(apply func()) {
	s.set(func() {
		apply()
		s.done()
	})
}

func (s *Store) fail(op string, err error) error {
	s.set(func() {
		s.lastError = err.Error()
		s.done()
	})
	s.logger.Warn("card store operation failed", "op", op, "error", err)
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Store) done() {
	if s.inFlight > 0 {
		s.inFlight--
	}
}

func (s *Store) set(apply func()) {
	s.mu.Lock()
	apply()
	state := s.snapshotLocked()
	s.mu.Unlock()
	if s.onChange != nil {
		s.onChange(state)
	}
}

func (s *Store) snapshotLocked() State {
	state := State{
		Active:          cloneCards(s.active),
		Deleted:         cloneCards(s.deleted),
		Loading:         s.inFlight > 0,
		LastError:       s.lastError,
		EditingID:       s.editingID,
		HistoryCardID:   s.historyCardID,
		PendingDeleteID: s.pendingDeleteID,
	}
	if s.history != nil {
		page := cloneHistoryPage(*s.history)
		state.History = &page
	}
	if s.timeline != nil {
		view := *s.timeline
		view.Events = append([]model.TimelineEvent(nil), s.timeline.Events...)
		state.Timeline = &view
	}
	return state
}

func validateText(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Message: "title must not be empty"}
	}
	if strings.TrimSpace(content) == "" {
		return &ValidationError{Field: "content", Message: "content must not be empty"}
	}
	return nil
}

// relocate moves the card with id from src to the front of dst, flipping its
// deleted flag. The card is looked up now, not when the call was issued.
func relocate(src, dst []model.Card, id string, deleted bool) ([]model.Card, []model.Card) {
	i := indexOf(src, id)
	if i < 0 {
		return src, dst
	}
	moved := model.CloneCard(src[i])
	moved.IsDeleted = deleted
	return withoutID(src, id), prepend(moved, withoutID(dst, id))
}

func indexOf(cards []model.Card, id string) int {
	for i := range cards {
		if cards[i].ID == id {
			return i
		}
	}
	return -1
}

func prepend(card model.Card, cards []model.Card) []model.Card {
	out := make([]model.Card, 0, len(cards)+1)
	out = append(out, model.CloneCard(card))
	return append(out, cards...)
}

func replaceByID(cards []model.Card, card model.Card) []model.Card {
	i := indexOf(cards, card.ID)
	if i < 0 {
		return cards
	}
	out := make([]model.Card, len(cards))
	copy(out, cards)
	out[i] = model.CloneCard(card)
	return out
}

func withoutID(cards []model.Card, id string) []model.Card {
	if indexOf(cards, id) < 0 {
		return cards
	}
	out := make([]model.Card, 0, len(cards))
	for _, card := range cards {
		if card.ID != id {
			out = append(out, card)
		}
	}
	return out
}

func withoutIDs(cards, drop []model.Card) []model.Card {
	for _, card := range drop {
		cards = withoutID(cards, card.ID)
	}
	return cards
}

func cloneCards(cards []model.Card) []model.Card {
	if cards == nil {
		return nil
	}
	out := make([]model.Card, len(cards))
	for i := range cards {
		out[i] = model.CloneCard(cards[i])
	}
	return out
}

func cloneHistoryPage(page model.HistoryPage) model.HistoryPage {
	page.History = append([]model.HistoryEntry(nil), page.History...)
	return page
}

func copyStyle(style *model.CardStyle) *model.CardStyle {
	if style == nil {
		return nil
	}
	out := *style
	return &out
}

func todosOrEmpty(todos []model.Todo) []model.Todo {
	if todos == nil {
		return []model.Todo{}
	}
	return model.CloneTodos(todos)
}

