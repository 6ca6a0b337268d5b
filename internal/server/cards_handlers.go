package server

import (
	"context"

	"github.com/simonjohansson/thoughtflow/internal/model"
)

type createCardRequest struct {
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	CardStyle *model.CardStyle `json:"card_style,omitempty"`
}

type createCardInput struct {
	Body createCardRequest
}

type cardOutput struct {
	Body model.Card
}

func (s *Server) createCard(_ context.Context, input *createCardInput) (*cardOutput, error) {
	card, err := s.service.CreateCard(model.CreateCardRequest{
		Title:   input.Body.Title,
		Content: input.Body.Content,
		Style:   input.Body.CardStyle,
	})
	if err != nil {
		return nil, toHumaError(err)
	}
	return &cardOutput{Body: card}, nil
}

type cardListOutput struct {
	Body model.CardList
}

func (s *Server) listActiveCards(_ context.Context, _ *struct{}) (*cardListOutput, error) {
	list, err := s.service.ListActiveCards()
	if err != nil {
		return nil, toHumaError(err)
	}
	return &cardListOutput{Body: list}, nil
}

func (s *Server) listDeletedCards(_ context.Context, _ *struct{}) (*cardListOutput, error) {
	list, err := s.service.ListDeletedCards()
	if err != nil {
		return nil, toHumaError(err)
	}
	return &cardListOutput{Body: list}, nil
}

type cardPathInput struct {
	ID string `path:"id"`
}

func (s *Server) getCard(_ context.Context, input *cardPathInput) (*cardOutput, error) {
	card, err := s.service.GetCard(input.ID)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &cardOutput{Body: card}, nil
}

type updateCardRequest struct {
	Title        string           `json:"title"`
	Content      string           `json:"content"`
	CardStyle    *model.CardStyle `json:"card_style,omitempty"`
	Todos        []model.Todo     `json:"todos,omitempty"`
	OldTitle     string           `json:"old_title,omitempty"`
	OldContent   string           `json:"old_content,omitempty"`
	OldCardStyle *model.CardStyle `json:"old_card_style,omitempty"`
	OldTodos     []model.Todo     `json:"old_todos,omitempty"`
	Operator     string           `json:"operator,omitempty"`
	EditNote     string           `json:"edit_note,omitempty"`
}

type updateCardInput struct {
	ID   string `path:"id"`
	Body updateCardRequest
}

func (s *Server) updateCard(_ context.Context, input *updateCardInput) (*cardOutput, error) {
	body := input.Body
	card, err := s.service.UpdateCard(input.ID, model.UpdateCardRequest{
		Title:      body.Title,
		Content:    body.Content,
		Style:      body.CardStyle,
		Todos:      body.Todos,
		OldTitle:   body.OldTitle,
		OldContent: body.OldContent,
		OldStyle:   body.OldCardStyle,
		OldTodos:   body.OldTodos,
		Operator:   body.Operator,
		Note:       body.EditNote,
	})
	if err != nil {
		return nil, toHumaError(err)
	}
	return &cardOutput{Body: card}, nil
}

type messageOutput struct {
	Body model.MessageResponse
}

func (s *Server) softDeleteCard(_ context.Context, input *cardPathInput) (*messageOutput, error) {
	msg, err := s.service.SoftDeleteCard(input.ID)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &messageOutput{Body: msg}, nil
}

func (s *Server) recoverCard(_ context.Context, input *cardPathInput) (*messageOutput, error) {
	msg, err := s.service.RecoverCard(input.ID)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &messageOutput{Body: msg}, nil
}

type historyOutput struct {
	Body model.HistoryPage
}

func (s *Server) cardHistory(_ context.Context, input *cardPathInput) (*historyOutput, error) {
	page, err := s.service.History(input.ID)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &historyOutput{Body: page}, nil
}
