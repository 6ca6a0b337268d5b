package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/simonjohansson/thoughtflow/internal/service"
)

func toHumaError(err error) error {
	code := service.CodeOf(err)
	msg := service.MessageOf(err)
	switch code {
	case service.CodeConflict:
		return huma.Error409Conflict(msg)
	case service.CodeNotFound:
		return huma.Error404NotFound(msg)
	case service.CodeValidation:
		return huma.Error400BadRequest(msg)
	default:
		return huma.Error500InternalServerError(msg)
	}
}
