package common

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/simonjohansson/thoughtflow/internal/cardstore"
	"github.com/simonjohansson/thoughtflow/internal/gateway"
	"github.com/simonjohansson/thoughtflow/internal/model"
)

const RequestTimeout = 15 * time.Second

type Runtime interface {
	ServerURL() string
	Output() string
	Operator() string
	Logger() *slog.Logger
}

// RenderFunc prints a command result in the selected output format.
type RenderFunc func(output string, stdout io.Writer, value any) error

// WrapErrorFunc converts a store or transport failure into the CLI's error type.
type WrapErrorFunc func(err error) error

func NewStore(runtime Runtime) (*cardstore.Store, error) {
	client, err := gateway.New(runtime.ServerURL())
	if err != nil {
		return nil, err
	}
	return cardstore.New(client, cardstore.Options{
		Logger:   runtime.Logger(),
		Operator: runtime.Operator(),
	}), nil
}

func Context(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, RequestTimeout)
}

// ParseStyle maps a 1-based preset number to a card style. Zero means unset.
func ParseStyle(preset int) (*model.CardStyle, error) {
	if preset == 0 {
		return nil, nil
	}
	if preset < 1 || preset > len(model.PresetCardStyles) {
		return nil, fmt.Errorf("--style must be between 1 and %d", len(model.PresetCardStyles))
	}
	style := model.PresetCardStyles[preset-1]
	return &style, nil
}

// Document is preformatted text. Text output prints Body verbatim.
type Document struct {
	Name string `json:"name"`
	Body string `json:"body"`
}
