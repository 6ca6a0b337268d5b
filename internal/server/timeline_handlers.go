package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/simonjohansson/thoughtflow/internal/model"
)

// Offset-less timestamps are read as UTC.
var timeParamLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

type timelineInput struct {
	StartTime string `query:"start_time" doc:"Inclusive lower bound (RFC 3339)"`
	EndTime   string `query:"end_time" doc:"Inclusive upper bound (RFC 3339)"`
}

type timelineOutput struct {
	Body model.Timeline
}

func (s *Server) timeline(_ context.Context, input *timelineInput) (*timelineOutput, error) {
	start, err := parseTimeParam("start_time", input.StartTime)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	end, err := parseTimeParam("end_time", input.EndTime)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	timeline, err := s.service.Timeline(model.TimeWindow{Start: start, End: end})
	if err != nil {
		return nil, toHumaError(err)
	}
	return &timelineOutput{Body: timeline}, nil
}

func parseTimeParam(name, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range timeParamLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid %s %q: expected an RFC 3339 timestamp", name, raw)
}
