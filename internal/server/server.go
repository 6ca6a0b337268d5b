package server

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/simonjohansson/thoughtflow/internal/service"
	"github.com/simonjohansson/thoughtflow/internal/store"
)

type Options struct {
	DataDir    string
	SQLitePath string
	Logger     *slog.Logger
}

type Server struct {
	service    *service.Service
	projection *store.SQLiteProjection
	hub        *hub
	logger     *slog.Logger
	router     *chi.Mux
	api        huma.API
}

func New(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	markdownStore, err := store.NewMarkdownStore(opts.DataDir)
	if err != nil {
		return nil, err
	}
	projection, err := store.NewSQLiteProjection(opts.SQLitePath)
	if err != nil {
		return nil, err
	}

	h := newHub(logger)
	router := chi.NewRouter()
	s := &Server{
		service:    service.New(markdownStore, projection, h, logger),
		projection: projection,
		hub:        h,
		logger:     logger,
		router:     router,
	}

	// Markdown is authoritative; the projection may be stale or missing.
	if _, err := s.service.RebuildProjection(); err != nil {
		s.logger.Warn("startup projection rebuild failed", "error", err)
	}

	s.routes()
	s.logger.Info("server initialized", "data_dir", opts.DataDir, "sqlite_path", opts.SQLitePath)
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.api.OpenAPI()
}

func (s *Server) Close() error {
	s.hub.Close()
	return s.projection.Close()
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(middleware.Recoverer)

	config := huma.DefaultConfig("ThoughtFlow API", "1.0.0")
	config.OpenAPIPath = "/openapi"
	config.DocsPath = ""

	s.api = humachi.New(s.router, config)
	s.registerOperations()
	s.registerWebSocketOperationDocs()

	// Websocket upgrade endpoint remains a native HTTP handler.
	s.router.Get("/ws", s.hub.ServeWS)
}

func (s *Server) registerOperations() {
	huma.Get(s.api, "/health", s.health)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createCard",
		Method:        http.MethodPost,
		Path:          "/api/idea-card",
		DefaultStatus: http.StatusCreated,
		Summary:       "Create idea card",
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, s.createCard)

	huma.Register(s.api, huma.Operation{
		OperationID: "listActiveCards",
		Method:      http.MethodGet,
		Path:        "/api/idea-cards",
		Summary:     "List active idea cards",
		Errors:      []int{http.StatusInternalServerError},
	}, s.listActiveCards)

	huma.Register(s.api, huma.Operation{
		OperationID: "listDeletedCards",
		Method:      http.MethodGet,
		Path:        "/api/idea-cards/deleted",
		Summary:     "List soft-deleted idea cards",
		Errors:      []int{http.StatusInternalServerError},
	}, s.listDeletedCards)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCard",
		Method:      http.MethodGet,
		Path:        "/api/idea-card/{id}",
		Summary:     "Get idea card",
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, s.getCard)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCard",
		Method:      http.MethodPut,
		Path:        "/api/idea-card/{id}",
		Summary:     "Update idea card",
		Description: "Applies the new values and records the difference from the supplied old values as one history entry.",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError},
	}, s.updateCard)

	huma.Register(s.api, huma.Operation{
		OperationID: "softDeleteCard",
		Method:      http.MethodPatch,
		Path:        "/api/idea-card/{id}/delete",
		Summary:     "Soft delete idea card",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError},
	}, s.softDeleteCard)

	huma.Register(s.api, huma.Operation{
		OperationID: "recoverCard",
		Method:      http.MethodPatch,
		Path:        "/api/idea-card/{id}/recover",
		Summary:     "Recover soft-deleted idea card",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError},
	}, s.recoverCard)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCardHistory",
		Method:      http.MethodGet,
		Path:        "/api/idea-card/{id}/history",
		Summary:     "Get idea card edit history",
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, s.cardHistory)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTimeline",
		Method:      http.MethodGet,
		Path:        "/api/timeline",
		Summary:     "Activity timeline across all cards",
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, s.timeline)

	huma.Register(s.api, huma.Operation{
		OperationID: "rebuildProjection",
		Method:      http.MethodPost,
		Path:        "/admin/rebuild",
		Summary:     "Rebuild SQLite projection from markdown",
		Errors:      []int{http.StatusInternalServerError},
	}, s.rebuildProjection)
}

func (s *Server) registerWebSocketOperationDocs() {
	oapi := s.api.OpenAPI()
	if oapi.Paths == nil {
		oapi.Paths = map[string]*huma.PathItem{}
	}
	oapi.Paths["/ws"] = &huma.PathItem{
		Get: &huma.Operation{
			OperationID: "websocketEvents",
			Summary:     "Websocket event stream",
			Description: "Subscribe to card events. Optional card query param filters by card id.",
			Responses: map[string]*huma.Response{
				"101": {Description: "Switching protocols to websocket"},
			},
		},
	}
}
