// Package httpapi is the REST transport: chi routes guarded by the access
// gate, JSON bodies, and error envelopes from apierrors.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/access"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/registry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

const defaultMaxUploadBytes = 10 << 20

type Authorizer interface {
	Evaluate(ctx context.Context, header string, tier access.Tier) access.Decision
}

type UserService interface {
	Register(ctx context.Context, login, password string) (string, error)
	Login(ctx context.Context, login, password string) (string, error)
	SetRole(ctx context.Context, id int64, role models.Role) error
}

type FileRegistry interface {
	Create(ctx context.Context, owner *models.OwnerRef, data []byte) (*models.StoredFile, error)
	GetByID(ctx context.Context, id int64) (*models.StoredFile, error)
	List(ctx context.Context) ([]*models.StoredFile, error)
}

type Sweeper interface {
	RunOnce(ctx context.Context) (*registry.SweepResult, error)
	Sweep(ctx context.Context, retention time.Duration) (*registry.SweepResult, error)
}

type TextBlockService interface {
	Create(ctx context.Context, block *models.TextBlock, image []byte) (*models.TextBlock, error)
	Update(ctx context.Context, block *models.TextBlock, image []byte) (*models.TextBlock, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.TextBlock, error)
	List(ctx context.Context) ([]*models.TextBlock, error)
	ListByGroup(ctx context.Context, group string) ([]*models.TextBlock, error)
}

type Config struct {
	RequestTimeout time.Duration
	CORSOrigins    []string
	MaxUploadBytes int64
}

type Deps struct {
	Gate    Authorizer
	Users   UserService
	Files   FileRegistry
	Sweeper Sweeper
	Blocks  TextBlockService

	// Registerer receives the HTTP metrics; Gatherer backs /metrics.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Logger     logging.Logger
}

type handler struct {
	users     UserService
	files     FileRegistry
	sweeper   Sweeper
	blocks    TextBlockService
	logger    logging.Logger
	maxUpload int64
}

// NewRouter builds the HTTP handler with all routes and middleware.
func NewRouter(cfg Config, deps Deps) http.Handler {
	logger := deps.Logger.With("module", "httpapi")

	h := &handler{
		users:     deps.Users,
		files:     deps.Files,
		sweeper:   deps.Sweeper,
		blocks:    deps.Blocks,
		logger:    logger,
		maxUpload: cfg.MaxUploadBytes,
	}
	if h.maxUpload <= 0 {
		h.maxUpload = defaultMaxUploadBytes
	}

	metrics := newHTTPMetrics(deps.Registerer)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(metrics.middleware)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(requestTimeout(cfg.RequestTimeout))

	r.Get("/health", h.health)
	r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.login)
		r.Post("/auth/registration", h.register)

		r.Group(func(r chi.Router) {
			r.Use(requireTier(deps.Gate, access.TierAuthenticated))
			r.Get("/file", h.listFiles)
			r.Get("/file/{id}", h.getFile)
			r.Post("/file", h.uploadFile)
			r.Get("/block", h.listBlocks)
			r.Get("/block/{id}", h.getBlock)
			r.Get("/block/group/{group}", h.listBlocksByGroup)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireTier(deps.Gate, access.TierAdmin))
			r.Delete("/file", h.sweep)
			r.Post("/block", h.createBlock)
			r.Put("/block", h.updateBlock)
			r.Delete("/block/{id}", h.deleteBlock)
			r.Put("/user/{id}/role", h.setRole)
		})
	})

	if len(cfg.CORSOrigins) == 0 {
		return r
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
