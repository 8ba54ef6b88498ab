package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-erp/meridian/internal/approval"
	"github.com/meridian-erp/meridian/internal/auth"
	"github.com/meridian-erp/meridian/internal/budget"
	"github.com/meridian-erp/meridian/internal/chatbot"
	"github.com/meridian-erp/meridian/internal/observability"
	"github.com/meridian-erp/meridian/internal/planner"
	"github.com/meridian-erp/meridian/internal/reports"
	"github.com/meridian-erp/meridian/internal/shared"
	"github.com/meridian-erp/meridian/internal/training"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	SessionManager  *shared.SessionManager
	AuthHandler     *auth.Handler
	ApprovalHandler *approval.Handler
	BudgetHandler   *budget.Handler
	PlannerHandler  *planner.Handler
	ReportsHandler  *reports.Handler
	ChatbotHandler  *chatbot.Handler
	TrainingHandler *training.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with portal defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.ApprovalHandler != nil {
		r.Route("/approvals", params.ApprovalHandler.MountRoutes)
	}
	if params.BudgetHandler != nil {
		r.Route("/budget", params.BudgetHandler.MountRoutes)
	}
	if params.PlannerHandler != nil {
		r.Route("/planner", params.PlannerHandler.MountRoutes)
	}
	if params.ReportsHandler != nil {
		r.Route("/reports", params.ReportsHandler.MountRoutes)
	}
	if params.ChatbotHandler != nil {
		r.Route("/chatbot", params.ChatbotHandler.MountRoutes)
	}
	if params.TrainingHandler != nil {
		r.Route("/training", params.TrainingHandler.MountRoutes)
	}

	return r
}
