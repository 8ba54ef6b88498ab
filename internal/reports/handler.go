package reports

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian/internal/platform/httpx"
	"github.com/meridian-erp/meridian/internal/rbac"
	"github.com/meridian-erp/meridian/internal/shared"
)

// Handler exposes the report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermReportsView))
		r.Get("/kpi", h.kpi)
		r.Get("/sales", h.sales)
		r.Get("/aging/ar", h.arAging)
		r.Get("/aging/ap", h.apAging)
		r.Get("/inventory-aging", h.inventoryAging)
		r.Get("/otif", h.otif)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermReportsView, shared.PermReportsExport))
		r.Get("/aging/ar/export", h.exportARAging)
		r.Get("/aging/ap/export", h.exportAPAging)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermReportsRefresh))
		r.Post("/refresh", h.refresh)
	})
}

func asOfParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", raw)
}

func (h *Handler) kpi(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.KPI(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		h.logger.Error("kpi report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) sales(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.SalesSummary(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		h.logger.Error("sales summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (h *Handler) arAging(w http.ResponseWriter, r *http.Request) {
	h.aging(w, r, h.service.ARAging)
}

func (h *Handler) apAging(w http.ResponseWriter, r *http.Request) {
	h.aging(w, r, h.service.APAging)
}

func (h *Handler) aging(w http.ResponseWriter, r *http.Request,
	load func(context.Context, time.Time) ([]AgingRow, error)) {
	asOf, err := asOfParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "as_of must be YYYY-MM-DD")
		return
	}
	rows, err := load(r.Context(), asOf)
	if err != nil {
		h.logger.Error("aging report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": rows, "total": TotalOutstanding(rows)})
}

func (h *Handler) inventoryAging(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "as_of must be YYYY-MM-DD")
		return
	}
	rows, err := h.service.InventoryAging(r.Context(), asOf)
	if err != nil {
		h.logger.Error("inventory aging", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (h *Handler) otif(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.OTIF(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		h.logger.Error("otif report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) exportARAging(w http.ResponseWriter, r *http.Request) {
	h.exportAging(w, r, "AR Aging", h.service.ARAging)
}

func (h *Handler) exportAPAging(w http.ResponseWriter, r *http.Request) {
	h.exportAging(w, r, "AP Aging", h.service.APAging)
}

func (h *Handler) exportAging(w http.ResponseWriter, r *http.Request, sheet string,
	load func(context.Context, time.Time) ([]AgingRow, error)) {
	asOf, err := asOfParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "as_of must be YYYY-MM-DD")
		return
	}
	rows, err := load(r.Context(), asOf)
	if err != nil {
		h.logger.Error("export aging", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := WriteAgingXLSX(&buf, sheet, rows); err != nil {
		h.logger.Error("write aging workbook", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	filename := strings.ToLower(strings.ReplaceAll(sheet, " ", "_"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Refresh(r.Context()); err != nil {
		h.logger.Error("refresh reports", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"refreshed": true})
}
