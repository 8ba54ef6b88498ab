package planner

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian/internal/platform/httpx"
	"github.com/meridian-erp/meridian/internal/rbac"
	"github.com/meridian-erp/meridian/internal/shared"
)

// Handler exposes the delivery board endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbac     rbac.Middleware
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW, validate: validator.New()}
}

// MountRoutes registers planner routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermPlannerView))
		r.Get("/board/grouped", h.groupedBoard)
		r.Get("/board/ungrouped", h.ungroupedBoard)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermPlannerRetag))
		r.Post("/retag", h.retag)
	})
}

func (h *Handler) groupedBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.GroupedBoard(r.Context())
	if err != nil {
		h.logger.Error("grouped delivery board", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, board)
}

func (h *Handler) ungroupedBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.UngroupedBoard(r.Context())
	if err != nil {
		h.logger.Error("ungrouped delivery board", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, board)
}

type retagBody struct {
	Scope        string `json:"scope" validate:"required,oneof=VOUCHER CUSTOMER"`
	VoucherNo    string `json:"voucher_no" validate:"max=32"`
	CustomerCode string `json:"customer_code" validate:"max=32"`
	PlannedDay   string `json:"planned_day" validate:"required,max=16"`
}

func (h *Handler) retag(w http.ResponseWriter, r *http.Request) {
	var body retagBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor := ""
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		actor = sess.User()
	}

	affected, err := h.service.Retag(r.Context(), RetagInput{
		Scope:        RetagScope(body.Scope),
		VoucherNo:    body.VoucherNo,
		CustomerCode: body.CustomerCode,
		PlannedDay:   body.PlannedDay,
		Actor:        actor,
	})
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, map[string]any{"affected": affected, "planned_day": body.PlannedDay})
	case errors.Is(err, ErrInvalidRetag):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	default:
		h.logger.Error("retag delivery", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
