package budget

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian/internal/platform/httpx"
	"github.com/meridian-erp/meridian/internal/rbac"
	"github.com/meridian-erp/meridian/internal/shared"
)

// Handler exposes the budget ledger endpoints.
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

// MountRoutes registers budget routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermBudgetView))
		r.Get("/requests", h.listRequests)
		r.Get("/requests/{id}", h.getRequest)
		r.Get("/remaining/{costCenter}", h.remaining)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermBudgetRequest))
		r.Post("/requests", h.createRequest)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermBudgetApprove))
		r.Post("/requests/{id}/approve", h.approveRequest)
		r.Post("/requests/{id}/reject", h.rejectRequest)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermBudgetPay))
		r.Post("/requests/{id}/pay", h.payRequest)
	})
}

func currentUser(r *http.Request) string {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		return sess.User()
	}
	return ""
}

type createRequestBody struct {
	CostCenterCode string `json:"cost_center_code" validate:"required,max=32"`
	Amount         string `json:"amount" validate:"required"`
	Purpose        string `json:"purpose" validate:"required,max=500"`
}

func (h *Handler) createRequest(w http.ResponseWriter, r *http.Request) {
	var body createRequestBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "amount must be a decimal number")
		return
	}

	req, gate, err := h.service.CreateRequest(r.Context(), CreateRequestInput{
		CostCenterCode: body.CostCenterCode,
		Amount:         amount,
		Purpose:        body.Purpose,
		RequestedBy:    currentUser(r),
	})
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusCreated, map[string]any{"request": req, "gate": gate})
	case errors.Is(err, ErrBlocked):
		httpx.JSON(w, http.StatusUnprocessableEntity, map[string]any{"gate": gate})
	case errors.Is(err, ErrInvalidAmount):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	default:
		h.logger.Error("create expense request", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func (h *Handler) approveRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request id")
		return
	}
	req, gate, err := h.service.Approve(r.Context(), id, currentUser(r))
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, map[string]any{"request": req, "gate": gate})
	case errors.Is(err, ErrBlocked):
		httpx.JSON(w, http.StatusUnprocessableEntity, map[string]any{"gate": gate})
	case errors.Is(err, shared.ErrStateConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", shared.UserSafeMessage(err))
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	default:
		h.logger.Error("approve expense request", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

type rejectRequestBody struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (h *Handler) rejectRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request id")
		return
	}
	var body rejectRequestBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	req, err := h.service.Reject(r.Context(), id, currentUser(r), body.Reason)
	h.respondTransition(w, req, err, "reject expense request")
}

func (h *Handler) payRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request id")
		return
	}
	req, err := h.service.MarkPaid(r.Context(), id, currentUser(r))
	h.respondTransition(w, req, err, "pay expense request")
}

func (h *Handler) respondTransition(w http.ResponseWriter, req *ExpenseRequest, err error, logMsg string) {
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, map[string]any{"request": req})
	case errors.Is(err, shared.ErrStateConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", shared.UserSafeMessage(err))
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	default:
		h.logger.Error(logMsg, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	status := RequestStatus(r.URL.Query().Get("status"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pagination := shared.NewPagination(page, 50, 0)

	requests, total, err := h.service.List(r.Context(), status, pagination.PerPage, pagination.Offset())
	if err != nil {
		h.logger.Error("list expense requests", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"requests":   requests,
		"pagination": shared.NewPagination(page, pagination.PerPage, total),
	})
}

func (h *Handler) getRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request id")
		return
	}
	req, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"request": req})
}

func (h *Handler) remaining(w http.ResponseWriter, r *http.Request) {
	figures, err := h.service.CheckRemaining(r.Context(), chi.URLParam(r, "costCenter"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("budget remaining", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"figures":         figures,
		"month_remaining": figures.MonthPlan.Sub(figures.MonthActual),
		"ytd_remaining":   figures.YTDPlan.Sub(figures.YTDActual),
	})
}
