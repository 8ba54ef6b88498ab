package approval

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian/internal/platform/httpx"
	"github.com/meridian-erp/meridian/internal/rbac"
	"github.com/meridian-erp/meridian/internal/shared"
)

// Handler exposes the approval endpoints.
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

// MountRoutes registers approval routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermApprovalView))
		r.Get("/{kind}/{voucherNo}/evaluate", h.evaluate)
		r.Get("/{voucherNo}/history", h.history)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermApprovalApprove))
		r.Post("/{kind}/{voucherNo}/approve", h.approve)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermApprovalApprove, shared.PermApprovalOverride))
		r.Post("/{kind}/{voucherNo}/override", h.override)
	})
}

func kindFromParam(raw string) (VoucherKind, bool) {
	switch strings.ToLower(raw) {
	case "quotation", "quotations":
		return KindQuotation, true
	case "order", "orders", "sales-order", "sales-orders":
		return KindSalesOrder, true
	default:
		return "", false
	}
}

func actingUser(r *http.Request) string {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		return sess.User()
	}
	return ""
}

type evaluateResponse struct {
	Decision Decision `json:"decision"`
	Voucher  struct {
		VoucherNo     string `json:"voucher_no"`
		VoucherType   string `json:"voucher_type"`
		CustomerCode  string `json:"customer_code"`
		CustomerClass string `json:"customer_class"`
		Salesperson   string `json:"salesperson"`
	} `json:"voucher"`
}

func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindFromParam(chi.URLParam(r, "kind"))
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown voucher kind")
		return
	}
	voucherNo := chi.URLParam(r, "voucherNo")

	decision, facts, err := h.service.Evaluate(r.Context(), kind, voucherNo, actingUser(r))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("evaluate voucher", slog.String("voucher", voucherNo), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	decision.ApprovalRatio = DisplayRatio(decision.ApprovalRatio)
	resp := evaluateResponse{Decision: decision}
	resp.Voucher.VoucherNo = facts.VoucherNo
	resp.Voucher.VoucherType = facts.VoucherType
	resp.Voucher.CustomerCode = facts.CustomerCode
	resp.Voucher.CustomerClass = facts.CustomerClass
	resp.Voucher.Salesperson = facts.Salesperson
	httpx.JSON(w, http.StatusOK, resp)
}

type approveRequest struct {
	Note string `json:"note" validate:"max=500"`
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.handleApprove(w, r, false)
}

func (h *Handler) override(w http.ResponseWriter, r *http.Request) {
	h.handleApprove(w, r, true)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request, allowOverride bool) {
	kind, ok := kindFromParam(chi.URLParam(r, "kind"))
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown voucher kind")
		return
	}
	voucherNo := chi.URLParam(r, "voucherNo")

	var req approveRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
			return
		}
		if err := h.validate.Struct(req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
	}

	decision, err := h.service.Approve(r.Context(), kind, voucherNo, actingUser(r), allowOverride, req.Note)
	decision.ApprovalRatio = DisplayRatio(decision.ApprovalRatio)
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, decision)
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, shared.ErrStateConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", shared.UserSafeMessage(err))
	case decision.State == StateFailed || decision.State == StatePending:
		// Business refusal: surface the decision, not a server error.
		httpx.JSON(w, http.StatusUnprocessableEntity, decision)
	default:
		h.logger.Error("approve voucher", slog.String("voucher", voucherNo), slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.History(r.Context(), chi.URLParam(r, "voucherNo"))
	if err != nil {
		h.logger.Error("approval history", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}
