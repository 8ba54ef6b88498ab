package training

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian/internal/platform/httpx"
	"github.com/meridian-erp/meridian/internal/rbac"
	"github.com/meridian-erp/meridian/internal/shared"
)

// Handler exposes the quiz endpoints.
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

// MountRoutes registers training routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermTrainingPlay))
		r.Get("/questions", h.questions)
		r.Post("/answers", h.submitAnswer)
		r.Get("/leaderboard", h.leaderboard)
	})
}

func (h *Handler) questions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.service.Questions(r.Context())
	if err != nil {
		h.logger.Error("list quiz questions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"questions": questions})
}

type answerBody struct {
	QuestionID int64  `json:"question_id" validate:"required,gt=0"`
	Answer     string `json:"answer" validate:"required,max=2000"`
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var body answerBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	userCode := ""
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		userCode = sess.User()
	}

	attempt, err := h.service.SubmitAnswer(r.Context(), body.QuestionID, userCode, body.Answer)
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusCreated, map[string]any{"attempt": attempt})
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrInactive):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unprocessable", "question is no longer active")
	default:
		h.logger.Error("submit quiz answer", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		h.logger.Error("quiz leaderboard", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"leaderboard": rows})
}
