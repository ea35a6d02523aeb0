// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Shivanand-hulikatti/seminar-registrations/internal/model"
	"github.com/Shivanand-hulikatti/seminar-registrations/internal/repository"
	"github.com/Shivanand-hulikatti/seminar-registrations/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// RegistrationService is what the handlers need from the service layer.
type RegistrationService interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.Registration, error)
	ConvertToRegular(ctx context.Context, ref string) (*model.Registration, error)
	MoveToWaitingList(ctx context.Context, ref string) (*model.Registration, error)
	Statistics(ctx context.Context, eventUID int64) (model.Bookable, model.EventStatistics, error)
	ListRegistrations(ctx context.Context, eventUID int64) ([]*model.Registration, error)
}

// RegistrationHandler holds the HTTP handlers of the registration API.
type RegistrationHandler struct {
	svc      RegistrationService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(svc RegistrationService, logger *slog.Logger) *RegistrationHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RegistrationHandler{svc: svc, validate: validator.New(), logger: logger}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg, Code: code})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (h *RegistrationHandler) writeValidationError(w http.ResponseWriter, err error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
		Error:  "validation failed",
		Code:   "validation_failed",
		Fields: fields,
	})
}

// writeServiceError maps domain errors to status codes. Anything unknown is
// logged and reported as 500.
func (h *RegistrationHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, repository.ErrInvalidReference):
		writeError(w, http.StatusBadRequest, "invalid_reference", "invalid registration reference")
	case errors.Is(err, repository.ErrNotBookable):
		writeError(w, http.StatusUnprocessableEntity, "not_bookable", "event cannot be registered for")
	case errors.Is(err, service.ErrEventFull):
		writeError(w, http.StatusConflict, "event_full", err.Error())
	case errors.Is(err, service.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, "already_registered", err.Error())
	case errors.Is(err, service.ErrRegistrationClosed):
		writeError(w, http.StatusConflict, "registration_closed", err.Error())
	case errors.Is(err, service.ErrEventMissing):
		writeError(w, http.StatusConflict, "event_missing", err.Error())
	case errors.Is(err, service.ErrTermsNotAccepted):
		writeError(w, http.StatusUnprocessableEntity, "terms_not_accepted", err.Error())
	case errors.Is(err, service.ErrInvalidUser):
		writeError(w, http.StatusBadRequest, "invalid_user", err.Error())
	case errors.Is(err, model.ErrInvalidSeats):
		writeError(w, http.StatusBadRequest, "invalid_seats", err.Error())
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func eventUIDParam(r *http.Request) (int64, bool) {
	uid, err := strconv.ParseInt(chi.URLParam(r, "uid"), 10, 64)
	if err != nil || uid <= 0 {
		return 0, false
	}
	return uid, true
}

// Statistics handles GET /events/{uid}/statistics.
func (h *RegistrationHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	uid, ok := eventUIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_event_uid", "invalid event uid")
		return
	}

	event, stats, err := h.svc.Statistics(r.Context(), uid)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatisticsResponse(event, stats))
}

// ListRegistrations handles GET /events/{uid}/registrations.
func (h *RegistrationHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	uid, ok := eventUIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_event_uid", "invalid event uid")
		return
	}

	regs, err := h.svc.ListRegistrations(r.Context(), uid)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	// Empty array rather than null.
	out := make([]RegistrationResponse, 0, len(regs))
	for _, reg := range regs {
		out = append(out, newRegistrationResponse(reg))
	}
	writeJSON(w, http.StatusOK, out)
}

// Register handles POST /events/{uid}/registrations.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	uid, ok := eventUIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_event_uid", "invalid event uid")
		return
	}

	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	reg, err := h.svc.Register(r.Context(), req.input(uid))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newRegistrationResponse(reg))
}

// ConvertToRegular handles POST /registrations/{ref}/regular.
func (h *RegistrationHandler) ConvertToRegular(w http.ResponseWriter, r *http.Request) {
	reg, err := h.svc.ConvertToRegular(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRegistrationResponse(reg))
}

// MoveToWaitingList handles POST /registrations/{ref}/waiting-list.
func (h *RegistrationHandler) MoveToWaitingList(w http.ResponseWriter, r *http.Request) {
	reg, err := h.svc.MoveToWaitingList(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRegistrationResponse(reg))
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
