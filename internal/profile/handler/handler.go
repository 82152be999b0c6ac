package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/markdevonuk/portal/internal/profile/models"
	id "github.com/markdevonuk/portal/pkg/domain"
	dErrors "github.com/markdevonuk/portal/pkg/domainerrors"
	"github.com/markdevonuk/portal/pkg/platform/httputil"
	"github.com/markdevonuk/portal/pkg/requestcontext"
)

// Service defines the profile lifecycle operations the handler exposes.
type Service interface {
	Create(ctx context.Context, seed models.SectionData) (*models.Profile, error)
	Get(ctx context.Context) (*models.Profile, error)
	UpdateSection(ctx context.Context, sec models.Section, data models.SectionData) error
	Submit(ctx context.Context, agreedToTerms bool) error
	GetFor(ctx context.Context, target id.UserID) (*models.Profile, error)
	Review(ctx context.Context, target id.UserID, decision models.Status, notes string) error
	Resubmit(ctx context.Context, amendment models.Resubmission) error
	ListByStatus(ctx context.Context, status models.Status) ([]models.Record, error)
}

// Handler wires profile endpoints to the lifecycle service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the self-service endpoints. Callers wrap the router in
// auth middleware; the service still rejects unbound actors on its own.
func (h *Handler) Register(r chi.Router) {
	r.Get("/profile", h.HandleGet)
	r.Post("/profile", h.HandleCreate)
	r.Put("/profile/sections/{section}", h.HandleUpdateSection)
	r.Post("/profile/submit", h.HandleSubmit)
	r.Post("/profile/resubmit", h.HandleResubmit)
}

// RegisterAdmin mounts the review console endpoints.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/profiles", h.HandleList)
	r.Get("/profiles/{userID}", h.HandleGetFor)
	r.Post("/profiles/{userID}/review", h.HandleReview)
}

func (h *Handler) HandleGetFor(w http.ResponseWriter, r *http.Request) {
	target, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	profile, err := h.service.GetFor(r.Context(), target)
	if err != nil {
		h.writeError(w, r, "get profile for review", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Get(r.Context())
	if err != nil {
		h.writeError(w, r, "get profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, GetProfileResponse{
		Exists:  profile != nil,
		Profile: profile,
	})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[CreateProfileRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	profile, err := h.service.Create(r.Context(), req.SectionData())
	if err != nil {
		h.writeError(w, r, "create profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, profile)
}

func (h *Handler) HandleUpdateSection(w http.ResponseWriter, r *http.Request) {
	sec, ok := models.ParseSection(chi.URLParam(r, "section"))
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unknown profile section"))
		return
	}

	data, err := decodeSection(r, sec)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.UpdateSection(r.Context(), sec, data); err != nil {
		h.writeError(w, r, "update section", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[SubmitRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Submit(r.Context(), req.AgreedToTerms); err != nil {
		h.writeError(w, r, "submit profile", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleResubmit(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[ResubmitRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Resubmit(r.Context(), req.Resubmission()); err != nil {
		h.writeError(w, r, "resubmit profile", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	status := models.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = models.StatusPending
	}

	records, err := h.service.ListByStatus(r.Context(), status)
	if err != nil {
		h.writeError(w, r, "list profiles", err)
		return
	}
	if records == nil {
		records = []models.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	target, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, err := httputil.Decode[ReviewRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Review(r.Context(), target, req.Status, req.Notes); err != nil {
		h.writeError(w, r, "review profile", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeSection(r *http.Request, sec models.Section) (models.SectionData, error) {
	var data models.SectionData
	var target any
	switch sec {
	case models.SectionPersonalDetails:
		data.PersonalDetails = &models.PersonalDetails{}
		target = data.PersonalDetails
	case models.SectionDriving:
		data.Driving = &models.DrivingDetails{}
		target = data.Driving
	case models.SectionMedicalQualifications:
		data.MedicalQualifications = &models.MedicalQualifications{}
		target = data.MedicalQualifications
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return models.SectionData{}, dErrors.New(dErrors.CodeInvalidInput, "request body must be valid JSON")
	}
	return data, nil
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, action string, err error) {
	h.logger.ErrorContext(r.Context(), "profile request failed",
		"action", action,
		"error", err,
		"request_id", requestcontext.RequestID(r.Context()),
	)
	httputil.WriteError(w, err)
}
