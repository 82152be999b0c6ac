package twofactor

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "github.com/markdevonuk/portal/pkg/domain"
	"github.com/markdevonuk/portal/pkg/platform/httputil"
	"github.com/markdevonuk/portal/pkg/requestcontext"
)

// Handler exposes the admin reset endpoint.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdmin mounts the reset endpoint on the admin console router.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/users/{userID}/twofactor/reset", h.HandleReset)
}

func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Reset(r.Context(), userID); err != nil {
		h.logger.ErrorContext(r.Context(), "twofactor reset failed",
			"target_user_id", userID,
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
