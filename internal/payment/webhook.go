package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "github.com/markdevonuk/portal/pkg/domainerrors"
	"github.com/markdevonuk/portal/pkg/platform/httputil"
	"github.com/markdevonuk/portal/pkg/platform/sentinel"
	"github.com/markdevonuk/portal/pkg/requestcontext"
)

const (
	// SignatureHeader carries the hex-encoded HMAC-SHA256 of the raw body.
	SignatureHeader = "X-Webhook-Signature"

	eventCheckoutCompleted = "checkout.completed"

	maxEventBody = 64 << 10
)

// Event is the provider's webhook envelope. Field names follow the
// provider's wire format, not ours.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	CustomerEmail string `json:"customer_email"`
}

// Handler receives provider events. Forged requests are rejected up front;
// once the signature checks out the provider always gets a 200, because a
// non-2xx makes it retry and the failure is ours to log and fix.
type Handler struct {
	applicants Store
	secret     []byte
	logger     *slog.Logger
}

func NewHandler(applicants Store, secret string, logger *slog.Logger) *Handler {
	return &Handler{applicants: applicants, secret: []byte(secret), logger: logger}
}

// Register mounts the webhook endpoint. No auth middleware: the signature is
// the authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/webhooks/payments", h.HandleEvent)
}

func (h *Handler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "failed to read request body"))
		return
	}

	if !h.verify(r.Header.Get(SignatureHeader), body) {
		h.logger.WarnContext(r.Context(), "payment webhook signature mismatch",
			"request_id", requestcontext.RequestID(r.Context()))
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "invalid webhook signature"))
		return
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		// Authenticated but malformed. Acknowledge so the provider does not
		// retry a body that will never parse.
		h.logger.ErrorContext(r.Context(), "payment webhook body did not parse", "error", err)
		h.ack(w)
		return
	}

	h.process(r, event)
	h.ack(w)
}

func (h *Handler) process(r *http.Request, event Event) {
	if event.Type != eventCheckoutCompleted {
		h.logger.DebugContext(r.Context(), "ignoring payment event", "type", event.Type)
		return
	}
	if event.Data.CustomerEmail == "" {
		h.logger.ErrorContext(r.Context(), "checkout event without customer email", "event_id", event.ID)
		return
	}

	err := h.applicants.MarkPaid(r.Context(), event.Data.CustomerEmail)
	switch {
	case err == nil:
		h.logger.InfoContext(r.Context(), "applicant marked paid", "event_id", event.ID)
	case errors.Is(err, sentinel.ErrInvalidState):
		// Retries of an already-processed event land here.
		h.logger.InfoContext(r.Context(), "checkout event already processed", "event_id", event.ID)
	default:
		h.logger.ErrorContext(r.Context(), "failed to mark applicant paid",
			"event_id", event.ID, "error", err)
	}
}

func (h *Handler) ack(w http.ResponseWriter) {
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *Handler) verify(signature string, body []byte) bool {
	if len(h.secret) == 0 || signature == "" {
		return false
	}
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}

// Sign computes the signature for a body. Shared with tests and local
// tooling that replays events.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
