package payment

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec_test"

func newWebhookFixture(t *testing.T) (http.Handler, *InMemoryStore) {
	t.Helper()
	store := NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := NewHandler(store, webhookSecret, logger)

	r := chi.NewRouter()
	h.Register(r)
	return r, store
}

func postEvent(router http.Handler, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestWebhookRejectsBadSignatures(t *testing.T) {
	router, _ := newWebhookFixture(t)
	body := []byte(`{"type":"checkout.completed"}`)

	assert.Equal(t, http.StatusUnauthorized, postEvent(router, body, "").Code)
	assert.Equal(t, http.StatusUnauthorized, postEvent(router, body, "not-hex").Code)
	assert.Equal(t, http.StatusUnauthorized, postEvent(router, body, Sign("wrong-secret", body)).Code)
}

func TestWebhookMarksApplicantPaid(t *testing.T) {
	router, store := newWebhookFixture(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, NewApplicant("Casey.Cole@Example.org")))

	body := []byte(`{"id":"evt_1","type":"checkout.completed","data":{"customer_email":"casey.cole@example.org"}}`)
	rec := postEvent(router, body, Sign(webhookSecret, body))
	require.Equal(t, http.StatusOK, rec.Code)

	applicant, err := store.Find(ctx, "casey.cole@example.org")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, applicant.Status)

	// A provider retry of the same event is acknowledged without error.
	rec = postEvent(router, body, Sign(webhookSecret, body))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookAcksInternalFailures(t *testing.T) {
	router, _ := newWebhookFixture(t)

	// Unknown applicant: processing fails, the provider still gets a 200.
	body := []byte(`{"id":"evt_2","type":"checkout.completed","data":{"customer_email":"nobody@example.org"}}`)
	assert.Equal(t, http.StatusOK, postEvent(router, body, Sign(webhookSecret, body)).Code)

	// Irrelevant event types are acknowledged and ignored.
	body = []byte(`{"id":"evt_3","type":"invoice.created"}`)
	assert.Equal(t, http.StatusOK, postEvent(router, body, Sign(webhookSecret, body)).Code)

	// Malformed but correctly signed bodies are acknowledged too.
	body = []byte(`{"type":`)
	assert.Equal(t, http.StatusOK, postEvent(router, body, Sign(webhookSecret, body)).Code)
}
