package twofactor

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdevonuk/portal/internal/mail"
	id "github.com/markdevonuk/portal/pkg/domain"
	dErrors "github.com/markdevonuk/portal/pkg/domainerrors"
)

type capturingNotifier struct {
	messages []mail.Message
	fail     error
}

func (n *capturingNotifier) Enqueue(_ context.Context, msg mail.Message) error {
	if n.fail != nil {
		return n.fail
	}
	n.messages = append(n.messages, msg)
	return nil
}

type mapDirectory map[id.UserID]string

func (d mapDirectory) Email(_ context.Context, userID id.UserID) (string, error) {
	return d[userID], nil
}

func newService(notifier *capturingNotifier, directory mapDirectory) (*Service, *InMemorySecrets) {
	secrets := NewInMemorySecrets()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return New(secrets, directory, notifier, "Volunteer Portal", logger), secrets
}

func TestResetReplacesSecretAndMailsProvisioningURL(t *testing.T) {
	notifier := &capturingNotifier{}
	svc, secrets := newService(notifier, mapDirectory{"vol-1": "avery.archer@example.org"})

	require.NoError(t, svc.Reset(context.Background(), "vol-1"))

	secret, ok := secrets.Get("vol-1")
	require.True(t, ok)
	assert.NotEmpty(t, secret)

	require.Len(t, notifier.messages, 1)
	msg := notifier.messages[0]
	assert.Equal(t, "avery.archer@example.org", msg.To)
	assert.Contains(t, msg.Text, "otpauth://totp/")
	assert.Contains(t, msg.Text, "Volunteer%20Portal")
	assert.Contains(t, msg.Text, "Avery Archer")

	// A second reset mints a different secret.
	require.NoError(t, svc.Reset(context.Background(), "vol-1"))
	rotated, _ := secrets.Get("vol-1")
	assert.NotEqual(t, secret, rotated)
}

func TestResetFailsWithoutContactAddress(t *testing.T) {
	svc, secrets := newService(&capturingNotifier{}, mapDirectory{})

	err := svc.Reset(context.Background(), "vol-2")
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	_, ok := secrets.Get("vol-2")
	assert.False(t, ok)
}

func TestResetSurfacesQueueFailureAfterRotation(t *testing.T) {
	notifier := &capturingNotifier{fail: errors.New("queue full")}
	svc, secrets := newService(notifier, mapDirectory{"vol-3": "b@example.org"})

	err := svc.Reset(context.Background(), "vol-3")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	assert.True(t, strings.Contains(err.Error(), "reset mail"))

	// The rotation itself landed before the queue failed.
	_, ok := secrets.Get("vol-3")
	assert.True(t, ok)
}
