// Package twofactor handles admin-triggered TOTP resets for locked-out
// volunteers. It mints a fresh secret, replaces the stored one, and mails
// the provisioning URL; code verification itself lives with the identity
// provider.
package twofactor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pquerna/otp/totp"

	"github.com/markdevonuk/portal/internal/mail"
	id "github.com/markdevonuk/portal/pkg/domain"
	dErrors "github.com/markdevonuk/portal/pkg/domainerrors"
	"github.com/markdevonuk/portal/pkg/email"
	"github.com/markdevonuk/portal/pkg/requestcontext"
)

// Notifier enqueues the reset mail. Producers never wait for delivery.
type Notifier interface {
	Enqueue(ctx context.Context, msg mail.Message) error
}

// Directory resolves a volunteer's contact address.
type Directory interface {
	Email(ctx context.Context, userID id.UserID) (string, error)
}

// Service mints and stores TOTP secrets.
type Service struct {
	secrets   SecretStore
	directory Directory
	notifier  Notifier
	issuer    string
	logger    *slog.Logger
}

func New(secrets SecretStore, directory Directory, notifier Notifier, issuer string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		secrets:   secrets,
		directory: directory,
		notifier:  notifier,
		issuer:    issuer,
		logger:    logger,
	}
}

// Reset replaces the user's TOTP secret and mails the provisioning URL.
// The old secret is invalid the moment the store write lands, so the mail
// failing only delays re-enrolment, it never leaves the old secret live.
func (s *Service) Reset(ctx context.Context, userID id.UserID) error {
	if userID.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}

	address, err := s.directory.Email(ctx, userID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve contact address")
	}
	if address == "" {
		return dErrors.New(dErrors.CodeNotFound, "no contact address on record")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: email.Normalize(address),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate authenticator secret")
	}

	if err := s.secrets.Replace(ctx, userID, key.Secret()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store authenticator secret")
	}

	msg := mail.Message{
		To:      address,
		Subject: "Your authenticator has been reset",
		Text: fmt.Sprintf(
			"Hi %s,\n\nYour two-factor authenticator was reset by an administrator. "+
				"Scan the link below with your authenticator app to re-enrol:\n\n%s\n\n"+
				"If you did not request this, contact the volunteer office.",
			email.DisplayName(address), key.URL(),
		),
		EnqueuedAt: requestcontext.Now(ctx),
	}
	if err := s.notifier.Enqueue(ctx, msg); err != nil {
		// The reset already happened; the admin can re-send the mail.
		s.logger.ErrorContext(ctx, "failed to enqueue twofactor reset mail",
			"target_user_id", userID, "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "secret reset but reset mail failed to queue")
	}

	s.logger.InfoContext(ctx, "twofactor secret reset",
		"target_user_id", userID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}
