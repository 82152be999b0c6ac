package twofactor

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	id "github.com/markdevonuk/portal/pkg/domain"
)

// SecretStore holds each user's current TOTP secret. Replace overwrites any
// previous secret: after a reset only the new enrolment is valid.
type SecretStore interface {
	Replace(ctx context.Context, userID id.UserID, secret string) error
}

// InMemorySecrets is a map-backed SecretStore for tests and local runs.
type InMemorySecrets struct {
	mu      sync.RWMutex
	secrets map[id.UserID]string
}

func NewInMemorySecrets() *InMemorySecrets {
	return &InMemorySecrets{secrets: make(map[id.UserID]string)}
}

func (s *InMemorySecrets) Replace(_ context.Context, userID id.UserID, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[userID] = secret
	return nil
}

// Get returns the stored secret, for tests.
func (s *InMemorySecrets) Get(userID id.UserID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	secret, ok := s.secrets[userID]
	return secret, ok
}

// PostgresSecrets persists secrets in the twofactor_secrets table.
type PostgresSecrets struct {
	pool *pgxpool.Pool
}

func NewPostgresSecrets(pool *pgxpool.Pool) *PostgresSecrets {
	return &PostgresSecrets{pool: pool}
}

func (s *PostgresSecrets) Replace(ctx context.Context, userID id.UserID, secret string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO twofactor_secrets (user_id, secret, rotated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id) DO UPDATE SET secret = EXCLUDED.secret, rotated_at = now()`,
		userID.String(), secret,
	)
	if err != nil {
		return fmt.Errorf("replace twofactor secret: %w", err)
	}
	return nil
}
