package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/markdevonuk/portal/pkg/email"
	"github.com/markdevonuk/portal/pkg/platform/sentinel"
)

// Store persists applicant payment state.
//
// MarkPaid only fires for applicants currently approved to pay; an applicant
// in any other state returns sentinel.ErrInvalidState, and an unknown
// address returns sentinel.ErrNotFound.
type Store interface {
	Find(ctx context.Context, address string) (*Applicant, error)
	Save(ctx context.Context, applicant Applicant) error
	MarkPaid(ctx context.Context, address string) error
}

// InMemoryStore is a map-backed Store for tests and local runs.
type InMemoryStore struct {
	mu         sync.RWMutex
	applicants map[string]Applicant
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{applicants: make(map[string]Applicant)}
}

func (s *InMemoryStore) Find(_ context.Context, address string) (*Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	applicant, ok := s.applicants[email.Normalize(address)]
	if !ok {
		return nil, fmt.Errorf("applicant %s: %w", address, sentinel.ErrNotFound)
	}
	return &applicant, nil
}

func (s *InMemoryStore) Save(_ context.Context, applicant Applicant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	applicant.Email = email.Normalize(applicant.Email)
	s.applicants[applicant.Email] = applicant
	return nil
}

func (s *InMemoryStore) MarkPaid(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := email.Normalize(address)
	applicant, ok := s.applicants[key]
	if !ok {
		return fmt.Errorf("applicant %s: %w", address, sentinel.ErrNotFound)
	}
	if applicant.Status != StatusApprovedToPay {
		return fmt.Errorf("applicant %s is %s: %w", address, applicant.Status, sentinel.ErrInvalidState)
	}
	applicant.Status = StatusPaid
	s.applicants[key] = applicant
	return nil
}

// PostgresStore persists applicants in the applicants table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Find(ctx context.Context, address string) (*Applicant, error) {
	var applicant Applicant
	err := s.pool.QueryRow(ctx,
		`SELECT email, status FROM applicants WHERE email = $1`,
		email.Normalize(address),
	).Scan(&applicant.Email, &applicant.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("applicant %s: %w", address, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find applicant: %w", err)
	}
	return &applicant, nil
}

func (s *PostgresStore) Save(ctx context.Context, applicant Applicant) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO applicants (email, status, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (email) DO UPDATE SET status = EXCLUDED.status, updated_at = now()`,
		email.Normalize(applicant.Email), string(applicant.Status),
	)
	if err != nil {
		return fmt.Errorf("save applicant: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkPaid(ctx context.Context, address string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE applicants SET status = $2, updated_at = now()
		 WHERE email = $1 AND status = $3`,
		email.Normalize(address), string(StatusPaid), string(StatusApprovedToPay),
	)
	if err != nil {
		return fmt.Errorf("mark applicant paid: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Distinguish a missing applicant from one in the wrong state.
	if _, err := s.Find(ctx, address); err != nil {
		return err
	}
	return fmt.Errorf("applicant %s not approved to pay: %w", address, sentinel.ErrInvalidState)
}
