package store

import (
	"context"
	"sync"

	"github.com/markdevonuk/portal/internal/profile/models"
	id "github.com/markdevonuk/portal/pkg/domain"
	"github.com/markdevonuk/portal/pkg/platform/sentinel"
)

// InMemory keeps profile documents in a map. Used by unit tests and local
// development; it intentionally favors clarity over performance.
type InMemory struct {
	mu       sync.RWMutex
	profiles map[id.UserID]models.Profile
}

func NewInMemory() *InMemory {
	return &InMemory{profiles: make(map[id.UserID]models.Profile)}
}

func (s *InMemory) Find(_ context.Context, userID id.UserID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &profile, nil
}

func (s *InMemory) Save(_ context.Context, userID id.UserID, profile models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = profile
	return nil
}

func (s *InMemory) Merge(_ context.Context, userID id.UserID, patch Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	patch.Apply(&profile)
	s.profiles[userID] = profile
	return nil
}

func (s *InMemory) ListByStatus(_ context.Context, status models.Status) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var records []models.Record
	for userID, profile := range s.profiles {
		if profile.AdminUse.Status == status {
			records = append(records, models.Record{UserID: userID, Profile: profile})
		}
	}
	return records, nil
}
