package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/markdevonuk/portal/internal/team/models"
	id "github.com/markdevonuk/portal/pkg/domain"
	"github.com/markdevonuk/portal/pkg/platform/sentinel"
)

// InMemoryTeams is a map-backed TeamStore for tests and local runs.
type InMemoryTeams struct {
	mu    sync.RWMutex
	teams map[id.TeamID]models.Team
}

func NewInMemoryTeams() *InMemoryTeams {
	return &InMemoryTeams{teams: make(map[id.TeamID]models.Team)}
}

func (s *InMemoryTeams) Create(_ context.Context, team *models.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.teams[team.ID]; ok {
		return fmt.Errorf("team %s: %w", team.ID, sentinel.ErrConflict)
	}
	if s.nameTakenLocked(team.Name, team.ID) {
		return fmt.Errorf("team name %q: %w", team.Name, sentinel.ErrConflict)
	}
	s.teams[team.ID] = *team
	return nil
}

func (s *InMemoryTeams) Update(_ context.Context, team *models.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.teams[team.ID]; !ok {
		return fmt.Errorf("team %s: %w", team.ID, sentinel.ErrNotFound)
	}
	if s.nameTakenLocked(team.Name, team.ID) {
		return fmt.Errorf("team name %q: %w", team.Name, sentinel.ErrConflict)
	}
	s.teams[team.ID] = *team
	return nil
}

func (s *InMemoryTeams) Delete(_ context.Context, teamID id.TeamID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.teams[teamID]; !ok {
		return fmt.Errorf("team %s: %w", teamID, sentinel.ErrNotFound)
	}
	delete(s.teams, teamID)
	return nil
}

func (s *InMemoryTeams) Find(_ context.Context, teamID id.TeamID) (*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	team, ok := s.teams[teamID]
	if !ok {
		return nil, fmt.Errorf("team %s: %w", teamID, sentinel.ErrNotFound)
	}
	return &team, nil
}

func (s *InMemoryTeams) List(_ context.Context) ([]*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	teams := make([]*models.Team, 0, len(s.teams))
	for _, team := range s.teams {
		t := team
		teams = append(teams, &t)
	}
	return teams, nil
}

func (s *InMemoryTeams) nameTakenLocked(name string, self id.TeamID) bool {
	for tid, team := range s.teams {
		if tid != self && strings.EqualFold(team.Name, name) {
			return true
		}
	}
	return false
}

// InMemoryUsers is a map-backed UserStore for tests and local runs.
type InMemoryUsers struct {
	mu    sync.RWMutex
	users map[id.UserID]models.User
}

func NewInMemoryUsers() *InMemoryUsers {
	return &InMemoryUsers{users: make(map[id.UserID]models.User)}
}

func (s *InMemoryUsers) Find(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	copied := user
	copied.Teams = cloneTeams(user.Teams)
	return &copied, nil
}

func (s *InMemoryUsers) Save(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *user
	copied.Teams = cloneTeams(user.Teams)
	s.users[user.ID] = copied
	return nil
}

func (s *InMemoryUsers) ListByTeam(_ context.Context, teamID id.TeamID) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var members []*models.User
	for _, user := range s.users {
		if user.InTeam(teamID) {
			copied := user
			copied.Teams = cloneTeams(user.Teams)
			members = append(members, &copied)
		}
	}
	return members, nil
}

func (s *InMemoryUsers) AddTeam(_ context.Context, userID id.UserID, teamID id.TeamID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	if user.InTeam(teamID) {
		return nil
	}
	user.Teams = append(append([]id.TeamID(nil), user.Teams...), teamID)
	s.users[userID] = user
	return nil
}

func (s *InMemoryUsers) RemoveTeam(_ context.Context, userID id.UserID, teamID id.TeamID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	remaining := make([]id.TeamID, 0, len(user.Teams))
	for _, t := range user.Teams {
		if t != teamID {
			remaining = append(remaining, t)
		}
	}
	user.Teams = remaining
	s.users[userID] = user
	return nil
}

// cloneTeams copies a membership set, keeping the nil vs empty distinction:
// an initialized-but-empty set must not degrade back to the legacy nil form.
func cloneTeams(teams []id.TeamID) []id.TeamID {
	if teams == nil {
		return nil
	}
	return append([]id.TeamID{}, teams...)
}
