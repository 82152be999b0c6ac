package models

import (
	"strings"
	"time"

	id "github.com/markdevonuk/portal/pkg/domain"
	dErrors "github.com/markdevonuk/portal/pkg/domainerrors"
)

// Team is a named group volunteers can belong to.
//
// Invariants:
//   - Name is non-empty after trimming and at most 128 characters
//   - Name is unique across teams (enforced by the store)
//   - CreatedAt is immutable after construction
type Team struct {
	ID          id.TeamID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewTeam(teamID id.TeamID, name, description string, now time.Time) (*Team, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	return &Team{
		ID:          teamID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ApplyUpdate renames the team in place, bumping UpdatedAt.
func (t *Team) ApplyUpdate(name, description string, now time.Time) error {
	name, err := validateName(name)
	if err != nil {
		return err
	}
	t.Name = name
	t.Description = description
	t.UpdatedAt = now
	return nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "team name cannot be empty")
	}
	if len(name) > 128 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "team name must be 128 characters or less")
	}
	return name, nil
}
