package store

import (
	"context"

	"github.com/markdevonuk/portal/internal/team/models"
	id "github.com/markdevonuk/portal/pkg/domain"
)

// TeamStore persists team records.
//
// Implementations return sentinel.ErrNotFound for unknown team ids and
// sentinel.ErrConflict when a name is already taken (case-insensitive).
type TeamStore interface {
	Create(ctx context.Context, team *models.Team) error
	Update(ctx context.Context, team *models.Team) error
	Delete(ctx context.Context, teamID id.TeamID) error
	Find(ctx context.Context, teamID id.TeamID) (*models.Team, error)
	List(ctx context.Context) ([]*models.Team, error)
}

// UserStore reads and mutates the membership side of the ledger. Membership
// writes are idempotent set operations: adding a team the user already has,
// or removing one they do not, succeeds without changing the record.
type UserStore interface {
	Find(ctx context.Context, userID id.UserID) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
	ListByTeam(ctx context.Context, teamID id.TeamID) ([]*models.User, error)
	AddTeam(ctx context.Context, userID id.UserID, teamID id.TeamID) error
	RemoveTeam(ctx context.Context, userID id.UserID, teamID id.TeamID) error
}
