// Package domain defines typed identifiers shared across modules.
//
// UserID is the identity-provider subject and stays an opaque string; it keys
// profile documents and user records. TeamID is minted locally and is a UUID.
// Distinct types keep the compiler from letting a team id slip into a user
// lookup.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "github.com/markdevonuk/portal/pkg/domainerrors"
)

// UserID identifies a volunteer. Assigned by the identity provider.
type UserID string

func (u UserID) String() string { return string(u) }

// IsZero reports whether the id is empty (no actor bound).
func (u UserID) IsZero() bool { return u == "" }

// ParseUserID validates an identity-provider subject. Subjects are opaque but
// must be non-empty after trimming.
func ParseUserID(raw string) (UserID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "user id cannot be empty")
	}
	return UserID(raw), nil
}

// TeamID identifies a team.
type TeamID uuid.UUID

func (t TeamID) String() string { return uuid.UUID(t).String() }

// IsZero reports whether the id is the nil UUID.
func (t TeamID) IsZero() bool { return uuid.UUID(t) == uuid.Nil }

// MarshalText encodes the id in canonical UUID form for JSON and logs.
func (t TeamID) MarshalText() ([]byte, error) {
	return []byte(uuid.UUID(t).String()), nil
}

// UnmarshalText accepts canonical UUID form.
func (t *TeamID) UnmarshalText(data []byte) error {
	parsed, err := uuid.Parse(string(data))
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "team id must be a valid UUID")
	}
	*t = TeamID(parsed)
	return nil
}

// NewTeamID mints a fresh team id.
func NewTeamID() TeamID { return TeamID(uuid.New()) }

// ParseTeamID validates a team id received at a trust boundary.
func ParseTeamID(raw string) (TeamID, error) {
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return TeamID{}, dErrors.New(dErrors.CodeInvalidInput, "team id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return TeamID{}, dErrors.New(dErrors.CodeInvalidInput, "team id cannot be the nil UUID")
	}
	return TeamID(parsed), nil
}
