package models

import (
	id "github.com/markdevonuk/portal/pkg/domain"
)

// User is the ledger's view of a volunteer record: identity, a couple of
// display fields, and the membership set. The set is stored on the user
// record; the ledger is the only writer of both sides of the relationship.
type User struct {
	ID        id.UserID   `json:"id"`
	FirstName string      `json:"firstName"`
	Surname   string      `json:"surname"`
	Email     string      `json:"email"`
	Teams     []id.TeamID `json:"teams"`
}

// InTeam reports whether the membership set contains teamID.
func (u *User) InTeam(teamID id.TeamID) bool {
	for _, t := range u.Teams {
		if t == teamID {
			return true
		}
	}
	return false
}

// SortKey is the member-list ordering key: surname when present, else first
// name. Comparison is case-sensitive, matching the store's default collation.
func (u *User) SortKey() string {
	if u.Surname != "" {
		return u.Surname
	}
	return u.FirstName
}
