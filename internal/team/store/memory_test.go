package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/markdevonuk/portal/internal/team/models"
	id "github.com/markdevonuk/portal/pkg/domain"
	"github.com/markdevonuk/portal/pkg/platform/sentinel"
)

type TeamStoreSuite struct {
	suite.Suite
	teams *InMemoryTeams
	users *InMemoryUsers
	ctx   context.Context
}

func (s *TeamStoreSuite) SetupTest() {
	s.teams = NewInMemoryTeams()
	s.users = NewInMemoryUsers()
	s.ctx = context.Background()
}

func TestTeamStoreSuite(t *testing.T) {
	suite.Run(t, new(TeamStoreSuite))
}

func (s *TeamStoreSuite) newTeam(name string) *models.Team {
	team, err := models.NewTeam(id.NewTeamID(), name, "", time.Date(2026, time.March, 5, 9, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Require().NoError(s.teams.Create(s.ctx, team))
	return team
}

func (s *TeamStoreSuite) seedUser(userID id.UserID, surname string, teams ...id.TeamID) {
	s.Require().NoError(s.users.Save(s.ctx, &models.User{
		ID:      userID,
		Surname: surname,
		Teams:   teams,
	}))
}

func (s *TeamStoreSuite) TestTeamCRUD() {
	s.Run("create rejects duplicate names case-insensitively", func() {
		s.newTeam("Logistics")
		dup, err := models.NewTeam(id.NewTeamID(), "logistics", "", time.Now())
		s.Require().NoError(err)
		s.Require().ErrorIs(s.teams.Create(s.ctx, dup), sentinel.ErrConflict)
	})

	s.Run("update rejects unknown team", func() {
		ghost, err := models.NewTeam(id.NewTeamID(), "Ghost", "", time.Now())
		s.Require().NoError(err)
		s.Require().ErrorIs(s.teams.Update(s.ctx, ghost), sentinel.ErrNotFound)
	})

	s.Run("update keeps its own name available", func() {
		team := s.newTeam("First Aid")
		s.Require().NoError(team.ApplyUpdate("First Aid", "renumbered kit list", time.Now()))
		s.Require().NoError(s.teams.Update(s.ctx, team))

		found, err := s.teams.Find(s.ctx, team.ID)
		s.Require().NoError(err)
		s.Equal("renumbered kit list", found.Description)
	})

	s.Run("delete removes the record", func() {
		team := s.newTeam("Catering")
		s.Require().NoError(s.teams.Delete(s.ctx, team.ID))
		_, err := s.teams.Find(s.ctx, team.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		s.Require().ErrorIs(s.teams.Delete(s.ctx, team.ID), sentinel.ErrNotFound)
	})
}

func (s *TeamStoreSuite) TestMembershipSets() {
	team := s.newTeam("Stewards")
	other := s.newTeam("Radio")
	s.seedUser("u1", "Archer", team.ID)
	s.seedUser("u2", "Baker")

	s.Run("add is idempotent", func() {
		s.Require().NoError(s.users.AddTeam(s.ctx, "u1", team.ID))
		s.Require().NoError(s.users.AddTeam(s.ctx, "u1", team.ID))

		user, err := s.users.Find(s.ctx, "u1")
		s.Require().NoError(err)
		s.Equal([]id.TeamID{team.ID}, user.Teams)
	})

	s.Run("remove is idempotent", func() {
		s.Require().NoError(s.users.RemoveTeam(s.ctx, "u2", team.ID))
		user, err := s.users.Find(s.ctx, "u2")
		s.Require().NoError(err)
		s.Empty(user.Teams)
	})

	s.Run("membership writes reject unknown users", func() {
		s.Require().ErrorIs(s.users.AddTeam(s.ctx, "nobody", team.ID), sentinel.ErrNotFound)
		s.Require().ErrorIs(s.users.RemoveTeam(s.ctx, "nobody", team.ID), sentinel.ErrNotFound)
	})

	s.Run("an initialized empty set survives save and find", func() {
		s.Require().NoError(s.users.Save(s.ctx, &models.User{ID: "u3", Teams: []id.TeamID{}}))

		user, err := s.users.Find(s.ctx, "u3")
		s.Require().NoError(err)
		s.Require().NotNil(user.Teams)
		s.Empty(user.Teams)
	})

	s.Run("a legacy record without a set stays nil", func() {
		s.Require().NoError(s.users.Save(s.ctx, &models.User{ID: "u4"}))

		user, err := s.users.Find(s.ctx, "u4")
		s.Require().NoError(err)
		s.Nil(user.Teams)
	})

	s.Run("list by team only returns members", func() {
		s.Require().NoError(s.users.AddTeam(s.ctx, "u2", other.ID))

		members, err := s.users.ListByTeam(s.ctx, team.ID)
		s.Require().NoError(err)
		s.Require().Len(members, 1)
		s.Equal(id.UserID("u1"), members[0].ID)
	})
}
