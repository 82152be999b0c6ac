// Package service implements the membership ledger: team records, the
// per-user membership sets, and the delete cascade that keeps the two sides
// consistent.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	teammetrics "github.com/markdevonuk/portal/internal/team/metrics"
	"github.com/markdevonuk/portal/internal/team/models"
	"github.com/markdevonuk/portal/internal/team/store"
	id "github.com/markdevonuk/portal/pkg/domain"
	dErrors "github.com/markdevonuk/portal/pkg/domainerrors"
	"github.com/markdevonuk/portal/pkg/platform/sentinel"
	"github.com/markdevonuk/portal/pkg/requestcontext"
)

// cascadeConcurrency bounds the fan-out of membership removals during a
// team delete.
const cascadeConcurrency = 8

// CascadeFailure records one member whose set could not be updated during a
// delete cascade. The team record is gone either way; the stale reference on
// this user is tolerated by reads and can be retried.
type CascadeFailure struct {
	UserID id.UserID `json:"userId"`
	Reason string    `json:"reason"`
}

// CascadeResult summarizes a team delete: how many membership sets were
// updated and which ones were not.
type CascadeResult struct {
	TeamID   id.TeamID        `json:"teamId"`
	Removed  int              `json:"removed"`
	Failures []CascadeFailure `json:"failures,omitempty"`
}

// Service owns the ledger. Both sides of the membership relationship go
// through here; nothing else writes team sets.
type Service struct {
	teams   store.TeamStore
	users   store.UserStore
	logger  *slog.Logger
	metrics *teammetrics.Metrics
}

type serviceConfig struct {
	logger  *slog.Logger
	metrics *teammetrics.Metrics
}

// Option configures optional service dependencies.
type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

func WithMetrics(m *teammetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

func New(teams store.TeamStore, users store.UserStore, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Service{
		teams:   teams,
		users:   users,
		logger:  cfg.logger,
		metrics: cfg.metrics,
	}
}

// CreateTeam mints a new team with a fresh id.
func (s *Service) CreateTeam(ctx context.Context, name, description string) (*models.Team, error) {
	team, err := models.NewTeam(id.NewTeamID(), name, description, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.teams.Create(ctx, team); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "a team named %q already exists", team.Name)
		}
		return nil, s.storeErr(ctx, err, "create team")
	}
	s.countTeamChange("create")
	return team, nil
}

// UpdateTeam renames a team and replaces its description. CreatedAt is
// preserved from the stored record.
func (s *Service) UpdateTeam(ctx context.Context, teamID id.TeamID, name, description string) (*models.Team, error) {
	team, err := s.findTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := team.ApplyUpdate(name, description, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.teams.Update(ctx, team); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.Newf(dErrors.CodeConflict, "a team named %q already exists", team.Name)
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "team not found")
		default:
			return nil, s.storeErr(ctx, err, "update team")
		}
	}
	s.countTeamChange("update")
	return team, nil
}

// DeleteTeam removes the team record and then fans out over every member,
// removing the team from each membership set. A failure on one member never
// blocks the others; failures are reported back so the caller can retry
// them, and reads tolerate the stale references in the meantime.
func (s *Service) DeleteTeam(ctx context.Context, teamID id.TeamID) (*CascadeResult, error) {
	if _, err := s.findTeam(ctx, teamID); err != nil {
		return nil, err
	}

	members, err := s.users.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, s.storeErr(ctx, err, "list team members")
	}

	if err := s.teams.Delete(ctx, teamID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "team not found")
		}
		return nil, s.storeErr(ctx, err, "delete team")
	}

	result := &CascadeResult{TeamID: teamID}
	var mu sync.Mutex

	g := &errgroup.Group{}
	g.SetLimit(cascadeConcurrency)
	for _, member := range members {
		userID := member.ID
		g.Go(func() error {
			err := s.users.RemoveTeam(ctx, userID, teamID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failures = append(result.Failures, CascadeFailure{
					UserID: userID,
					Reason: err.Error(),
				})
				return nil
			}
			result.Removed++
			return nil
		})
	}
	// Goroutines report failures through result, never as errors.
	_ = g.Wait()

	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].UserID < result.Failures[j].UserID
	})

	if len(result.Failures) > 0 {
		s.logger.WarnContext(ctx, "team delete cascade left stale memberships",
			"team_id", teamID,
			"removed", result.Removed,
			"failed", len(result.Failures),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	s.countTeamChange("delete")
	if s.metrics != nil {
		s.metrics.ObserveCascade(len(members), len(result.Failures))
	}
	return result, nil
}

// GetTeam returns one team record.
func (s *Service) GetTeam(ctx context.Context, teamID id.TeamID) (*models.Team, error) {
	return s.findTeam(ctx, teamID)
}

// ListTeams returns every team, sorted by name.
func (s *Service) ListTeams(ctx context.Context) ([]*models.Team, error) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, s.storeErr(ctx, err, "list teams")
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams, nil
}

// Members returns the team's member list sorted by surname, falling back to
// first name for records without one.
func (s *Service) Members(ctx context.Context, teamID id.TeamID) ([]*models.User, error) {
	if _, err := s.findTeam(ctx, teamID); err != nil {
		return nil, err
	}
	members, err := s.users.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, s.storeErr(ctx, err, "list team members")
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].SortKey() < members[j].SortKey()
	})
	return members, nil
}

// AddUser puts the user in the team. Adding a member twice is a no-op.
func (s *Service) AddUser(ctx context.Context, userID id.UserID, teamID id.TeamID) error {
	if userID.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	if _, err := s.findTeam(ctx, teamID); err != nil {
		return err
	}
	if err := s.users.AddTeam(ctx, userID, teamID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return s.storeErr(ctx, err, "add team membership")
	}
	s.countMembershipChange("add")
	return nil
}

// RemoveUser takes the user out of the team. Removing an absent member is a
// no-op, and the team record does not need to exist: this is also the retry
// path for stale references left behind by a partial delete cascade.
func (s *Service) RemoveUser(ctx context.Context, userID id.UserID, teamID id.TeamID) error {
	if userID.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	if teamID.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "team id is required")
	}
	if err := s.users.RemoveTeam(ctx, userID, teamID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return s.storeErr(ctx, err, "remove team membership")
	}
	s.countMembershipChange("remove")
	return nil
}

// UserTeams resolves the user's membership set to team records, sorted by
// name. Ids that no longer resolve to a team are skipped: they are stale
// references from a partial delete cascade, not an error. A user record with
// no membership set at all gets an empty one written back as a side effect
// of the read.
func (s *Service) UserTeams(ctx context.Context, userID id.UserID) ([]*models.Team, error) {
	if userID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}

	user, err := s.users.Find(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, s.storeErr(ctx, err, "read user")
	}

	if user.Teams == nil {
		user.Teams = []id.TeamID{}
		if err := s.users.Save(ctx, user); err != nil {
			return nil, s.storeErr(ctx, err, "initialize membership set")
		}
	}

	resolved := make([]*models.Team, len(user.Teams))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cascadeConcurrency)
	for i, teamID := range user.Teams {
		g.Go(func() error {
			team, err := s.teams.Find(gctx, teamID)
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			resolved[i] = team
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.storeErr(ctx, err, "resolve teams")
	}

	teams := make([]*models.Team, 0, len(resolved))
	for _, team := range resolved {
		if team != nil {
			teams = append(teams, team)
		}
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams, nil
}

func (s *Service) findTeam(ctx context.Context, teamID id.TeamID) (*models.Team, error) {
	if teamID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "team id is required")
	}
	team, err := s.teams.Find(ctx, teamID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "team not found")
	}
	if err != nil {
		return nil, s.storeErr(ctx, err, "read team")
	}
	return team, nil
}

func (s *Service) countTeamChange(operation string) {
	if s.metrics != nil {
		s.metrics.IncrementTeamChange(operation)
	}
}

func (s *Service) countMembershipChange(operation string) {
	if s.metrics != nil {
		s.metrics.IncrementMembershipChange(operation)
	}
}

func (s *Service) storeErr(ctx context.Context, err error, action string) error {
	s.logger.ErrorContext(ctx, "team store operation failed",
		"action", action,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+action)
}
