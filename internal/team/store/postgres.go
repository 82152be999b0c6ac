package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/markdevonuk/portal/internal/team/models"
	id "github.com/markdevonuk/portal/pkg/domain"
	"github.com/markdevonuk/portal/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresTeams persists team records. Name uniqueness is enforced by a
// unique index on lower(name).
type PostgresTeams struct {
	pool *pgxpool.Pool
}

func NewPostgresTeams(pool *pgxpool.Pool) *PostgresTeams {
	return &PostgresTeams{pool: pool}
}

func (s *PostgresTeams) Create(ctx context.Context, team *models.Team) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO teams (id, name, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		team.ID.String(), team.Name, team.Description, team.CreatedAt, team.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("team name %q: %w", team.Name, sentinel.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

func (s *PostgresTeams) Update(ctx context.Context, team *models.Team) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE teams SET name = $2, description = $3, updated_at = $4 WHERE id = $1`,
		team.ID.String(), team.Name, team.Description, team.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("team name %q: %w", team.Name, sentinel.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("team %s: %w", team.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresTeams) Delete(ctx context.Context, teamID id.TeamID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, teamID.String())
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("team %s: %w", teamID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresTeams) Find(ctx context.Context, teamID id.TeamID) (*models.Team, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at FROM teams WHERE id = $1`,
		teamID.String(),
	)
	team, err := scanTeam(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("team %s: %w", teamID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find team: %w", err)
	}
	return team, nil
}

func (s *PostgresTeams) List(ctx context.Context) ([]*models.Team, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, created_at, updated_at FROM teams ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team row: %w", err)
		}
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team rows: %w", err)
	}
	return teams, nil
}

func scanTeam(row pgx.Row) (*models.Team, error) {
	var (
		team  models.Team
		rawID string
	)
	if err := row.Scan(&rawID, &team.Name, &team.Description, &team.CreatedAt, &team.UpdatedAt); err != nil {
		return nil, err
	}
	teamID, err := id.ParseTeamID(rawID)
	if err != nil {
		return nil, fmt.Errorf("team row has malformed id %q: %w", rawID, err)
	}
	team.ID = teamID
	return &team, nil
}

// PostgresUsers reads and mutates membership sets stored as a text[] column
// on the users table. A NULL column means the record predates the ledger and
// has no membership set yet.
type PostgresUsers struct {
	pool *pgxpool.Pool
}

func NewPostgresUsers(pool *pgxpool.Pool) *PostgresUsers {
	return &PostgresUsers{pool: pool}
}

func (s *PostgresUsers) Find(ctx context.Context, userID id.UserID) (*models.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, first_name, surname, email, teams FROM users WHERE id = $1`,
		userID.String(),
	)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *PostgresUsers) Save(ctx context.Context, user *models.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, first_name, surname, email, teams)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE
		 SET first_name = EXCLUDED.first_name,
		     surname = EXCLUDED.surname,
		     email = EXCLUDED.email,
		     teams = EXCLUDED.teams`,
		user.ID.String(), user.FirstName, user.Surname, user.Email, encodeTeams(user.Teams),
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *PostgresUsers) ListByTeam(ctx context.Context, teamID id.TeamID) ([]*models.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, first_name, surname, email, teams FROM users
		 WHERE teams @> ARRAY[$1]::text[]`,
		teamID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list users by team: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, nil
}

func (s *PostgresUsers) AddTeam(ctx context.Context, userID id.UserID, teamID id.TeamID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users
		 SET teams = CASE
		     WHEN COALESCE(teams, '{}') @> ARRAY[$2]::text[] THEN teams
		     ELSE array_append(COALESCE(teams, '{}'), $2)
		 END
		 WHERE id = $1`,
		userID.String(), teamID.String(),
	)
	if err != nil {
		return fmt.Errorf("add team membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresUsers) RemoveTeam(ctx context.Context, userID id.UserID, teamID id.TeamID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET teams = array_remove(COALESCE(teams, '{}'), $2) WHERE id = $1`,
		userID.String(), teamID.String(),
	)
	if err != nil {
		return fmt.Errorf("remove team membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		user  models.User
		rawID string
		teams []string
	)
	if err := row.Scan(&rawID, &user.FirstName, &user.Surname, &user.Email, &teams); err != nil {
		return nil, err
	}
	user.ID = id.UserID(rawID)
	if teams != nil {
		user.Teams = make([]id.TeamID, 0, len(teams))
		for _, raw := range teams {
			teamID, err := id.ParseTeamID(raw)
			if err != nil {
				return nil, fmt.Errorf("user row has malformed team id %q: %w", raw, err)
			}
			user.Teams = append(user.Teams, teamID)
		}
	}
	return &user, nil
}

func encodeTeams(teams []id.TeamID) []string {
	if teams == nil {
		return nil
	}
	encoded := make([]string, len(teams))
	for i, t := range teams {
		encoded[i] = t.String()
	}
	return encoded
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
