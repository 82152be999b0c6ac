package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/markdevonuk/portal/internal/profile/models"
	id "github.com/markdevonuk/portal/pkg/domain"
	"github.com/markdevonuk/portal/pkg/platform/sentinel"
)

// Postgres persists profile documents as JSONB. Partial updates are applied
// with jsonb_set on the field-group paths, so concurrent writers only race
// at the granularity the Patch exposes.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Find(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM profiles WHERE user_id = $1`,
		userID.String(),
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}

	var profile models.Profile
	if err := json.Unmarshal(doc, &profile); err != nil {
		return nil, fmt.Errorf("decode profile document: %w", err)
	}
	return &profile, nil
}

func (s *Postgres) Save(ctx context.Context, userID id.UserID, profile models.Profile) error {
	doc, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile document: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO profiles (user_id, doc, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		userID.String(), doc,
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *Postgres) Merge(ctx context.Context, userID id.UserID, patch Patch) error {
	expr := "doc"
	var args []any
	args = append(args, userID.String())

	set := func(path string, value any) error {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode patch value for %s: %w", path, err)
		}
		args = append(args, encoded)
		expr = fmt.Sprintf("jsonb_set(%s, '{%s}', $%d::jsonb, true)", expr, path, len(args))
		return nil
	}

	if patch.PersonalDetails != nil {
		if err := set("personalDetails", patch.PersonalDetails); err != nil {
			return err
		}
	}
	if patch.Driving != nil {
		if err := set("driving", patch.Driving); err != nil {
			return err
		}
	}
	if patch.MedicalQualifications != nil {
		if err := set("medicalQualifications", patch.MedicalQualifications); err != nil {
			return err
		}
	}
	if patch.Submission != nil {
		if err := set("submission", patch.Submission); err != nil {
			return err
		}
	}
	if patch.Status != nil {
		if err := set("adminUse,status", patch.Status); err != nil {
			return err
		}
	}
	if patch.Notes != nil {
		if err := set("adminUse,notes", patch.Notes); err != nil {
			return err
		}
	}
	if patch.Review != nil {
		reviewedAt := patch.Review.ReviewedAt
		if err := set("adminUse", models.AdminUse{
			Status:     patch.Review.Status,
			ApprovedBy: patch.Review.ApprovedBy,
			Notes:      patch.Review.Notes,
			ReviewedAt: &reviewedAt,
		}); err != nil {
			return err
		}
	}

	if len(args) == 1 {
		return nil
	}

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE profiles SET doc = %s, updated_at = now() WHERE user_id = $1`, expr),
		args...,
	)
	if err != nil {
		return fmt.Errorf("merge profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListByStatus(ctx context.Context, status models.Status) ([]models.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, doc FROM profiles WHERE doc->'adminUse'->>'status' = $1`,
		string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("list profiles by status: %w", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var (
			userID string
			doc    []byte
		)
		if err := rows.Scan(&userID, &doc); err != nil {
			return nil, fmt.Errorf("scan profile row: %w", err)
		}
		var profile models.Profile
		if err := json.Unmarshal(doc, &profile); err != nil {
			return nil, fmt.Errorf("decode profile document: %w", err)
		}
		records = append(records, models.Record{UserID: id.UserID(userID), Profile: profile})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile rows: %w", err)
	}
	return records, nil
}
