// Package store persists profile documents. Implementations provide
// document-level upsert plus partial updates at field-group granularity;
// concurrent writers race at that granularity (last writer wins), which is
// the concurrency contract for the whole engine.
package store

import (
	"context"
	"time"

	"github.com/markdevonuk/portal/internal/profile/models"
	id "github.com/markdevonuk/portal/pkg/domain"
)

// Store is the profile document store.
type Store interface {
	// Find returns the profile for userID, or sentinel.ErrNotFound.
	Find(ctx context.Context, userID id.UserID) (*models.Profile, error)
	// Save upserts the full document.
	Save(ctx context.Context, userID id.UserID, profile models.Profile) error
	// Merge applies the non-nil field groups of patch to an existing
	// document. Returns sentinel.ErrNotFound if no document exists.
	Merge(ctx context.Context, userID id.UserID, patch Patch) error
	// ListByStatus returns every profile currently in the given stage.
	// Order is unspecified; callers sort.
	ListByStatus(ctx context.Context, status models.Status) ([]models.Record, error)
}

// Patch is a partial update. Nil fields are left untouched; non-nil fields
// replace their field group wholesale.
//
// Status and Notes target single adminUse fields so a section save can
// withdraw a pending profile without clobbering review notes, and a
// resubmission can rewrite notes without faking a review. Review replaces
// the whole adminUse group in one write.
type Patch struct {
	PersonalDetails       *models.PersonalDetails
	Driving               *models.DrivingDetails
	MedicalQualifications *models.MedicalQualifications
	Submission            *models.Submission
	Status                *models.Status
	Notes                 *string
	Review                *Review
}

// Review is an admin decision applied as one field-group write.
type Review struct {
	Status     models.Status
	ApprovedBy id.UserID
	Notes      string
	ReviewedAt time.Time
}

// Apply merges the patch into a profile in memory. Shared by the in-memory
// store and by tests asserting merge semantics.
func (p Patch) Apply(profile *models.Profile) {
	if p.PersonalDetails != nil {
		profile.PersonalDetails = *p.PersonalDetails
	}
	if p.Driving != nil {
		profile.Driving = *p.Driving
	}
	if p.MedicalQualifications != nil {
		profile.MedicalQualifications = *p.MedicalQualifications
	}
	if p.Submission != nil {
		profile.Submission = *p.Submission
	}
	if p.Status != nil {
		profile.AdminUse.Status = *p.Status
	}
	if p.Notes != nil {
		profile.AdminUse.Notes = *p.Notes
	}
	if p.Review != nil {
		reviewedAt := p.Review.ReviewedAt
		profile.AdminUse = models.AdminUse{
			Status:     p.Review.Status,
			ApprovedBy: p.Review.ApprovedBy,
			Notes:      p.Review.Notes,
			ReviewedAt: &reviewedAt,
		}
	}
}
