package handler

import (
	"github.com/markdevonuk/portal/internal/profile/models"
)

// CreateProfileRequest seeds a new profile. Any section may be omitted.
type CreateProfileRequest struct {
	PersonalDetails       *models.PersonalDetails       `json:"personalDetails"`
	Driving               *models.DrivingDetails        `json:"driving"`
	MedicalQualifications *models.MedicalQualifications `json:"medicalQualifications"`
}

func (r CreateProfileRequest) SectionData() models.SectionData {
	return models.SectionData{
		PersonalDetails:       r.PersonalDetails,
		Driving:               r.Driving,
		MedicalQualifications: r.MedicalQualifications,
	}
}

// SubmitRequest carries the terms agreement.
type SubmitRequest struct {
	AgreedToTerms bool `json:"agreedToTerms"`
}

// ResubmitRequest replaces all three sections. A section the caller omits is
// wiped to its zero value; callers must always send complete payloads.
type ResubmitRequest struct {
	PersonalDetails       models.PersonalDetails       `json:"personalDetails"`
	Driving               models.DrivingDetails        `json:"driving"`
	MedicalQualifications models.MedicalQualifications `json:"medicalQualifications"`
	Notes                 *string                      `json:"notes"`
}

func (r ResubmitRequest) Resubmission() models.Resubmission {
	return models.Resubmission{
		PersonalDetails:       r.PersonalDetails,
		Driving:               r.Driving,
		MedicalQualifications: r.MedicalQualifications,
		Notes:                 r.Notes,
	}
}

// ReviewRequest records an admin decision.
type ReviewRequest struct {
	Status models.Status `json:"status"`
	Notes  string        `json:"notes"`
}

// GetProfileResponse wraps the read so a missing profile is an explicit
// result rather than a 404.
type GetProfileResponse struct {
	Exists  bool            `json:"exists"`
	Profile *models.Profile `json:"profile,omitempty"`
}
