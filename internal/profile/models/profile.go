package models

import (
	"time"

	id "github.com/markdevonuk/portal/pkg/domain"
)

// Profile is a volunteer's structured application record, subject to admin
// review. One document exists per user, keyed by the identity-provider
// subject.
//
// Invariants:
//   - AdminUse.Status is always one of the four review stages
//   - Submission.SubmittedAt is set only by submit/resubmit, never by a
//     section save
//   - AdminUse.Notes becomes an append-only narrative log once a
//     resubmission occurs
type Profile struct {
	PersonalDetails       PersonalDetails       `json:"personalDetails"`
	Driving               DrivingDetails        `json:"driving"`
	MedicalQualifications MedicalQualifications `json:"medicalQualifications"`
	Submission            Submission            `json:"submission"`
	AdminUse              AdminUse              `json:"adminUse"`
}

// PersonalDetails is the self-service personal section.
type PersonalDetails struct {
	DateOfBirth      string           `json:"dateOfBirth,omitempty"`
	EmergencyContact EmergencyContact `json:"emergencyContact"`
}

type EmergencyContact struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// DrivingDetails is the self-service driving section.
type DrivingDetails struct {
	C1Classification        bool   `json:"c1Classification"`
	LicenceNumber           string `json:"licenceNumber,omitempty"`
	NationalInsuranceNumber string `json:"nationalInsuranceNumber,omitempty"`
	Points                  int    `json:"points"`
}

// MedicalQualifications is the self-service medical section.
type MedicalQualifications struct {
	CertificateExpiry   string   `json:"certificateExpiry,omitempty"`
	Details             string   `json:"details,omitempty"`
	RegistrationNumbers []string `json:"registrationNumbers,omitempty"`
	Qualification       string   `json:"qualification,omitempty"`
}

// Submission records the terms agreement and when the profile last entered
// the review queue. SubmittedAt is nil until the first submit.
type Submission struct {
	AgreedToTerms bool       `json:"agreedToTerms"`
	SubmittedAt   *time.Time `json:"submittedAt"`
}

// AdminUse holds the review-side fields. Only admins write here.
type AdminUse struct {
	Status     Status     `json:"status"`
	ApprovedBy id.UserID  `json:"approvedBy"`
	Notes      string     `json:"notes"`
	ReviewedAt *time.Time `json:"reviewedAt"`
}

// Section names one of the three self-service field groups.
type Section string

const (
	SectionPersonalDetails       Section = "personalDetails"
	SectionDriving               Section = "driving"
	SectionMedicalQualifications Section = "medicalQualifications"
)

// ParseSection validates a section name received at a trust boundary.
func ParseSection(raw string) (Section, bool) {
	switch Section(raw) {
	case SectionPersonalDetails, SectionDriving, SectionMedicalQualifications:
		return Section(raw), true
	}
	return "", false
}

// SectionData carries the payload for a single section update. Exactly the
// pointer matching the named section must be set.
type SectionData struct {
	PersonalDetails       *PersonalDetails
	Driving               *DrivingDetails
	MedicalQualifications *MedicalQualifications
}

// Matches reports whether the populated payload corresponds to sec.
func (d SectionData) Matches(sec Section) bool {
	switch sec {
	case SectionPersonalDetails:
		return d.PersonalDetails != nil && d.Driving == nil && d.MedicalQualifications == nil
	case SectionDriving:
		return d.Driving != nil && d.PersonalDetails == nil && d.MedicalQualifications == nil
	case SectionMedicalQualifications:
		return d.MedicalQualifications != nil && d.PersonalDetails == nil && d.Driving == nil
	}
	return false
}

// Resubmission is a complete amendment of an already-submitted profile.
// All three sections are overwritten with the supplied values; a section the
// caller leaves zero is wiped. Notes, when non-nil, replace the stored review
// notes verbatim instead of appending the generated update line.
type Resubmission struct {
	PersonalDetails       PersonalDetails
	Driving               DrivingDetails
	MedicalQualifications MedicalQualifications
	Notes                 *string
}

// NewProfile builds a fresh profile in draft with all four sections present,
// substituting zero values for sections the caller did not supply.
func NewProfile(seed SectionData) Profile {
	p := Profile{
		AdminUse: AdminUse{Status: StatusDraft},
	}
	if seed.PersonalDetails != nil {
		p.PersonalDetails = *seed.PersonalDetails
	}
	if seed.Driving != nil {
		p.Driving = *seed.Driving
	}
	if seed.MedicalQualifications != nil {
		p.MedicalQualifications = *seed.MedicalQualifications
	}
	return p
}

// Record pairs a profile with the user it belongs to, for admin listings.
type Record struct {
	UserID  id.UserID `json:"userId"`
	Profile Profile   `json:"profile"`
}
