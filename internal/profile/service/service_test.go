package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/markdevonuk/portal/internal/mail"
	"github.com/markdevonuk/portal/internal/profile/models"
	"github.com/markdevonuk/portal/internal/profile/store"
	id "github.com/markdevonuk/portal/pkg/domain"
	dErrors "github.com/markdevonuk/portal/pkg/domainerrors"
	"github.com/markdevonuk/portal/pkg/requestcontext"
)

type capturingNotifier struct {
	messages []mail.Message
}

func (n *capturingNotifier) Enqueue(_ context.Context, msg mail.Message) error {
	n.messages = append(n.messages, msg)
	return nil
}

type mapDirectory map[id.UserID]string

func (d mapDirectory) Email(_ context.Context, userID id.UserID) (string, error) {
	return d[userID], nil
}

type ProfileServiceSuite struct {
	suite.Suite
	profiles  *store.InMemory
	notifier  *capturingNotifier
	directory mapDirectory
	svc       *Service
	now       time.Time
}

func TestProfileServiceSuite(t *testing.T) {
	suite.Run(t, new(ProfileServiceSuite))
}

func (s *ProfileServiceSuite) SetupTest() {
	s.profiles = store.NewInMemory()
	s.notifier = &capturingNotifier{}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.directory = mapDirectory{}
	s.svc = New(s.profiles,
		WithLogger(logger),
		WithNotifier(s.notifier, "admins@example.org"),
		WithDirectory(s.directory),
	)
	s.now = time.Date(2025, time.March, 5, 9, 30, 0, 0, time.UTC)
}

// ctxFor binds an actor and a fixed clock, the way middleware does in production.
func (s *ProfileServiceSuite) ctxFor(userID id.UserID) context.Context {
	ctx := requestcontext.WithUserID(context.Background(), userID)
	return requestcontext.WithTime(ctx, s.now)
}

func (s *ProfileServiceSuite) mustFind(userID id.UserID) *models.Profile {
	profile, err := s.profiles.Find(context.Background(), userID)
	s.Require().NoError(err)
	return profile
}

func (s *ProfileServiceSuite) TestCreate() {
	s.Run("requires an actor", func() {
		_, err := s.svc.Create(context.Background(), models.SectionData{})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})

	s.Run("produces a draft with all sections present", func() {
		profile, err := s.svc.Create(s.ctxFor("u1"), models.SectionData{
			Driving: &models.DrivingDetails{LicenceNumber: "D-1"},
		})
		s.Require().NoError(err)
		s.Equal(models.StatusDraft, profile.AdminUse.Status)
		s.Equal("D-1", profile.Driving.LicenceNumber)
		s.Nil(profile.Submission.SubmittedAt)
		s.False(profile.Submission.AgreedToTerms)
	})

	s.Run("refuses to overwrite an existing profile", func() {
		_, err := s.svc.Create(s.ctxFor("u2"), models.SectionData{})
		s.Require().NoError(err)
		_, err = s.svc.Create(s.ctxFor("u2"), models.SectionData{})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ProfileServiceSuite) TestGet() {
	s.Run("missing profile is an explicit no-profile result, not an error", func() {
		profile, err := s.svc.Get(s.ctxFor("ghost"))
		s.Require().NoError(err)
		s.Nil(profile)
	})

	s.Run("returns the stored profile", func() {
		_, err := s.svc.Create(s.ctxFor("u3"), models.SectionData{})
		s.Require().NoError(err)
		profile, err := s.svc.Get(s.ctxFor("u3"))
		s.Require().NoError(err)
		s.Require().NotNil(profile)
	})
}

func (s *ProfileServiceSuite) TestUpdateSection() {
	s.Run("requires an actor", func() {
		err := s.svc.UpdateSection(context.Background(), models.SectionDriving,
			models.SectionData{Driving: &models.DrivingDetails{}})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})

	s.Run("rejects a payload that does not match the section", func() {
		err := s.svc.UpdateSection(s.ctxFor("u4"), models.SectionDriving,
			models.SectionData{PersonalDetails: &models.PersonalDetails{}})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("creates a draft profile seeded with the section when none exists", func() {
		err := s.svc.UpdateSection(s.ctxFor("u5"), models.SectionDriving,
			models.SectionData{Driving: &models.DrivingDetails{LicenceNumber: "D-5", Points: 3}})
		s.Require().NoError(err)
		stored := s.mustFind("u5")
		s.Equal(models.StatusDraft, stored.AdminUse.Status)
		s.Equal("D-5", stored.Driving.LicenceNumber)
	})

	s.Run("editing while pending withdraws the profile to draft", func() {
		ctx := s.ctxFor("u6")
		_, err := s.svc.Create(ctx, models.SectionData{})
		s.Require().NoError(err)
		s.Require().NoError(s.svc.Submit(ctx, true))
		s.Equal(models.StatusPending, s.mustFind("u6").AdminUse.Status)

		err = s.svc.UpdateSection(ctx, models.SectionDriving,
			models.SectionData{Driving: &models.DrivingDetails{LicenceNumber: "new"}})
		s.Require().NoError(err)
		s.Equal(models.StatusDraft, s.mustFind("u6").AdminUse.Status)
	})

	s.Run("editing while approved never changes status", func() {
		ctx := s.ctxFor("u7")
		_, err := s.svc.Create(ctx, models.SectionData{})
		s.Require().NoError(err)
		s.Require().NoError(s.svc.Submit(ctx, true))
		s.Require().NoError(s.svc.Review(s.ctxFor("admin-1"), "u7", models.StatusApproved, "all good"))

		err = s.svc.UpdateSection(ctx, models.SectionPersonalDetails,
			models.SectionData{PersonalDetails: &models.PersonalDetails{DateOfBirth: "1991-01-01"}})
		s.Require().NoError(err)

		stored := s.mustFind("u7")
		s.Equal(models.StatusApproved, stored.AdminUse.Status)
		s.Equal("1991-01-01", stored.PersonalDetails.DateOfBirth)
		// Editing does not fake a withdrawal of the review record either.
		s.Equal("all good", stored.AdminUse.Notes)
	})

	s.Run("registration numbers are trimmed and deduplicated", func() {
		err := s.svc.UpdateSection(s.ctxFor("u8b"), models.SectionMedicalQualifications,
			models.SectionData{MedicalQualifications: &models.MedicalQualifications{
				RegistrationNumbers: []string{" GMC-100 ", "GMC-100", "", "HCPC-7"},
			}})
		s.Require().NoError(err)
		s.Equal([]string{"GMC-100", "HCPC-7"}, s.mustFind("u8b").MedicalQualifications.RegistrationNumbers)
	})

	s.Run("section save never touches submittedAt", func() {
		ctx := s.ctxFor("u8")
		_, err := s.svc.Create(ctx, models.SectionData{})
		s.Require().NoError(err)
		err = s.svc.UpdateSection(ctx, models.SectionDriving,
			models.SectionData{Driving: &models.DrivingDetails{}})
		s.Require().NoError(err)
		s.Nil(s.mustFind("u8").Submission.SubmittedAt)
	})
}

func (s *ProfileServiceSuite) TestSubmit() {
	s.Run("fails without terms agreement and never mutates the document", func() {
		ctx := s.ctxFor("u9")
		_, err := s.svc.Create(ctx, models.SectionData{})
		s.Require().NoError(err)

		err = s.svc.Submit(ctx, false)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		stored := s.mustFind("u9")
		s.Equal(models.StatusDraft, stored.AdminUse.Status)
		s.Nil(stored.Submission.SubmittedAt)
		s.False(stored.Submission.AgreedToTerms)
	})

	s.Run("fails when no profile exists", func() {
		err := s.svc.Submit(s.ctxFor("nobody"), true)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("sets pending and submittedAt, and notifies admins", func() {
		ctx := s.ctxFor("u10")
		_, err := s.svc.Create(ctx, models.SectionData{})
		s.Require().NoError(err)
		s.Require().NoError(s.svc.Submit(ctx, true))

		stored := s.mustFind("u10")
		s.Equal(models.StatusPending, stored.AdminUse.Status)
		s.True(stored.Submission.AgreedToTerms)
		s.Require().NotNil(stored.Submission.SubmittedAt)
		s.True(stored.Submission.SubmittedAt.Equal(s.now))

		s.Require().NotEmpty(s.notifier.messages)
		s.Equal("admins@example.org", s.notifier.messages[len(s.notifier.messages)-1].To)
	})
}

func (s *ProfileServiceSuite) TestReview() {
	s.Run("rejects a non-decision status", func() {
		err := s.svc.Review(s.ctxFor("admin-1"), "u11", models.StatusPending, "")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("fails for a missing profile", func() {
		err := s.svc.Review(s.ctxFor("admin-1"), "nobody", models.StatusApproved, "")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("records decision, reviewer, notes, and reviewedAt", func() {
		ctx := s.ctxFor("u12")
		_, err := s.svc.Create(ctx, models.SectionData{})
		s.Require().NoError(err)
		s.Require().NoError(s.svc.Submit(ctx, true))

		err = s.svc.Review(s.ctxFor("admin-1"), "u12", models.StatusRejected, "missing DL number")
		s.Require().NoError(err)

		stored := s.mustFind("u12")
		s.Equal(models.StatusRejected, stored.AdminUse.Status)
		s.Equal(id.UserID("admin-1"), stored.AdminUse.ApprovedBy)
		s.Equal("missing DL number", stored.AdminUse.Notes)
		s.Require().NotNil(stored.AdminUse.ReviewedAt)
	})

	s.Run("mails the outcome to the applicant when an address is known", func() {
		s.directory["u12b"] = "u12b@example.org"
		ctx := s.ctxFor("u12b")
		_, err := s.svc.Create(ctx, models.SectionData{})
		s.Require().NoError(err)
		s.Require().NoError(s.svc.Submit(ctx, true))

		err = s.svc.Review(s.ctxFor("admin-1"), "u12b", models.StatusRejected, "missing DL number")
		s.Require().NoError(err)

		s.Require().NotEmpty(s.notifier.messages)
		last := s.notifier.messages[len(s.notifier.messages)-1]
		s.Equal("u12b@example.org", last.To)
		s.Contains(last.Text, "missing DL number")
	})
}

func (s *ProfileServiceSuite) TestResubmit() {
	setup := func(userID id.UserID, notes string) {
		ctx := s.ctxFor(userID)
		_, err := s.svc.Create(ctx, models.SectionData{
			PersonalDetails: &models.PersonalDetails{DateOfBirth: "1990-01-01"},
		})
		s.Require().NoError(err)
		s.Require().NoError(s.svc.Submit(ctx, true))
		s.Require().NoError(s.svc.Review(s.ctxFor("admin-1"), userID, models.StatusRejected, notes))
	}

	s.Run("fails when no profile exists", func() {
		err := s.svc.Resubmit(s.ctxFor("nobody"), models.Resubmission{})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("forces pending and a fresh submittedAt regardless of prior status", func() {
		setup("u13", "")
		err := s.svc.Resubmit(s.ctxFor("u13"), models.Resubmission{
			Driving: models.DrivingDetails{LicenceNumber: "D-13"},
		})
		s.Require().NoError(err)

		stored := s.mustFind("u13")
		s.Equal(models.StatusPending, stored.AdminUse.Status)
		s.Require().NotNil(stored.Submission.SubmittedAt)
		s.True(stored.Submission.SubmittedAt.Equal(s.now))
	})

	s.Run("appends the generated line to prior notes", func() {
		setup("u14", "missing DL number")
		err := s.svc.Resubmit(s.ctxFor("u14"), models.Resubmission{})
		s.Require().NoError(err)

		want := "missing DL number\n\nProfile updated by user on 05 Mar 2025. Requires review."
		s.Equal(want, s.mustFind("u14").AdminUse.Notes)
	})

	s.Run("uses the generated line alone when no prior notes exist", func() {
		setup("u15", "")
		err := s.svc.Resubmit(s.ctxFor("u15"), models.Resubmission{})
		s.Require().NoError(err)
		s.Equal("Profile updated by user on 05 Mar 2025. Requires review.",
			s.mustFind("u15").AdminUse.Notes)
	})

	s.Run("explicit notes replace stored notes verbatim", func() {
		setup("u16", "missing DL number")
		explicit := "volunteer phoned in corrections"
		err := s.svc.Resubmit(s.ctxFor("u16"), models.Resubmission{Notes: &explicit})
		s.Require().NoError(err)
		s.Equal(explicit, s.mustFind("u16").AdminUse.Notes)
	})

	s.Run("sections omitted by the caller are wiped", func() {
		setup("u17", "")
		err := s.svc.Resubmit(s.ctxFor("u17"), models.Resubmission{
			Driving: models.DrivingDetails{LicenceNumber: "D-17"},
		})
		s.Require().NoError(err)

		stored := s.mustFind("u17")
		s.Equal("D-17", stored.Driving.LicenceNumber)
		s.Equal(models.PersonalDetails{}, stored.PersonalDetails)
	})
}

func (s *ProfileServiceSuite) TestListByStatus() {
	s.Run("rejects unknown status", func() {
		_, err := s.svc.ListByStatus(context.Background(), models.Status("archived"))
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("returns pending profiles oldest submission first", func() {
		for i, userID := range []id.UserID{"q1", "q2", "q3"} {
			ctx := requestcontext.WithUserID(context.Background(), userID)
			// Later users submit earlier, to prove the sort is by time.
			ctx = requestcontext.WithTime(ctx, s.now.Add(-time.Duration(i)*time.Hour))
			_, err := s.svc.Create(ctx, models.SectionData{})
			s.Require().NoError(err)
			s.Require().NoError(s.svc.Submit(ctx, true))
		}

		records, err := s.svc.ListByStatus(context.Background(), models.StatusPending)
		s.Require().NoError(err)
		s.Require().Len(records, 3)
		s.Equal(id.UserID("q3"), records[0].UserID)
		s.Equal(id.UserID("q1"), records[2].UserID)
	})
}

// TestLifecycleEndToEnd walks the full workflow: create, edit, submit,
// reject, resubmit.
func (s *ProfileServiceSuite) TestLifecycleEndToEnd() {
	ctx := s.ctxFor("vol-1")

	_, err := s.svc.Create(ctx, models.SectionData{})
	s.Require().NoError(err)

	err = s.svc.UpdateSection(ctx, models.SectionDriving,
		models.SectionData{Driving: &models.DrivingDetails{LicenceNumber: "OLD-1", Points: 0}})
	s.Require().NoError(err)
	s.Equal(models.StatusDraft, s.mustFind("vol-1").AdminUse.Status)

	s.Require().NoError(s.svc.Submit(ctx, true))
	afterSubmit := s.mustFind("vol-1")
	s.Equal(models.StatusPending, afterSubmit.AdminUse.Status)
	s.Require().NotNil(afterSubmit.Submission.SubmittedAt)

	err = s.svc.Review(s.ctxFor("admin-1"), "vol-1", models.StatusRejected, "missing DL number")
	s.Require().NoError(err)

	err = s.svc.Resubmit(ctx, models.Resubmission{
		Driving: models.DrivingDetails{LicenceNumber: "NEW-1", Points: 0},
	})
	s.Require().NoError(err)

	final := s.mustFind("vol-1")
	s.Equal(models.StatusPending, final.AdminUse.Status)
	s.Equal("NEW-1", final.Driving.LicenceNumber)
	s.Equal(fmt.Sprintf("missing DL number\n\nProfile updated by user on %s. Requires review.",
		s.now.Format("02 Jan 2006")), final.AdminUse.Notes)
}
