// Package service implements the profile lifecycle engine: status
// transitions, the resubmission note policy, and the field-level update
// rules around review.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/markdevonuk/portal/internal/mail"
	profilemetrics "github.com/markdevonuk/portal/internal/profile/metrics"
	"github.com/markdevonuk/portal/internal/profile/models"
	"github.com/markdevonuk/portal/internal/profile/store"
	id "github.com/markdevonuk/portal/pkg/domain"
	dErrors "github.com/markdevonuk/portal/pkg/domainerrors"
	"github.com/markdevonuk/portal/pkg/platform/sentinel"
	pstrings "github.com/markdevonuk/portal/pkg/platform/strings"
	"github.com/markdevonuk/portal/pkg/requestcontext"
)

// Notifier enqueues notification mail. Producers never wait for delivery.
type Notifier interface {
	Enqueue(ctx context.Context, msg mail.Message) error
}

// Directory resolves a volunteer's contact address for outcome mail.
type Directory interface {
	Email(ctx context.Context, userID id.UserID) (string, error)
}

// Service owns every status transition. The actor is read from the request
// context, never from process-global state.
type Service struct {
	profiles   store.Store
	logger     *slog.Logger
	metrics    *profilemetrics.Metrics
	notifier   Notifier
	adminEmail string
	directory  Directory
}

type serviceConfig struct {
	logger     *slog.Logger
	metrics    *profilemetrics.Metrics
	notifier   Notifier
	adminEmail string
	directory  Directory
}

// Option configures optional service dependencies.
type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

func WithMetrics(m *profilemetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

// WithNotifier enables admin notification mail on submit/resubmit.
func WithNotifier(n Notifier, adminEmail string) Option {
	return func(c *serviceConfig) {
		c.notifier = n
		c.adminEmail = adminEmail
	}
}

// WithDirectory enables review outcome mail to the applicant.
func WithDirectory(d Directory) Option {
	return func(c *serviceConfig) { c.directory = d }
}

func New(profiles store.Store, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Service{
		profiles:   profiles,
		logger:     cfg.logger,
		metrics:    cfg.metrics,
		notifier:   cfg.notifier,
		adminEmail: cfg.adminEmail,
		directory:  cfg.directory,
	}
}

// Create stores a fresh profile in draft for the bound actor. All four
// sections are present in the stored document, with zero values substituted
// for sections the caller did not supply. Re-creating over an existing
// profile is refused so a stray second call can never wipe saved sections.
func (s *Service) Create(ctx context.Context, seed models.SectionData) (*models.Profile, error) {
	userID, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.profiles.Find(ctx, userID); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "profile already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, s.storeErr(ctx, err, "read profile")
	}

	normalizeMedical(seed.MedicalQualifications)
	profile := models.NewProfile(seed)
	if err := s.profiles.Save(ctx, userID, profile); err != nil {
		return nil, s.storeErr(ctx, err, "create profile")
	}
	return &profile, nil
}

// Get returns the bound actor's profile, or (nil, nil) when none exists.
// A read miss is an explicit no-profile result, not an error.
func (s *Service) Get(ctx context.Context) (*models.Profile, error) {
	userID, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.Find(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.storeErr(ctx, err, "read profile")
	}
	return profile, nil
}

// GetFor returns any user's profile for the review console. Unlike Get, a
// missing profile is reported as not found.
func (s *Service) GetFor(ctx context.Context, target id.UserID) (*models.Profile, error) {
	if target.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "target user id is required")
	}
	profile, err := s.profiles.Find(ctx, target)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "no profile found for user")
	}
	if err != nil {
		return nil, s.storeErr(ctx, err, "read profile")
	}
	return profile, nil
}

// UpdateSection saves one self-service section. If no profile exists yet the
// update behaves as Create seeded with just that section. Editing a profile
// that is mid-review withdraws it from the queue (status back to draft);
// editing a draft, approved, or rejected profile leaves status untouched.
func (s *Service) UpdateSection(ctx context.Context, sec models.Section, data models.SectionData) error {
	userID, err := requireActor(ctx)
	if err != nil {
		return err
	}
	if !data.Matches(sec) {
		return dErrors.Newf(dErrors.CodeInvalidInput, "payload does not match section %q", sec)
	}
	normalizeMedical(data.MedicalQualifications)

	current, err := s.profiles.Find(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		profile := models.NewProfile(data)
		if err := s.profiles.Save(ctx, userID, profile); err != nil {
			return s.storeErr(ctx, err, "create profile from section")
		}
		return nil
	}
	if err != nil {
		return s.storeErr(ctx, err, "read profile")
	}

	patch := store.Patch{
		PersonalDetails:       data.PersonalDetails,
		Driving:               data.Driving,
		MedicalQualifications: data.MedicalQualifications,
	}
	if next, writes := models.Next(current.AdminUse.Status, models.OpEditSection); writes {
		patch.Status = &next
	}

	if err := s.profiles.Merge(ctx, userID, patch); err != nil {
		return s.storeErr(ctx, err, "update section")
	}
	return nil
}

// Submit places the profile in the review queue. This is the only operation,
// together with Resubmit, that sets status pending or touches submittedAt.
func (s *Service) Submit(ctx context.Context, agreedToTerms bool) error {
	start := time.Now()
	userID, err := requireActor(ctx)
	if err != nil {
		return err
	}
	if !agreedToTerms {
		return dErrors.New(dErrors.CodeInvalidInput, "you must agree to the terms before submitting")
	}

	current, err := s.profiles.Find(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "no profile to submit")
	}
	if err != nil {
		return s.storeErr(ctx, err, "read profile")
	}

	now := requestcontext.Now(ctx)
	next, _ := models.Next(current.AdminUse.Status, models.OpSubmit)
	if err := s.profiles.Merge(ctx, userID, store.Patch{
		Submission: &models.Submission{AgreedToTerms: true, SubmittedAt: &now},
		Status:     &next,
	}); err != nil {
		return s.storeErr(ctx, err, "submit profile")
	}

	if s.metrics != nil {
		s.metrics.IncrementSubmission()
		s.metrics.ObserveSubmit(start)
	}
	s.notifyAdmins(ctx, "Profile submitted for review",
		fmt.Sprintf("Volunteer %s submitted their profile for review.", userID))
	return nil
}

// Review records an admin decision: approved or rejected, with notes that
// overwrite whatever was stored before. The reviewer is whatever actor the
// transport bound; the review console enforces who may reach this path.
func (s *Service) Review(ctx context.Context, target id.UserID, decision models.Status, notes string) error {
	if target.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "target user id is required")
	}
	if !decision.IsDecision() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "review decision must be %q or %q",
			models.StatusApproved, models.StatusRejected)
	}

	if _, err := s.profiles.Find(ctx, target); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no profile found for user")
		}
		return s.storeErr(ctx, err, "read profile")
	}

	if err := s.profiles.Merge(ctx, target, store.Patch{Review: &store.Review{
		Status:     decision,
		ApprovedBy: requestcontext.UserID(ctx),
		Notes:      notes,
		ReviewedAt: requestcontext.Now(ctx),
	}}); err != nil {
		return s.storeErr(ctx, err, "record review")
	}

	if s.metrics != nil {
		s.metrics.IncrementReview(string(decision))
	}
	s.logger.InfoContext(ctx, "profile reviewed",
		"target_user_id", target,
		"decision", decision,
	)
	s.notifyApplicant(ctx, target, decision, notes)
	return nil
}

// Resubmit amends an already-submitted profile and forces re-review. All
// three sections are overwritten with the supplied values. Prior review
// notes are preserved: unless the caller supplies explicit replacement
// notes, a generated update line is appended to whatever the reviewer wrote.
func (s *Service) Resubmit(ctx context.Context, amendment models.Resubmission) error {
	userID, err := requireActor(ctx)
	if err != nil {
		return err
	}

	current, err := s.profiles.Find(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		// The only valid path is an amendment of an existing submission.
		return dErrors.New(dErrors.CodeNotFound, "no profile to resubmit")
	}
	if err != nil {
		return s.storeErr(ctx, err, "read profile")
	}

	normalizeMedical(&amendment.MedicalQualifications)
	now := requestcontext.Now(ctx)
	notes := resubmissionNotes(current.AdminUse.Notes, amendment.Notes, now)
	next, _ := models.Next(current.AdminUse.Status, models.OpResubmit)

	if err := s.profiles.Merge(ctx, userID, store.Patch{
		PersonalDetails:       &amendment.PersonalDetails,
		Driving:               &amendment.Driving,
		MedicalQualifications: &amendment.MedicalQualifications,
		Submission: &models.Submission{
			AgreedToTerms: current.Submission.AgreedToTerms,
			SubmittedAt:   &now,
		},
		Status: &next,
		Notes:  &notes,
	}); err != nil {
		return s.storeErr(ctx, err, "resubmit profile")
	}

	if s.metrics != nil {
		s.metrics.IncrementResubmission()
	}
	s.notifyAdmins(ctx, "Profile resubmitted",
		fmt.Sprintf("Volunteer %s updated and resubmitted their profile. Requires review.", userID))
	return nil
}

// ListByStatus returns profiles in the given stage for the review console,
// oldest submission first.
func (s *Service) ListByStatus(ctx context.Context, status models.Status) ([]models.Record, error) {
	if !status.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown status %q", status)
	}
	records, err := s.profiles.ListByStatus(ctx, status)
	if err != nil {
		return nil, s.storeErr(ctx, err, "list profiles")
	}
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i].Profile.Submission.SubmittedAt, records[j].Profile.Submission.SubmittedAt
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
	return records, nil
}

// normalizeMedical cleans the registration number list before it is stored:
// trimmed, deduplicated, empty entries dropped.
func normalizeMedical(m *models.MedicalQualifications) {
	if m != nil {
		m.RegistrationNumbers = pstrings.DedupeAndTrim(m.RegistrationNumbers)
	}
}

// resubmissionNotes implements the note-preservation policy, in precedence
// order: explicit notes replace verbatim; otherwise a generated line is
// appended to prior notes; otherwise the generated line stands alone.
func resubmissionNotes(prior string, explicit *string, now time.Time) string {
	if explicit != nil {
		return *explicit
	}
	line := fmt.Sprintf("Profile updated by user on %s. Requires review.", now.Format("02 Jan 2006"))
	if prior != "" {
		return prior + "\n\n" + line
	}
	return line
}

func (s *Service) notifyAdmins(ctx context.Context, subject, text string) {
	if s.notifier == nil || s.adminEmail == "" {
		return
	}
	err := s.notifier.Enqueue(ctx, mail.Message{
		To:         s.adminEmail,
		Subject:    subject,
		Text:       text,
		EnqueuedAt: requestcontext.Now(ctx),
	})
	if err != nil {
		// Notification mail is fire-and-forget; the lifecycle write already
		// succeeded, so log and move on.
		s.logger.WarnContext(ctx, "failed to enqueue admin notification", "error", err)
	}
}

// notifyApplicant mails the review outcome to the volunteer. Best effort:
// a missing address or queue failure never fails the review itself.
func (s *Service) notifyApplicant(ctx context.Context, target id.UserID, decision models.Status, notes string) {
	if s.notifier == nil || s.directory == nil {
		return
	}
	address, err := s.directory.Email(ctx, target)
	if err != nil || address == "" {
		s.logger.WarnContext(ctx, "no contact address for review outcome mail",
			"target_user_id", target, "error", err)
		return
	}

	subject := "Your volunteer profile has been approved"
	text := "Your volunteer profile has been reviewed and approved."
	if decision == models.StatusRejected {
		subject = "Your volunteer profile needs changes"
		text = "Your volunteer profile was reviewed and needs changes before it can be approved."
		if notes != "" {
			text += "\n\nReviewer notes:\n" + notes
		}
	}
	err = s.notifier.Enqueue(ctx, mail.Message{
		To:         address,
		Subject:    subject,
		Text:       text,
		EnqueuedAt: requestcontext.Now(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to enqueue review outcome mail", "error", err)
	}
}

func (s *Service) storeErr(ctx context.Context, err error, action string) error {
	s.logger.ErrorContext(ctx, "profile store operation failed",
		"action", action,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+action)
}

func requireActor(ctx context.Context) (id.UserID, error) {
	userID := requestcontext.UserID(ctx)
	if userID.IsZero() {
		return "", dErrors.New(dErrors.CodeUnauthenticated, "no signed-in user")
	}
	return userID, nil
}
