package store

import (
	"context"
	"time"

	"github.com/parkwarden/parkwarden/pkg/models"
)

// Store provides the persistence interface of the compliance core.
//
// Thread Safety: Implementations must be safe for concurrent use from
// multiple goroutines. The open-session and decision-per-session invariants
// are enforced by the schema; callers treat the corresponding errors as
// benign race outcomes where the spec of the operation says so.
type Store interface {
	// ============================================
	// SITE OPERATIONS
	// ============================================

	// GetSite returns a site by its short code.
	// Returns models.ErrSiteNotFound if the site doesn't exist.
	GetSite(ctx context.Context, id string) (*models.Site, error)

	// ListSites returns all sites ordered by code.
	ListSites(ctx context.Context) ([]*models.Site, error)

	// ListActiveSites returns all active sites ordered by code.
	ListActiveSites(ctx context.Context) ([]*models.Site, error)

	// SaveSite upserts a site (admin tooling and bootstrap seeds).
	SaveSite(ctx context.Context, site *models.Site) error

	// ============================================
	// MOVEMENT OPERATIONS
	// ============================================

	// GetMovement returns a movement by id.
	GetMovement(ctx context.Context, id string) (*models.Movement, error)

	// GetMovementByIdentity returns a movement by (site, plate, timestamp).
	// Returns models.ErrMovementNotFound if no such movement exists.
	GetMovementByIdentity(ctx context.Context, siteID, vrm string, timestamp time.Time) (*models.Movement, error)

	// CreateMovement persists a new movement.
	// Returns models.ErrDuplicateMovement on a natural-key clash.
	CreateMovement(ctx context.Context, m *models.Movement) (string, error)

	// UpdateMovementImages replaces the stored image list of a movement.
	UpdateMovementImages(ctx context.Context, id, images string) error

	// SetMovementReview flips the requires_review gate on a movement.
	SetMovementReview(ctx context.Context, id string, requiresReview bool) error

	// SetMovementDiscarded marks a movement discarded.
	SetMovementDiscarded(ctx context.Context, id string) error

	// UpdateMovementVRM rewrites the plate after a review correction and
	// clears the review gate.
	UpdateMovementVRM(ctx context.Context, id, vrm string) error

	// ============================================
	// SESSION OPERATIONS
	// ============================================

	// GetSession returns a session by id.
	GetSession(ctx context.Context, id string) (*models.Session, error)

	// GetOpenSession returns the open session for (site, plate).
	// Returns models.ErrSessionNotFound when none is open.
	GetOpenSession(ctx context.Context, siteID, vrm string) (*models.Session, error)

	// CreateSession opens a new session.
	// Returns models.ErrOpenSessionExists when an open session already
	// exists for (site, plate) — the loser of a concurrent entry race.
	CreateSession(ctx context.Context, session *models.Session) (string, error)

	// CloseSession completes an open session; idempotent under races via
	// the end_time IS NULL guard.
	CloseSession(ctx context.Context, id string, exitMovementID string, endTime time.Time, durationMinutes int64, status models.SessionStatus) error

	// ExpireSession auto-closes a stale open session.
	ExpireSession(ctx context.Context, id string, endTime time.Time, durationMinutes int64) error

	// ListStaleOpenSessions returns open sessions started before cutoff.
	ListStaleOpenSessions(ctx context.Context, cutoff time.Time, limit int) ([]*models.Session, error)

	// FindCompletedSessionsOverlapping returns completed sessions for
	// (vrm, site) overlapping [from, to].
	FindCompletedSessionsOverlapping(ctx context.Context, vrm, siteID string, from, to time.Time) ([]*models.Session, error)

	// FindCompletedSessionsForVRM returns completed sessions for a plate;
	// nil siteID means all sites.
	FindCompletedSessionsForVRM(ctx context.Context, vrm string, siteID *string) ([]*models.Session, error)

	// ListCompletedSessionsForSite returns completed sessions at a site.
	ListCompletedSessionsForSite(ctx context.Context, siteID string, limit int) ([]*models.Session, error)

	// ============================================
	// PERMIT OPERATIONS
	// ============================================

	// GetPermit returns a permit by id.
	GetPermit(ctx context.Context, id string) (*models.Permit, error)

	// UpsertPermit inserts or updates a permit by its identity (board item
	// id when present, else (vrm, site, type)). Returns (id, isNew).
	UpsertPermit(ctx context.Context, permit *models.Permit) (string, bool, error)

	// ListPermitsForVRM returns permits for a plate scoped to a site or global.
	ListPermitsForVRM(ctx context.Context, vrm, siteID string) ([]*models.Permit, error)

	// ListActivePermitsForSite returns permits applying at a site at an instant.
	ListActivePermitsForSite(ctx context.Context, siteID string, at time.Time) ([]*models.Permit, error)

	// ============================================
	// PAYMENT OPERATIONS
	// ============================================

	// GetPayment returns a payment by id.
	GetPayment(ctx context.Context, id string) (*models.Payment, error)

	// GetPaymentByReference returns a payment by (external reference, source).
	GetPaymentByReference(ctx context.Context, externalReference, source string) (*models.Payment, error)

	// CreatePayment persists a payment.
	// Returns models.ErrDuplicatePayment on a dedupe-key clash.
	CreatePayment(ctx context.Context, p *models.Payment) (string, error)

	// ListPaymentsOverlapping returns payments intersecting [from, to].
	ListPaymentsOverlapping(ctx context.Context, vrm, siteID string, from, to time.Time) ([]*models.Payment, error)

	// SiteHasPayments reports whether any payment was ever recorded at a site.
	SiteHasPayments(ctx context.Context, siteID string) (bool, error)

	// ListActivePaymentsForSite returns payments covering an instant at a site.
	ListActivePaymentsForSite(ctx context.Context, siteID string, at time.Time) ([]*models.Payment, error)

	// ============================================
	// DECISION OPERATIONS
	// ============================================

	// GetDecision returns a decision by id.
	GetDecision(ctx context.Context, id string) (*models.Decision, error)

	// GetDecisionBySession returns the decision for a session.
	GetDecisionBySession(ctx context.Context, sessionID string) (*models.Decision, error)

	// CreateDecision persists a new decision.
	// Returns models.ErrDecisionExists when the session already has one.
	CreateDecision(ctx context.Context, d *models.Decision) (string, error)

	// UpdateDecisionIfMutable overwrites a decision only while status is
	// NEW or CANDIDATE. Returns false when the human-reviewed guard wins.
	UpdateDecisionIfMutable(ctx context.Context, d *models.Decision) (bool, error)

	// SetDecisionStatus transitions a decision's workflow status.
	SetDecisionStatus(ctx context.Context, id string, status models.DecisionStatus) error

	// ListUnreviewedCandidates returns enforcement candidates open to
	// automatic re-evaluation, oldest first.
	ListUnreviewedCandidates(ctx context.Context, limit int) ([]*models.Decision, error)

	// ListDecisions returns decisions matching the filter.
	ListDecisions(ctx context.Context, filter DecisionFilter) ([]*models.Decision, error)

	// FlipCandidatesForSuspension bulk-resolves unreviewed candidates in a
	// suspension range. Returns the flipped row count.
	FlipCandidatesForSuspension(ctx context.Context, siteID string, from time.Time, to *time.Time) (int64, error)

	// ============================================
	// PLATE REVIEW OPERATIONS
	// ============================================

	// GetPlateReview returns a review by id.
	GetPlateReview(ctx context.Context, id string) (*models.PlateReview, error)

	// GetPlateReviewByMovement returns the review attached to a movement.
	GetPlateReviewByMovement(ctx context.Context, movementID string) (*models.PlateReview, error)

	// CreatePlateReview queues a suspicious movement for operator review.
	CreatePlateReview(ctx context.Context, r *models.PlateReview) (string, error)

	// ResolvePlateReviewIfPending applies a resolution while still PENDING.
	// Returns false when the review already left PENDING.
	ResolvePlateReviewIfPending(ctx context.Context, r *models.PlateReview) (bool, error)

	// ListPlateReviews returns reviews in a status, oldest first.
	ListPlateReviews(ctx context.Context, status models.ReviewStatus, limit int) ([]*models.PlateReview, error)

	// ListPendingReviewsByReason returns pending reviews carrying a
	// suspicion tag, oldest first.
	ListPendingReviewsByReason(ctx context.Context, reason string, limit int) ([]*models.PlateReview, error)

	// ============================================
	// ENFORCEMENT SUSPENSION OPERATIONS
	// ============================================

	// GetSuspension returns a suspension by id.
	GetSuspension(ctx context.Context, id string) (*models.EnforcementSuspension, error)

	// CreateSuspension persists a suspension.
	CreateSuspension(ctx context.Context, susp *models.EnforcementSuspension) (string, error)

	// EndSuspension closes an active suspension.
	// Returns models.ErrSuspensionEnded if already ended.
	EndSuspension(ctx context.Context, id string, endedBy, reason string, at time.Time) error

	// ActiveSuspensionAt returns the suspension in force at a site and
	// instant, or nil.
	ActiveSuspensionAt(ctx context.Context, siteID string, at time.Time) (*models.EnforcementSuspension, error)

	// ListSuspensions returns suspensions, optionally scoped to a site.
	ListSuspensions(ctx context.Context, siteID string) ([]*models.EnforcementSuspension, error)

	// ============================================
	// PLATE RULE OPERATIONS
	// ============================================

	// ListActivePlateRules returns active classification rules in priority order.
	ListActivePlateRules(ctx context.Context) ([]*models.PlateRule, error)

	// SavePlateRule upserts a classification rule.
	SavePlateRule(ctx context.Context, rule *models.PlateRule) (string, error)

	// ============================================
	// AUDIT OPERATIONS
	// ============================================

	// AppendAudit writes one record to the append-only audit trail.
	AppendAudit(ctx context.Context, record *models.AuditRecord) (string, error)

	// ListAuditForEntity returns the audit trail of one entity, oldest first.
	ListAuditForEntity(ctx context.Context, entityType, entityID string) ([]*models.AuditRecord, error)

	// ============================================
	// JOB LOCK OPERATIONS
	// ============================================

	// AcquireJobLock takes a named singleton lock.
	// Returns models.ErrJobLockHeld when another run holds it.
	AcquireJobLock(ctx context.Context, name, holder string, at time.Time) error

	// ReleaseJobLock drops a named lock if held by this holder.
	ReleaseJobLock(ctx context.Context, name, holder string) error

	// ClearJobLocksForHolder drops every lock owned by a node.
	ClearJobLocksForHolder(ctx context.Context, holder string) (int64, error)

	// ============================================
	// LIFECYCLE
	// ============================================

	// Ping verifies the database connection is alive.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

// Interface conformance check.
var _ Store = (*GORMStore)(nil)
