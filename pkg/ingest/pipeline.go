// Package ingest accepts movement, payment and permit events from external
// feeds. Each operation is idempotent on its natural key; downstream
// processing failures never fail the ingestion call, the event itself must
// persist.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/parkwarden/parkwarden/internal/logger"
	"github.com/parkwarden/parkwarden/pkg/audit"
	"github.com/parkwarden/parkwarden/pkg/metrics"
	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/parkwarden/parkwarden/pkg/plate"
	"github.com/parkwarden/parkwarden/pkg/reconcile"
	"github.com/parkwarden/parkwarden/pkg/session"
	"github.com/parkwarden/parkwarden/pkg/store"
)

// MovementInput is a raw camera event.
type MovementInput struct {
	SiteID      string          `json:"siteId" validate:"required"`
	Timestamp   time.Time       `json:"timestamp" validate:"required"`
	VRM         string          `json:"vrm"`
	PlateNumber string          `json:"plateNumber"`
	CameraID    string          `json:"cameraId"`
	Direction   string          `json:"direction"`
	Confidence  *float64        `json:"confidence" validate:"omitempty,gte=0,lte=1"`
	Images      []models.Image  `json:"images"`
	RawData     json.RawMessage `json:"rawData"`
}

// Plate returns the plate field the feed populated.
func (in *MovementInput) Plate() string {
	if in.VRM != "" {
		return in.VRM
	}
	return in.PlateNumber
}

// PaymentInput is a raw payment event.
type PaymentInput struct {
	VRM               string    `json:"vrm" validate:"required"`
	SiteID            string    `json:"siteId" validate:"required"`
	Amount            float64   `json:"amount" validate:"gte=0"`
	StartTime         time.Time `json:"startTime" validate:"required"`
	ExpiryTime        time.Time `json:"expiryTime" validate:"required"`
	Source            string    `json:"source" validate:"required"`
	ExternalReference string    `json:"externalReference" validate:"required"`
}

// PermitInput is a raw permit event.
type PermitInput struct {
	VRM    string  `json:"vrm" validate:"required"`
	SiteID *string `json:"siteId"`
	Type   string  `json:"type" validate:"required"`
	// Active defaults to true when the payload omits it.
	Active      *bool      `json:"active"`
	StartDate   time.Time  `json:"startDate" validate:"required"`
	EndDate     *time.Time `json:"endDate"`
	Source      string     `json:"source"`
	BoardItemID *string    `json:"boardItemId"`
}

// MovementResult reports what one movement ingestion did.
type MovementResult struct {
	Movement *models.Movement    `json:"movement"`
	IsNew    bool                `json:"is_new"`
	Review   *models.PlateReview `json:"review,omitempty"`
	Session  *models.Session     `json:"session,omitempty"`
}

// PaymentResult reports what one payment ingestion did.
type PaymentResult struct {
	Payment *models.Payment `json:"payment"`
	IsNew   bool            `json:"is_new"`
}

// PermitResult reports what one permit ingestion did.
type PermitResult struct {
	Permit *models.Permit `json:"permit"`
	IsNew  bool           `json:"is_new"`
}

// Pipeline is the ingestion front door.
type Pipeline struct {
	store         store.Store
	validator     *plate.Validator
	reconstructor *session.Reconstructor
	dispatcher    *reconcile.Dispatcher
	audit         *audit.Sink
	validate      *validator.Validate
	metrics       *metrics.CoreMetrics
}

// NewPipeline creates an ingestion pipeline. The plate validator is built
// once from the active classification rules.
func NewPipeline(ctx context.Context, st store.Store, reconstructor *session.Reconstructor, dispatcher *reconcile.Dispatcher, sink *audit.Sink) (*Pipeline, error) {
	rules, err := st.ListActivePlateRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load plate rules: %w", err)
	}

	return &Pipeline{
		store:         st,
		validator:     plate.NewValidator(rules),
		reconstructor: reconstructor,
		dispatcher:    dispatcher,
		audit:         sink,
		validate:      validator.New(),
	}, nil
}

// SetMetrics attaches domain metrics. A nil argument leaves instrumentation
// as a no-op.
func (p *Pipeline) SetMetrics(m *metrics.CoreMetrics) {
	p.metrics = m
}

// Validator exposes the plate validator so review tooling applies the same
// classification rules as ingestion.
func (p *Pipeline) Validator() *plate.Validator {
	return p.validator
}

// IngestMovement processes one camera event. Dedupe key is
// (site, plate, timestamp); a replayed event only patches remote image URLs.
func (p *Pipeline) IngestMovement(ctx context.Context, input *MovementInput) (*MovementResult, error) {
	if err := p.validate.Struct(input); err != nil {
		p.metrics.RecordIngest("movement", "rejected")
		return nil, fmt.Errorf("invalid movement payload: %w", err)
	}
	rawPlate := input.Plate()
	if rawPlate == "" {
		p.metrics.RecordIngest("movement", "rejected")
		return nil, models.ErrMissingPlate
	}

	site, err := p.store.GetSite(ctx, input.SiteID)
	if err != nil {
		return nil, err
	}
	cfg, err := site.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("parse config for site %s: %w", site.ID, err)
	}

	vrm := plate.Normalize(rawPlate)
	direction := resolveDirection(cfg, input.CameraID, input.Direction)
	timestamp := input.Timestamp.UTC()

	existing, err := p.store.GetMovementByIdentity(ctx, site.ID, vrm, timestamp)
	if err != nil && !errors.Is(err, models.ErrMovementNotFound) {
		return nil, err
	}
	if existing != nil {
		return p.patchDuplicate(ctx, existing, input.Images)
	}

	movement := &models.Movement{
		SiteID:     site.ID,
		VRM:        vrm,
		Timestamp:  timestamp,
		CameraID:   input.CameraID,
		Direction:  direction,
		Confidence: input.Confidence,
	}
	if len(input.RawData) > 0 {
		movement.RawPayload = string(input.RawData)
	}
	if err := movement.SetImages(input.Images); err != nil {
		return nil, fmt.Errorf("serialize images: %w", err)
	}

	suspicion := p.validator.DetectSuspicious(vrm, input.Confidence)
	movement.RequiresReview = suspicion.IsSuspicious

	if _, err := p.store.CreateMovement(ctx, movement); err != nil {
		if errors.Is(err, models.ErrDuplicateMovement) {
			// Lost an ingest race for the same event.
			winner, lookupErr := p.store.GetMovementByIdentity(ctx, site.ID, vrm, timestamp)
			if lookupErr != nil {
				return nil, lookupErr
			}
			return p.patchDuplicate(ctx, winner, input.Images)
		}
		return nil, err
	}

	result := &MovementResult{Movement: movement, IsNew: true}
	p.metrics.RecordIngest("movement", "new")
	p.audit.System(ctx, models.AuditMovementIngested, audit.EntityMovement, movement.ID, map[string]any{
		"site_id":   site.ID,
		"vrm":       vrm,
		"direction": string(direction),
		"camera_id": input.CameraID,
	})

	if suspicion.IsSuspicious {
		result.Review = p.openReview(ctx, movement, rawPlate, suspicion)
	}

	if movement.Processable() {
		// Synchronous handoff; a session failure never fails the ingest.
		sess, err := p.reconstructor.ProcessMovement(ctx, movement)
		switch {
		case errors.Is(err, models.ErrExitBeforeEntry):
			// Already warned by the reconstructor; the movement stays
			// recorded and the open session stands.
		case err != nil:
			logger.ErrorCtx(ctx, "session reconstruction failed",
				logger.KeyMovementID, movement.ID,
				logger.KeySiteID, site.ID,
				logger.KeyVRM, vrm,
				logger.KeyError, err)
		default:
			result.Session = sess
		}
	}

	logger.InfoCtx(ctx, "movement ingested",
		logger.KeyMovementID, movement.ID,
		logger.KeySiteID, site.ID,
		logger.KeyVRM, vrm,
		logger.KeyDirection, string(direction),
		"requires_review", movement.RequiresReview)
	return result, nil
}

// patchDuplicate handles a replayed movement: only image URLs that pointed
// to a remote host may be replaced, everything else is immutable.
func (p *Pipeline) patchDuplicate(ctx context.Context, existing *models.Movement, incoming []models.Image) (*MovementResult, error) {
	p.metrics.RecordIngest("movement", "duplicate")
	p.audit.System(ctx, models.AuditMovementDuplicate, audit.EntityMovement, existing.ID, map[string]any{
		"site_id": existing.SiteID,
		"vrm":     existing.VRM,
	})

	if len(incoming) > 0 {
		stored, err := existing.GetImages()
		if err != nil {
			return nil, fmt.Errorf("parse stored images: %w", err)
		}
		if patched, changed := patchRemoteImages(stored, incoming); changed {
			if err := existing.SetImages(patched); err != nil {
				return nil, err
			}
			if err := p.store.UpdateMovementImages(ctx, existing.ID, existing.Images); err != nil {
				return nil, err
			}
			logger.InfoCtx(ctx, "duplicate movement patched remote image urls",
				logger.KeyMovementID, existing.ID)
		}
	}
	return &MovementResult{Movement: existing, IsNew: false}, nil
}

// patchRemoteImages replaces stored remote URLs with incoming URLs of the
// same image type. Locally archived URLs are never overwritten.
func patchRemoteImages(stored, incoming []models.Image) ([]models.Image, bool) {
	byType := make(map[string]string, len(incoming))
	for _, img := range incoming {
		if img.URL != "" {
			byType[img.Type] = img.URL
		}
	}

	changed := false
	for i := range stored {
		if !isRemoteURL(stored[i].URL) {
			continue
		}
		if url, ok := byType[stored[i].Type]; ok && url != stored[i].URL {
			stored[i].URL = url
			changed = true
		}
	}
	return stored, changed
}

func isRemoteURL(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

func (p *Pipeline) openReview(ctx context.Context, movement *models.Movement, originalPlate string, suspicion plate.SuspicionResult) *models.PlateReview {
	review := &models.PlateReview{
		MovementID:       movement.ID,
		OriginalVRM:      originalPlate,
		NormalizedVRM:    movement.VRM,
		SiteID:           movement.SiteID,
		Timestamp:        movement.Timestamp,
		ValidationStatus: suspicion.ValidationStatus,
		ReviewStatus:     models.ReviewPending,
		Images:           movement.Images,
	}
	if err := review.SetSuspicionReasons(suspicion.Reasons); err != nil {
		logger.ErrorCtx(ctx, "serialize suspicion reasons failed",
			logger.KeyMovementID, movement.ID,
			logger.KeyError, err)
		return nil
	}
	if _, err := p.store.CreatePlateReview(ctx, review); err != nil {
		logger.ErrorCtx(ctx, "plate review creation failed",
			logger.KeyMovementID, movement.ID,
			logger.KeyError, err)
		return nil
	}

	p.audit.System(ctx, models.AuditPlateReviewCreated, audit.EntityReview, review.ID, map[string]any{
		"movement_id": movement.ID,
		"site_id":     movement.SiteID,
		"vrm":         movement.VRM,
		"reasons":     suspicion.Reasons,
	})
	logger.InfoCtx(ctx, "suspicious plate queued for review",
		logger.KeyReviewID, review.ID,
		logger.KeyMovementID, movement.ID,
		logger.KeyVRM, movement.VRM,
		"reasons", suspicion.Reasons)
	return review
}

// IngestPayment persists one payment. Dedupe key is
// (externalReference, source); reconciliation runs in the background.
func (p *Pipeline) IngestPayment(ctx context.Context, input *PaymentInput) (*PaymentResult, error) {
	if err := p.validate.Struct(input); err != nil {
		p.metrics.RecordIngest("payment", "rejected")
		return nil, fmt.Errorf("invalid payment payload: %w", err)
	}

	payment := &models.Payment{
		VRM:               plate.Normalize(input.VRM),
		SiteID:            input.SiteID,
		Amount:            input.Amount,
		StartTime:         input.StartTime.UTC(),
		ExpiryTime:        input.ExpiryTime.UTC(),
		Source:            input.Source,
		ExternalReference: input.ExternalReference,
	}
	if _, err := p.store.CreatePayment(ctx, payment); err != nil {
		if errors.Is(err, models.ErrDuplicatePayment) {
			existing, lookupErr := p.store.GetPaymentByReference(ctx, input.ExternalReference, input.Source)
			if lookupErr != nil {
				return nil, lookupErr
			}
			p.metrics.RecordIngest("payment", "duplicate")
			return &PaymentResult{Payment: existing, IsNew: false}, nil
		}
		return nil, err
	}

	p.metrics.RecordIngest("payment", "new")
	p.audit.System(ctx, models.AuditPaymentIngested, audit.EntityPayment, payment.ID, map[string]any{
		"site_id":            payment.SiteID,
		"vrm":                payment.VRM,
		"external_reference": payment.ExternalReference,
		"source":             payment.Source,
	})
	logger.InfoCtx(ctx, "payment ingested",
		logger.KeyPaymentID, payment.ID,
		logger.KeySiteID, payment.SiteID,
		logger.KeyVRM, payment.VRM)

	if err := p.dispatcher.EnqueuePayment(ctx, payment.VRM, payment.SiteID, payment.StartTime, payment.ExpiryTime, payment.ID); err != nil {
		// The payment persisted; a missed trigger is picked up by the sweep.
		logger.ErrorCtx(ctx, "payment reconciliation enqueue failed",
			logger.KeyPaymentID, payment.ID,
			logger.KeyError, err)
	}
	return &PaymentResult{Payment: payment, IsNew: true}, nil
}

// IngestPermit upserts one permit. Identity is the external board item id
// when present, otherwise (vrm, site, type). Reconciliation runs in the
// background.
func (p *Pipeline) IngestPermit(ctx context.Context, input *PermitInput) (*PermitResult, error) {
	if err := p.validate.Struct(input); err != nil {
		p.metrics.RecordIngest("permit", "rejected")
		return nil, fmt.Errorf("invalid permit payload: %w", err)
	}

	permit := &models.Permit{
		VRM:         plate.Normalize(input.VRM),
		SiteID:      input.SiteID,
		Type:        models.PermitType(input.Type),
		Active:      input.Active == nil || *input.Active,
		StartDate:   input.StartDate.UTC(),
		EndDate:     input.EndDate,
		Source:      input.Source,
		BoardItemID: input.BoardItemID,
	}
	_, isNew, err := p.store.UpsertPermit(ctx, permit)
	if err != nil {
		return nil, err
	}

	if isNew {
		p.metrics.RecordIngest("permit", "new")
	} else {
		p.metrics.RecordIngest("permit", "duplicate")
	}
	p.audit.System(ctx, models.AuditPermitIngested, audit.EntityPermit, permit.ID, map[string]any{
		"vrm":    permit.VRM,
		"type":   string(permit.Type),
		"active": permit.Active,
		"is_new": isNew,
	})
	logger.InfoCtx(ctx, "permit ingested",
		logger.KeyPermitID, permit.ID,
		logger.KeyVRM, permit.VRM,
		"is_new", isNew)

	if err := p.dispatcher.EnqueuePermit(ctx, permit.VRM, permit.SiteID, permit.Active, permit.ID); err != nil {
		logger.ErrorCtx(ctx, "permit reconciliation enqueue failed",
			logger.KeyPermitID, permit.ID,
			logger.KeyError, err)
	}
	return &PermitResult{Permit: permit, IsNew: isNew}, nil
}

// resolveDirection maps a raw direction signal through the site's camera
// configuration, falling back to the global vocabulary.
func resolveDirection(cfg *models.SiteConfig, cameraID, raw string) models.Direction {
	signal := strings.ToUpper(strings.TrimSpace(raw))
	if signal == "" {
		return models.DirectionUnknown
	}

	if cameraID != "" {
		if camera, ok := cfg.CameraByID(cameraID); ok {
			switch signal {
			case "TOWARDS":
				return camera.TowardsDirection
			case "AWAY":
				return camera.AwayDirection
			}
		}
	}
	return models.ParseDirection(signal)
}
