// Package export builds the per-site customer snapshot consumed by external
// readers. The snapshot schema is bit-stable: field names and shapes must not
// change without coordinating with every consumer.
package export

import (
	"context"
	"encoding/json"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/parkwarden/parkwarden/pkg/store"
)

// DefaultValidity is how long a published snapshot stays usable before the
// reader must treat it as stale.
const DefaultValidity = 15 * time.Minute

// Snapshot is the per-site export document.
type Snapshot struct {
	SiteID      string          `json:"siteId"`
	SiteName    string          `json:"siteName"`
	GeneratedAt time.Time       `json:"generatedAt"`
	ExpiresAt   time.Time       `json:"expiresAt"`
	Config      SnapshotConfig  `json:"config"`
	Whitelist   []WhitelistItem `json:"whitelist"`
	Parking     []ParkingItem   `json:"parking"`
	Stats       SnapshotStats   `json:"stats"`
}

// SnapshotConfig carries the site settings a reader needs to interpret the
// lists.
type SnapshotConfig struct {
	OperatingModel string                `json:"operatingModel"`
	GracePeriods   *SnapshotGracePeriods `json:"gracePeriods,omitempty"`
}

// SnapshotGracePeriods are the entry and exit grace windows in minutes.
type SnapshotGracePeriods struct {
	Entry int `json:"entry"`
	Exit  int `json:"exit"`
}

// WhitelistItem is one permitted vehicle.
type WhitelistItem struct {
	VRM        string     `json:"vrm"`
	Type       string     `json:"type"`
	ValidFrom  time.Time  `json:"validFrom"`
	ValidUntil *time.Time `json:"validUntil"`
}

// ParkingItem is one active paid parking window.
type ParkingItem struct {
	VRM        string    `json:"vrm"`
	StartTime  time.Time `json:"startTime"`
	ExpiryTime time.Time `json:"expiryTime"`
}

// SnapshotStats summarizes the list sizes for reader-side sanity checks.
type SnapshotStats struct {
	WhitelistCount      int `json:"whitelistCount"`
	ActivePaymentsCount int `json:"activePaymentsCount"`
}

// Builder assembles snapshots from the store.
type Builder struct {
	store    store.Store
	validity time.Duration
	now      func() time.Time
}

// NewBuilder creates a snapshot builder. validity <= 0 uses DefaultValidity.
func NewBuilder(st store.Store, validity time.Duration) *Builder {
	if validity <= 0 {
		validity = DefaultValidity
	}
	return &Builder{store: st, validity: validity, now: time.Now}
}

// Build assembles the snapshot for one site at the current instant.
// Returns models.ErrSiteNotFound for an unknown site.
func (b *Builder) Build(ctx context.Context, siteID string) (*Snapshot, error) {
	site, err := b.store.GetSite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	cfg, err := site.GetConfig()
	if err != nil {
		return nil, err
	}

	now := b.now().UTC()

	permits, err := b.store.ListActivePermitsForSite(ctx, site.ID, now)
	if err != nil {
		return nil, err
	}
	payments, err := b.store.ListActivePaymentsForSite(ctx, site.ID, now)
	if err != nil {
		return nil, err
	}

	// Empty lists serialize as [], never null. The reader distinguishes
	// "no vehicles" from "field missing".
	whitelist := make([]WhitelistItem, 0, len(permits))
	for _, p := range permits {
		whitelist = append(whitelist, WhitelistItem{
			VRM:        p.VRM,
			Type:       string(p.Type),
			ValidFrom:  p.StartDate.UTC(),
			ValidUntil: utcPtr(p.EndDate),
		})
	}
	parking := make([]ParkingItem, 0, len(payments))
	for _, p := range payments {
		parking = append(parking, ParkingItem{
			VRM:        p.VRM,
			StartTime:  p.StartTime.UTC(),
			ExpiryTime: p.ExpiryTime.UTC(),
		})
	}

	return &Snapshot{
		SiteID:      site.ID,
		SiteName:    site.Name,
		GeneratedAt: now,
		ExpiresAt:   now.Add(b.validity),
		Config: SnapshotConfig{
			OperatingModel: string(cfg.EnforcementType),
			GracePeriods: &SnapshotGracePeriods{
				Entry: cfg.GracePeriods.Entry,
				Exit:  cfg.GracePeriods.Exit,
			},
		},
		Whitelist: whitelist,
		Parking:   parking,
		Stats: SnapshotStats{
			WhitelistCount:      len(whitelist),
			ActivePaymentsCount: len(parking),
		},
	}, nil
}

// Schema generates the JSON-Schema document for the snapshot format, for
// consumers validating what they download.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(&Snapshot{})
	schema.Version = "https://json-schema.org/draft/2020-12/schema"
	schema.Title = "Site Export Snapshot"
	schema.Description = "Per-site snapshot of whitelisted vehicles and active parking sessions"

	return json.MarshalIndent(schema, "", "  ")
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
