package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Site is a monitored car park. Sites are created and updated externally;
// the core consumes them read-only apart from admin tooling.
type Site struct {
	// ID is the short site code, e.g. "GRN01".
	ID        string    `gorm:"primaryKey;size:16" json:"id"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	Active    bool      `gorm:"default:true" json:"active"`
	Config    string    `gorm:"type:text" json:"-"` // JSON blob, see SiteConfig
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Parsed configuration (not stored in DB)
	ParsedConfig *SiteConfig `gorm:"-" json:"config,omitempty"`
}

// TableName returns the table name for Site.
func (Site) TableName() string {
	return "sites"
}

// GracePeriods are the site's grace windows in minutes.
type GracePeriods struct {
	Entry    int `json:"entry"`
	Exit     int `json:"exit"`
	Overstay int `json:"overstay"`
}

// DefaultGracePeriods returns the grace windows applied when a site's config
// omits them.
func DefaultGracePeriods() GracePeriods {
	return GracePeriods{Entry: 10, Exit: 10, Overstay: 15}
}

// CameraConfig describes one camera at a site and how its raw TOWARDS/AWAY
// signal maps onto entry and exit.
type CameraConfig struct {
	ID               string    `json:"id"`
	TowardsDirection Direction `json:"towardsDirection"`
	AwayDirection    Direction `json:"awayDirection"`
}

// SiteConfig is the site configuration document stored in Site.Config.
type SiteConfig struct {
	GracePeriods    GracePeriods    `json:"gracePeriods"`
	EnforcementType EnforcementType `json:"enforcementType"`
	Cameras         []CameraConfig  `json:"cameras,omitempty"`
}

// GetConfig returns the parsed site configuration, applying defaults for
// missing grace periods and enforcement type.
func (s *Site) GetConfig() (*SiteConfig, error) {
	if s.ParsedConfig != nil {
		return s.ParsedConfig, nil
	}

	cfg := &SiteConfig{}
	if s.Config != "" {
		if err := json.Unmarshal([]byte(s.Config), cfg); err != nil {
			return nil, err
		}
	}

	defaults := DefaultGracePeriods()
	if cfg.GracePeriods.Entry <= 0 {
		cfg.GracePeriods.Entry = defaults.Entry
	}
	if cfg.GracePeriods.Exit <= 0 {
		cfg.GracePeriods.Exit = defaults.Exit
	}
	if cfg.GracePeriods.Overstay <= 0 {
		cfg.GracePeriods.Overstay = defaults.Overstay
	}
	if cfg.EnforcementType == "" {
		cfg.EnforcementType = EnforcementAuto
	}

	s.ParsedConfig = cfg
	return cfg, nil
}

// SetConfig sets the site configuration document.
func (s *Site) SetConfig(cfg *SiteConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	s.Config = string(data)
	s.ParsedConfig = cfg
	return nil
}

// CameraByID looks up a camera entry by id, case-insensitively.
func (c *SiteConfig) CameraByID(id string) (*CameraConfig, bool) {
	for i := range c.Cameras {
		if strings.EqualFold(c.Cameras[i].ID, id) {
			return &c.Cameras[i], true
		}
	}
	return nil, false
}
