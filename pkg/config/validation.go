package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration against the validate struct tags plus
// the cross-field rules the tags cannot express.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if cfg.Export.Enabled && cfg.Export.Bucket == "" {
		return fmt.Errorf("export: bucket is required when export is enabled")
	}
	if cfg.ANPR.Enabled && cfg.ANPR.URL == "" {
		return fmt.Errorf("anpr: url is required when the poller is enabled")
	}

	return nil
}
