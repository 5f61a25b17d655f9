package plate

import (
	"regexp"

	"github.com/parkwarden/parkwarden/pkg/models"
)

// lowConfidenceThreshold is the camera confidence below which a read is
// queued for human review.
const lowConfidenceThreshold = 0.8

var (
	alphanumericRe  = regexp.MustCompile(`^[A-Z0-9]+$`)
	confusedAlphaRe = regexp.MustCompile(`^[IOZ]{3,}`)
	confusedDigitRe = regexp.MustCompile(`^[0125]{3,}`)
)

const (
	minPlausibleLength = 2
	maxPlausibleLength = 10
)

// SuspicionResult is the outcome of triaging one plate read.
type SuspicionResult struct {
	IsSuspicious     bool
	Reasons          []string
	ValidationStatus models.ValidationStatus
	MatchedRule      string
}

// DetectSuspicious triages a normalized plate read. A nil confidence means
// the camera did not report one and the confidence check is skipped. Any
// raised reason marks the read suspicious.
func (v *Validator) DetectSuspicious(vrm string, confidence *float64) SuspicionResult {
	var reasons []string

	if confidence != nil && *confidence < lowConfidenceThreshold {
		reasons = append(reasons, models.SuspicionLowConfidence)
	}
	if !alphanumericRe.MatchString(vrm) {
		reasons = append(reasons, models.SuspicionNonAlphanumeric)
	}
	if allSameCharacter(vrm) {
		reasons = append(reasons, models.SuspicionAllSameCharacter)
	}
	if len(vrm) < minPlausibleLength || len(vrm) > maxPlausibleLength {
		reasons = append(reasons, models.SuspicionImplausibleLength)
	}
	if confusedAlphaRe.MatchString(vrm) || confusedDigitRe.MatchString(vrm) {
		reasons = append(reasons, models.SuspicionConfusedCluster)
	}

	status, rule := v.Validate(vrm)
	switch status {
	case models.PlateInvalid:
		reasons = append(reasons, models.SuspicionInvalidFormat)
	case models.PlateInternationalValid:
		reasons = append(reasons, models.SuspicionNonUKFormat)
	}

	return SuspicionResult{
		IsSuspicious:     len(reasons) > 0,
		Reasons:          reasons,
		ValidationStatus: status,
		MatchedRule:      rule,
	}
}

func allSameCharacter(vrm string) bool {
	if len(vrm) < 2 {
		return false
	}
	for i := 1; i < len(vrm); i++ {
		if vrm[i] != vrm[0] {
			return false
		}
	}
	return true
}
