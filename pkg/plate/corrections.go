package plate

import (
	"sort"

	"github.com/parkwarden/parkwarden/pkg/models"
)

// maxCorrections caps how many alternatives are offered to a reviewer.
const maxCorrections = 5

// ocrSubstitutions lists character pairs cameras commonly confuse. Each pair
// is applied in both directions, one position at a time.
var ocrSubstitutions = map[byte]byte{
	'0': 'O', 'O': '0',
	'1': 'I', 'I': '1',
	'5': 'S', 'S': '5',
	'8': 'B', 'B': '8',
	'2': 'Z', 'Z': '2',
	'6': 'G', 'G': '6',
}

// Correction is one suggested alternative for a misread plate.
type Correction struct {
	VRM        string                  `json:"vrm"`
	Confidence float64                 `json:"confidence"`
	Status     models.ValidationStatus `json:"status"`
}

// SuggestCorrections generates up to 5 single-substitution alternatives for
// a normalized plate, ranked by the validity class of the result (UK reads
// rank above international ones; invalid results are dropped).
func (v *Validator) SuggestCorrections(vrm string) []Correction {
	seen := map[string]bool{vrm: true}
	var out []Correction

	for i := 0; i < len(vrm); i++ {
		sub, ok := ocrSubstitutions[vrm[i]]
		if !ok {
			continue
		}
		candidate := vrm[:i] + string(sub) + vrm[i+1:]
		if seen[candidate] {
			continue
		}
		seen[candidate] = true

		status, _ := v.Validate(candidate)
		var score float64
		switch status {
		case models.PlateUKValid:
			score = 0.8
		case models.PlateInternationalValid:
			score = 0.6
		default:
			continue
		}
		out = append(out, Correction{VRM: candidate, Confidence: score, Status: status})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	if len(out) > maxCorrections {
		out = out[:maxCorrections]
	}
	return out
}
