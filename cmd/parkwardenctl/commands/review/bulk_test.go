package review

import (
	"testing"

	"github.com/parkwarden/parkwarden/pkg/models"
)

func TestSuspicionTagOptionsCoverVocabulary(t *testing.T) {
	want := []string{
		models.SuspicionLowConfidence,
		models.SuspicionNonAlphanumeric,
		models.SuspicionAllSameCharacter,
		models.SuspicionImplausibleLength,
		models.SuspicionConfusedCluster,
		models.SuspicionInvalidFormat,
		models.SuspicionNonUKFormat,
	}

	seen := make(map[string]bool, len(suspicionTags))
	for _, opt := range suspicionTags {
		if opt.Value == "" || opt.Label != opt.Value {
			t.Errorf("option %+v must carry the tag as both label and value", opt)
		}
		if opt.Description == "" {
			t.Errorf("tag %s has no description", opt.Value)
		}
		seen[opt.Value] = true
	}

	for _, tag := range want {
		if !seen[tag] {
			t.Errorf("tag %s missing from the selector", tag)
		}
	}
	if len(suspicionTags) != len(want) {
		t.Errorf("selector lists %d tags, want %d", len(suspicionTags), len(want))
	}
}

func TestBulkDiscardTagFlagIsOptional(t *testing.T) {
	flag := bulkDiscardCmd.Flags().Lookup("tag")
	if flag == nil {
		t.Fatal("bulk-discard has no --tag flag")
	}
	if _, required := flag.Annotations["cobra_annotation_bash_completion_one_required_flag"]; required {
		t.Error("--tag is marked required; an omitted tag should fall through to the selector")
	}
}
