package review

import (
	"fmt"
	"os"

	"github.com/parkwarden/parkwarden/cmd/parkwardenctl/cmdutil"
	"github.com/parkwarden/parkwarden/internal/cli/prompt"
	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/spf13/cobra"
)

// suspicionTags lists the tags plate validation raises, for interactive
// selection when --tag is omitted.
var suspicionTags = []prompt.SelectOption{
	{Label: models.SuspicionLowConfidence, Value: models.SuspicionLowConfidence, Description: "Camera confidence below the review threshold"},
	{Label: models.SuspicionNonAlphanumeric, Value: models.SuspicionNonAlphanumeric, Description: "Plate carries characters outside A-Z and 0-9"},
	{Label: models.SuspicionAllSameCharacter, Value: models.SuspicionAllSameCharacter, Description: "Every character identical, a classic misread"},
	{Label: models.SuspicionImplausibleLength, Value: models.SuspicionImplausibleLength, Description: "Too short or too long for a registration"},
	{Label: models.SuspicionConfusedCluster, Value: models.SuspicionConfusedCluster, Description: "Runs of easily confused characters (0/O, 1/I)"},
	{Label: models.SuspicionInvalidFormat, Value: models.SuspicionInvalidFormat, Description: "Matches no configured plate format"},
	{Label: models.SuspicionNonUKFormat, Value: models.SuspicionNonUKFormat, Description: "Valid shape but not a UK format"},
}

var (
	bulkTag    string
	bulkBy     string
	bulkReason string
	bulkLimit  int
	bulkForce  bool
)

var bulkDiscardCmd = &cobra.Command{
	Use:   "bulk-discard",
	Short: "Discard every pending review carrying a suspicion tag",
	Long: `Discard all pending reviews whose suspicion reasons include the given
tag. Each item succeeds or fails on its own; the result reports how many
matched, discarded, and failed.

Examples:
  parkwardenctl review bulk-discard --tag NON_UK_FORMAT \
    --reason "foreign plates out of scope" --by operator@example.com`,
	RunE: runBulkDiscard,
}

func init() {
	bulkDiscardCmd.Flags().StringVar(&bulkTag, "tag", "", "Suspicion tag to match (prompted when omitted)")
	bulkDiscardCmd.Flags().StringVar(&bulkBy, "by", "", "Reviewer identity (required)")
	bulkDiscardCmd.Flags().StringVar(&bulkReason, "reason", "", "Discard reason recorded on every review (required)")
	bulkDiscardCmd.Flags().IntVar(&bulkLimit, "limit", 0, "Maximum number of reviews to discard (0 = no limit)")
	bulkDiscardCmd.Flags().BoolVarP(&bulkForce, "force", "f", false, "Skip confirmation prompt")
	_ = bulkDiscardCmd.MarkFlagRequired("by")
	_ = bulkDiscardCmd.MarkFlagRequired("reason")
}

func runBulkDiscard(cmd *cobra.Command, args []string) error {
	if bulkTag == "" {
		tag, err := prompt.Select("Suspicion tag", suspicionTags)
		if err != nil {
			if prompt.IsAborted(err) {
				fmt.Println("\nAborted.")
				return nil
			}
			return err
		}
		bulkTag = tag
	}

	label := fmt.Sprintf("Discard all pending reviews tagged '%s'?", bulkTag)
	return cmdutil.RunWithConfirmation(label, bulkForce, func() error {
		client := cmdutil.GetClient()

		result, err := client.BulkDiscardReviews(bulkTag, bulkBy, bulkReason, bulkLimit)
		if err != nil {
			return fmt.Errorf("bulk discard failed: %w", err)
		}

		msg := fmt.Sprintf("Matched %d, discarded %d, failed %d", result.Matched, result.Discarded, result.Failed)
		if err := cmdutil.PrintResourceWithSuccess(os.Stdout, result, msg); err != nil {
			return err
		}
		if result.Failed > 0 {
			return fmt.Errorf("%d reviews could not be discarded", result.Failed)
		}
		return nil
	})
}
