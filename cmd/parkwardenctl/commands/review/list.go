package review

import (
	"fmt"
	"os"
	"strings"

	"github.com/parkwarden/parkwarden/cmd/parkwardenctl/cmdutil"
	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/spf13/cobra"
)

var (
	listStatus string
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List plate reviews",
	Long: `List plate reviews, pending ones by default.

Examples:
  # Pending queue
  parkwardenctl review list

  # Already discarded reads
  parkwardenctl review list --status DISCARDED

  # First 20 as JSON
  parkwardenctl review list --limit 20 -o json`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "PENDING", "Filter by review status (PENDING|APPROVED|CORRECTED|DISCARDED)")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum number of reviews to return (0 = server default)")
}

// ReviewList is a list of plate reviews for table rendering.
type ReviewList []*models.PlateReview

// Headers implements TableRenderer.
func (rl ReviewList) Headers() []string {
	return []string{"ID", "SITE", "VRM", "SEEN", "REASONS", "STATUS"}
}

// Rows implements TableRenderer.
func (rl ReviewList) Rows() [][]string {
	rows := make([][]string, 0, len(rl))
	for _, r := range rl {
		reasons := "-"
		if tags, err := r.GetSuspicionReasons(); err == nil && len(tags) > 0 {
			reasons = strings.Join(tags, ", ")
		}
		rows = append(rows, []string{
			r.ID,
			r.SiteID,
			cmdutil.EmptyOr(r.OriginalVRM, "-"),
			r.Timestamp.Local().Format("2006-01-02 15:04"),
			reasons,
			string(r.ReviewStatus),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client := cmdutil.GetClient()

	reviews, err := client.ListReviews(listStatus, listLimit)
	if err != nil {
		return fmt.Errorf("failed to list reviews: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, reviews, len(reviews) == 0, "No reviews found.", ReviewList(reviews))
}
