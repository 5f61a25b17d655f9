package decision

import (
	"fmt"
	"os"

	"github.com/parkwarden/parkwarden/cmd/parkwardenctl/cmdutil"
	"github.com/parkwarden/parkwarden/pkg/apiclient"
	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/spf13/cobra"
)

var (
	listSite    string
	listOutcome string
	listStatus  string
	listLimit   int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List decisions",
	Long: `List decisions, newest first.

Examples:
  # Enforcement candidates awaiting a verdict
  parkwardenctl decision list --outcome ENFORCEMENT_CANDIDATE --status CANDIDATE

  # Everything for one site as JSON
  parkwardenctl decision list --site GRN01 -o json`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listSite, "site", "", "Filter by site ID")
	listCmd.Flags().StringVar(&listOutcome, "outcome", "", "Filter by outcome (COMPLIANT|ENFORCEMENT_CANDIDATE|REQUIRES_REVIEW|...)")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (NEW|CANDIDATE|APPROVED|DECLINED|AUTO_RESOLVED|EXPORTED)")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum number of decisions to return (0 = server default)")
}

// DecisionList is a list of decisions for table rendering.
type DecisionList []*models.Decision

// Headers implements TableRenderer.
func (dl DecisionList) Headers() []string {
	return []string{"ID", "SESSION", "OUTCOME", "RULE", "STATUS", "UPDATED"}
}

// Rows implements TableRenderer.
func (dl DecisionList) Rows() [][]string {
	rows := make([][]string, 0, len(dl))
	for _, d := range dl {
		rows = append(rows, []string{
			d.ID,
			d.SessionID,
			string(d.Outcome),
			string(d.RuleApplied),
			string(d.Status),
			d.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client := cmdutil.GetClient()

	decisions, err := client.ListDecisions(apiclient.DecisionFilter{
		SiteID:  listSite,
		Outcome: listOutcome,
		Status:  listStatus,
		Limit:   listLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to list decisions: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, decisions, len(decisions) == 0, "No decisions found.", DecisionList(decisions))
}
