package suspension

import (
	"fmt"
	"os"

	"github.com/parkwarden/parkwarden/cmd/parkwardenctl/cmdutil"
	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/spf13/cobra"
)

var listSite string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List suspensions",
	Long: `List enforcement suspensions, optionally filtered by site.

Examples:
  parkwardenctl suspension list
  parkwardenctl suspension list --site GRN01`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listSite, "site", "", "Filter by site ID")
}

// SuspensionList is a list of suspensions for table rendering.
type SuspensionList []*models.EnforcementSuspension

// Headers implements TableRenderer.
func (sl SuspensionList) Headers() []string {
	return []string{"ID", "SITE", "RULE", "START", "END", "ACTIVE", "REASON"}
}

// Rows implements TableRenderer.
func (sl SuspensionList) Rows() [][]string {
	rows := make([][]string, 0, len(sl))
	for _, s := range sl {
		end := "open"
		if s.EndDate != nil {
			end = s.EndDate.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			s.ID,
			s.SiteID,
			cmdutil.EmptyOr(s.RuleType, "all"),
			s.StartDate.Local().Format("2006-01-02 15:04"),
			end,
			cmdutil.BoolToYesNo(s.Active),
			s.Reason,
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client := cmdutil.GetClient()

	suspensions, err := client.ListSuspensions(listSite)
	if err != nil {
		return fmt.Errorf("failed to list suspensions: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, suspensions, len(suspensions) == 0, "No suspensions found.", SuspensionList(suspensions))
}
