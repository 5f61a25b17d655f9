// Package decision implements contravention decision commands for parkwardenctl.
package decision

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for decision operations.
var Cmd = &cobra.Command{
	Use:   "decision",
	Short: "Contravention decisions",
	Long: `Inspect and review the rule engine's decisions.

Every completed parking session carries exactly one decision. Candidate
contraventions wait for an operator verdict; approving or declining
freezes the decision against automatic re-evaluation.

Examples:
  # Enforcement candidates for a site
  parkwardenctl decision list --site GRN01 --outcome ENFORCEMENT_CANDIDATE

  # Full detail of one decision
  parkwardenctl decision get 5e2b...

  # Operator verdicts
  parkwardenctl decision approve 5e2b... --by warden@example.com --notes "clear overstay"
  parkwardenctl decision decline 5e2b... --by warden@example.com --notes "permit shown on appeal"`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(approveCmd)
	Cmd.AddCommand(declineCmd)
}
