package decision

import (
	"fmt"
	"os"

	"github.com/parkwarden/parkwarden/cmd/parkwardenctl/cmdutil"
	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <decision-id>",
	Short: "Get decision details",
	Long: `Get one decision with its full rationale trail.

Examples:
  parkwardenctl decision get 5e2b...
  parkwardenctl decision get 5e2b... -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

// SingleDecision wraps one decision for field/value table rendering.
type SingleDecision struct {
	Decision *models.Decision
}

// Headers implements TableRenderer.
func (s SingleDecision) Headers() []string {
	return []string{"FIELD", "VALUE"}
}

// Rows implements TableRenderer.
func (s SingleDecision) Rows() [][]string {
	d := s.Decision
	return [][]string{
		{"ID", d.ID},
		{"Session", d.SessionID},
		{"Outcome", string(d.Outcome)},
		{"Rule Applied", string(d.RuleApplied)},
		{"Status", string(d.Status)},
		{"Rationale", d.Rationale},
		{"Created", d.CreatedAt.Local().Format("2006-01-02 15:04:05")},
		{"Updated", d.UpdatedAt.Local().Format("2006-01-02 15:04:05")},
	}
}

func runGet(cmd *cobra.Command, args []string) error {
	client := cmdutil.GetClient()

	decision, err := client.GetDecision(args[0])
	if err != nil {
		return fmt.Errorf("failed to get decision: %w", err)
	}

	return cmdutil.PrintResource(os.Stdout, decision, SingleDecision{Decision: decision})
}
