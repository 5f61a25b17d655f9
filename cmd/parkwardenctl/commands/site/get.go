package site

import (
	"fmt"
	"os"

	"github.com/parkwarden/parkwarden/cmd/parkwardenctl/cmdutil"
	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <site-id>",
	Short: "Get site details",
	Long: `Get detailed information about a site, including its parsed configuration.

Examples:
  # Get site details as table
  parkwardenctl site get GRN01

  # Get as JSON
  parkwardenctl site get GRN01 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

// SingleSite wraps one site for field/value table rendering.
type SingleSite struct {
	Site *models.Site
}

// Headers implements TableRenderer.
func (s SingleSite) Headers() []string {
	return []string{"FIELD", "VALUE"}
}

// Rows implements TableRenderer.
func (s SingleSite) Rows() [][]string {
	rows := [][]string{
		{"ID", s.Site.ID},
		{"Name", s.Site.Name},
		{"Active", cmdutil.BoolToYesNo(s.Site.Active)},
		{"Created", s.Site.CreatedAt.Local().Format("2006-01-02 15:04:05")},
	}
	if cfg, err := s.Site.GetConfig(); err == nil {
		rows = append(rows,
			[]string{"Enforcement Type", string(cfg.EnforcementType)},
			[]string{"Entry Grace", fmt.Sprintf("%d minutes", cfg.GracePeriods.Entry)},
			[]string{"Exit Grace", fmt.Sprintf("%d minutes", cfg.GracePeriods.Exit)},
			[]string{"Overstay Grace", fmt.Sprintf("%d minutes", cfg.GracePeriods.Overstay)},
			[]string{"Cameras", fmt.Sprintf("%d", len(cfg.Cameras))},
		)
	}
	return rows
}

func runGet(cmd *cobra.Command, args []string) error {
	client := cmdutil.GetClient()

	site, err := client.GetSite(args[0])
	if err != nil {
		return fmt.Errorf("failed to get site: %w", err)
	}

	return cmdutil.PrintResource(os.Stdout, site, SingleSite{Site: site})
}
