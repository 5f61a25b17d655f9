package site

import (
	"fmt"
	"os"

	"github.com/parkwarden/parkwarden/cmd/parkwardenctl/cmdutil"
	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active sites",
	Long: `List all active enforcement sites.

Examples:
  # List sites as table
  parkwardenctl site list

  # List as JSON
  parkwardenctl site list -o json`,
	RunE: runList,
}

// SiteList is a list of sites for table rendering.
type SiteList []*models.Site

// Headers implements TableRenderer.
func (sl SiteList) Headers() []string {
	return []string{"ID", "NAME", "ENFORCEMENT", "ENTRY GRACE", "EXIT GRACE", "ACTIVE"}
}

// Rows implements TableRenderer.
func (sl SiteList) Rows() [][]string {
	rows := make([][]string, 0, len(sl))
	for _, s := range sl {
		enforcement := "-"
		entry := "-"
		exit := "-"
		if cfg, err := s.GetConfig(); err == nil {
			enforcement = string(cfg.EnforcementType)
			entry = fmt.Sprintf("%dm", cfg.GracePeriods.Entry)
			exit = fmt.Sprintf("%dm", cfg.GracePeriods.Exit)
		}
		rows = append(rows, []string{s.ID, s.Name, enforcement, entry, exit, cmdutil.BoolToYesNo(s.Active)})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client := cmdutil.GetClient()

	sites, err := client.ListSites()
	if err != nil {
		return fmt.Errorf("failed to list sites: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, sites, len(sites) == 0, "No active sites.", SiteList(sites))
}
