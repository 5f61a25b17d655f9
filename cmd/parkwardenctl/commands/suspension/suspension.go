// Package suspension implements enforcement suspension commands for parkwardenctl.
package suspension

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for enforcement suspensions.
var Cmd = &cobra.Command{
	Use:   "suspension",
	Short: "Enforcement suspensions",
	Long: `Manage enforcement suspension windows.

While a suspension is in force, sessions at the site (optionally scoped to
one rule type) are resolved as suspended instead of producing candidate
contraventions. Creating a suspension also retroactively resolves existing
unreviewed candidates inside the window.

Examples:
  # Suspend all enforcement at a site from now, open-ended
  parkwardenctl suspension create --site GRN01 --reason "resurfacing works" --by ops@example.com

  # Suspend only overstay enforcement for a fixed window
  parkwardenctl suspension create --site GRN01 --rule max_stay \
    --start 2026-09-01T00:00:00Z --end 2026-09-08T00:00:00Z \
    --reason "event week" --by ops@example.com

  # Close an open suspension
  parkwardenctl suspension end 9c1d... --reason "works finished" --by ops@example.com

  # List suspensions for one site
  parkwardenctl suspension list --site GRN01`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(endCmd)
}
