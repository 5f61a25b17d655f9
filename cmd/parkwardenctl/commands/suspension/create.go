package suspension

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/parkwarden/parkwarden/cmd/parkwardenctl/cmdutil"
	"github.com/parkwarden/parkwarden/internal/cli/prompt"
	"github.com/parkwarden/parkwarden/pkg/apiclient"
	"github.com/spf13/cobra"
)

var (
	createSite   string
	createRule   string
	createStart  string
	createEnd    string
	createReason string
	createBy     string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a suspension window",
	Long: `Open an enforcement suspension for a site.

Without --rule the suspension covers every rule type. Without --start it
begins immediately. Without --end it stays open until ended explicitly.
Timestamps are RFC 3339, e.g. 2026-09-01T00:00:00Z.

Examples:
  parkwardenctl suspension create --site GRN01 --reason "resurfacing works" --by ops@example.com

  parkwardenctl suspension create --site GRN01 --rule max_stay \
    --start 2026-09-01T00:00:00Z --end 2026-09-08T00:00:00Z \
    --reason "event week" --by ops@example.com`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createSite, "site", "", "Site ID (required)")
	createCmd.Flags().StringVar(&createRule, "rule", "", "Rule type to suspend (empty = all rules)")
	createCmd.Flags().StringVar(&createStart, "start", "", "Window start, RFC 3339 (default now)")
	createCmd.Flags().StringVar(&createEnd, "end", "", "Window end, RFC 3339 (default open-ended)")
	createCmd.Flags().StringVar(&createReason, "reason", "", "Why enforcement is suspended (prompted when omitted)")
	createCmd.Flags().StringVar(&createBy, "by", "", "Operator identity (required)")
	_ = createCmd.MarkFlagRequired("site")
	_ = createCmd.MarkFlagRequired("by")
}

func runCreate(cmd *cobra.Command, args []string) error {
	if createReason == "" {
		// The server refuses reasons under ten characters.
		reason, err := prompt.InputWithValidation("Suspension reason", func(input string) error {
			if len(strings.TrimSpace(input)) < 10 {
				return fmt.Errorf("reason must be at least 10 characters")
			}
			return nil
		})
		if err != nil {
			if prompt.IsAborted(err) {
				fmt.Println("\nAborted.")
				return nil
			}
			return err
		}
		createReason = reason
	}

	input := apiclient.CreateSuspensionInput{
		SiteID:    createSite,
		RuleType:  createRule,
		StartDate: time.Now().UTC(),
		Reason:    createReason,
		CreatedBy: createBy,
	}

	if createStart != "" {
		start, err := time.Parse(time.RFC3339, createStart)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
		input.StartDate = start
	}
	if createEnd != "" {
		end, err := time.Parse(time.RFC3339, createEnd)
		if err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}
		input.EndDate = &end
	}

	client := cmdutil.GetClient()

	result, err := client.CreateSuspension(input)
	if err != nil {
		return fmt.Errorf("failed to create suspension: %w", err)
	}

	msg := fmt.Sprintf("Suspension '%s' created for site '%s' (%d existing decisions resolved)",
		result.Suspension.ID, result.Suspension.SiteID, result.DecisionsResolved)
	return cmdutil.PrintResourceWithSuccess(os.Stdout, result, msg)
}
