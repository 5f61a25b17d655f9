// Package commands implements the CLI commands for the parkwardenctl client.
package commands

import (
	"os"

	"github.com/parkwarden/parkwarden/cmd/parkwardenctl/cmdutil"
	decisioncmd "github.com/parkwarden/parkwarden/cmd/parkwardenctl/commands/decision"
	reviewcmd "github.com/parkwarden/parkwarden/cmd/parkwardenctl/commands/review"
	sitecmd "github.com/parkwarden/parkwarden/cmd/parkwardenctl/commands/site"
	suspensioncmd "github.com/parkwarden/parkwarden/cmd/parkwardenctl/commands/suspension"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "parkwardenctl",
	Short: "Parkwarden Control - Enforcement operations client",
	Long: `parkwardenctl is the command-line client for operating a Parkwarden server.

Use this tool to inspect sites, work the plate review queue, manage
enforcement suspensions, and review contravention decisions through the
Parkwarden REST API.

Use "parkwardenctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Sync flags to cmdutil.Flags for subcommands
		cmdutil.Flags.ServerURL, _ = cmd.Flags().GetString("server")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
		cmdutil.Flags.Verbose, _ = cmd.Flags().GetBool("verbose")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringP("server", "s", "", "Server URL (default "+cmdutil.DefaultServerURL+")")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sitecmd.Cmd)
	rootCmd.AddCommand(reviewcmd.Cmd)
	rootCmd.AddCommand(suspensioncmd.Cmd)
	rootCmd.AddCommand(decisioncmd.Cmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}
