package site

import (
	"fmt"
	"os"

	"github.com/parkwarden/parkwarden/cmd/parkwardenctl/cmdutil"
	"github.com/parkwarden/parkwarden/internal/cli/output"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the snapshot JSON-Schema",
	Long: `Print the JSON-Schema document describing the export snapshot format.

Downstream consumers validate published snapshots against this schema.

Examples:
  parkwardenctl site schema > snapshot-schema.json`,
	RunE: runSchema,
}

func runSchema(cmd *cobra.Command, args []string) error {
	client := cmdutil.GetClient()

	schema, err := client.GetSnapshotSchema()
	if err != nil {
		return fmt.Errorf("failed to fetch schema: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}
	if format == output.FormatYAML {
		return output.PrintYAML(os.Stdout, schema)
	}
	// A schema document has no table form; default to JSON.
	return output.PrintJSON(os.Stdout, schema)
}
