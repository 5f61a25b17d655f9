package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/parkwarden/parkwarden/cmd/parkwardenctl/cmdutil"
	"github.com/parkwarden/parkwarden/pkg/apiclient"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server health",
	Long: `Check the liveness and readiness of a Parkwarden server.

Examples:
  # Check the default server
  parkwardenctl status

  # Check a remote server as JSON
  parkwardenctl status --server http://parkwarden.internal:8080 -o json`,
	RunE: runStatus,
}

// serverStatus combines the liveness and readiness responses.
type serverStatus struct {
	Health *apiclient.HealthStatus `json:"health"`
	Ready  *apiclient.HealthStatus `json:"ready"`
}

// Headers implements TableRenderer.
func (s *serverStatus) Headers() []string {
	return []string{"FIELD", "VALUE"}
}

// Rows implements TableRenderer.
func (s *serverStatus) Rows() [][]string {
	rows := [][]string{
		{"Status", s.Health.Status},
		{"Ready", s.Ready.Status},
		{"Checked At", s.Health.Timestamp.Local().Format("2006-01-02 15:04:05")},
	}
	keys := make([]string, 0, len(s.Ready.Data))
	for k := range s.Ready.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rows = append(rows, []string{k, fmt.Sprintf("%v", s.Ready.Data[k])})
	}
	if s.Ready.Error != "" {
		rows = append(rows, []string{"Error", s.Ready.Error})
	}
	return rows
}

func runStatus(cmd *cobra.Command, args []string) error {
	client := cmdutil.GetClient()

	health, err := client.Health()
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}

	ready, err := client.Ready()
	if err != nil {
		return fmt.Errorf("readiness check failed: %w", err)
	}

	status := &serverStatus{Health: health, Ready: ready}
	if err := cmdutil.PrintResource(os.Stdout, status, status); err != nil {
		return err
	}

	if !health.Healthy() || !ready.Healthy() {
		return fmt.Errorf("server is not healthy")
	}
	return nil
}
