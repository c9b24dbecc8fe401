package commands

import (
	"fmt"

	"github.com/leapstack-labs/sqlquest/internal/sandbox"
	"github.com/leapstack-labs/sqlquest/pkg/adapter"
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display sqlquest version and the available sandbox engines.`,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "sqlquest v%s\n", version)
			_, _ = fmt.Fprintln(out, "Interactive SQL lessons in a sandboxed database")
			for _, name := range adapter.ListAdapters() {
				marker := ""
				if name == sandbox.DefaultEngine {
					marker = " (default)"
				}
				_, _ = fmt.Fprintf(out, "  engine: %s%s\n", name, marker)
			}
		},
	}
}
