package commands

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/sqlquest/internal/cli/config"
	"github.com/leapstack-labs/sqlquest/internal/cli/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// setupConfig loads a config whose journal and lessons directory live in a
// temp dir, and returns that dir.
func setupConfig(t *testing.T, outputMode string) string {
	t.Helper()
	path := testutil.SetupTestProject(t, outputMode)

	config.ResetConfig()
	_, err := config.LoadConfig(path, nil)
	require.NoError(t, err)
	t.Cleanup(config.ResetConfig)
	return filepath.Dir(path)
}

// execute runs cmd with args and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
