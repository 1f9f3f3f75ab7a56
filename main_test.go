package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func parseCommand(t *testing.T, cmd *cobra.Command, args ...string) *cobra.Command {
	t.Helper()

	cmd.Flags().StringP("config", "c", filepath.Join(t.TempDir(), "config.yaml"), "")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestLoadConfigShowFormatKeepsOutputFormat(t *testing.T) {
	cmd := parseCommand(t, newShowCmd(), "-i", "plot.csv", "--format", "text", "-l", "en")

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	require.Equal(t, "xlsx", cfg.Output.Format)
	require.Equal(t, "en", cfg.Language)
}

func TestLoadConfigComputeOverrides(t *testing.T) {
	cmd := parseCommand(t, newComputeCmd(), "-i", "plot.csv", "--format", "csv", "--delimiter", ",")

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	require.Equal(t, "csv", cfg.Output.Format)
	require.Equal(t, ",", cfg.Input.Delimiter)
}

func TestLoadConfigBatchOverrides(t *testing.T) {
	cmd := parseCommand(t, newBatchCmd(), "-i", "tables", "--mode", "combined", "-w", "8", "--ext", ".csv,.txt")

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	require.Equal(t, "combined", cfg.Output.Mode)
	require.Equal(t, 8, cfg.Processing.Workers)
	require.Equal(t, []string{".csv", ".txt"}, cfg.Input.Extensions)
}

func TestLoadConfigRejectsInvalidOverride(t *testing.T) {
	cmd := parseCommand(t, newBatchCmd(), "-i", "tables", "--mode", "combined", "--format", "csv")

	_, err := loadConfig(cmd)
	require.Error(t, err)
}
