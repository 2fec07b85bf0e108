package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMonitorCmd_Flags(t *testing.T) {
	cmd := newMonitorCmd()

	url := cmd.Flags().Lookup("url")
	require.NotNil(t, url)
	assert.Equal(t, "u", url.Shorthand)
	assert.Equal(t, "", url.DefValue)

	interval := cmd.Flags().Lookup("interval")
	require.NotNil(t, interval)
	assert.Equal(t, "i", interval.Shorthand)
	assert.Equal(t, "300", interval.DefValue)

	dir := cmd.Flags().Lookup("screenshot-dir")
	require.NotNil(t, dir)
	assert.Equal(t, "screenshots", dir.DefValue)

	metadata := cmd.Flags().Lookup("metadata-file")
	require.NotNil(t, metadata)
	assert.Equal(t, "screenshot_metadata.json", metadata.DefValue)

	headless := cmd.Flags().Lookup("headless")
	require.NotNil(t, headless)
	assert.Equal(t, "false", headless.DefValue)
}

func TestRootCmd_RegistersMonitor(t *testing.T) {
	names := make([]string, 0, len(rootCmd.Commands()))
	for _, sub := range rootCmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "monitor")
}
