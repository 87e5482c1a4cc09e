package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Sentinel/internal/config"
)

func TestVersionCommand(t *testing.T) {
	Version, GitCommit, BuildDate = "1.2.3", "abc1234", "2026-01-15"

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "sentinel 1.2.3")
	assert.Contains(t, out.String(), "abc1234")
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	root := NewRootCommand()
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("log-level"))

	names := make([]string, 0, 2)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "version")
}

func TestNewLogger_FromFileConfig(t *testing.T) {
	logger, err := newLogger(config.LogConfig{
		Level:        "debug",
		Format:       "console",
		Output:       "stderr",
		EnableCaller: true,
	})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	// Zero-valued section builds with the logging defaults.
	logger, err = newLogger(config.LogConfig{})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestServeCommand_BadConfigPath(t *testing.T) {
	root := NewRootCommand()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"serve", "--config", "/does/not/exist.yaml"})

	assert.Error(t, root.Execute())
}
