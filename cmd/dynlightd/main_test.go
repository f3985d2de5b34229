package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBenchCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"bench", "--entities", "20", "--ticks", "5", "--table-capacity", "256"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "sources 23")
	assert.Contains(t, out.String(), "rebuild")
	assert.Contains(t, out.String(), "query")
}

func TestBenchCommandRejectsZeroTicks(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"bench", "--ticks", "0"})

	assert.ErrorContains(t, root.Execute(), "ticks must be positive")
}

func TestRunCommandRejectsInvalidConfig(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"run", "--config", t.TempDir() + "/none.json", "--tick-rate", "0"})

	assert.ErrorContains(t, root.Execute(), "tick_rate")
}

func TestExplicitFlags(t *testing.T) {
	cmd := newRunCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--mode", "fast", "--seed=3"}))

	assert.Equal(t, map[string]bool{"mode": true, "seed": true}, explicitFlags(cmd.Flags()))
}
