package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-theft-craft/dynlights/internal/dynlight/registry"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, registry.ModeFancy, cfg.Mode)
	assert.Equal(t, 20, cfg.TickRate)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"tick_rate": 40, "mode": "fastest", "table_capacity": 4096, "water_sensitive_check": false}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.TickRate)
	assert.Equal(t, registry.ModeFastest, cfg.Mode)
	assert.Equal(t, 4096, cfg.TableCapacity)
	assert.False(t, cfg.WaterSensitiveCheck)
	assert.True(t, cfg.EntitiesLightSource, "unset fields keep their defaults")
}

func TestLoadRejectsBadFile(t *testing.T) {
	dir := t.TempDir()
	log := slog.New(slog.DiscardHandler)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"tick_rate": `), 0o644))
	_, err := Load(bad, log)
	assert.ErrorContains(t, err, "parse config")

	mode := filepath.Join(dir, "mode.json")
	require.NoError(t, os.WriteFile(mode, []byte(`{"mode": "blinding"}`), 0o644))
	_, err = Load(mode, log)
	assert.ErrorContains(t, err, "blinding")
}

func TestMergeExplicitFlagsWin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickRate = 10
	cfg.Mode = registry.ModeOff

	fromFile := DefaultConfig()
	fromFile.TickRate = 40
	fromFile.Mode = registry.ModeFast
	fromFile.Seed = 99

	Merge(cfg, fromFile, map[string]bool{"tick-rate": true})

	assert.Equal(t, 10, cfg.TickRate)
	assert.Equal(t, registry.ModeFast, cfg.Mode)
	assert.Equal(t, int64(99), cfg.Seed)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickRate = 0
	cfg.TableCapacity = -1
	cfg.LogLevel = "loud"
	cfg.Entities = -3

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, "tick_rate")
	assert.ErrorContains(t, err, "table_capacity")
	assert.ErrorContains(t, err, "log_level")
	assert.ErrorContains(t, err, "entities")
}

func TestLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "debug"
	l, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)
}
