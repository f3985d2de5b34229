package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-theft-craft/dynlights/internal/dynlight/registry"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Config holds the daemon configuration.
type Config struct {
	TickRate      int           `json:"tick_rate"` // simulation ticks per second
	Mode          registry.Mode `json:"mode"`      // "off", "fastest", "fast" or "fancy"
	TableCapacity int           `json:"table_capacity"`
	MetricsAddr   string        `json:"metrics_addr"` // empty disables the endpoint
	LogLevel      string        `json:"log_level"`

	LuminanceTable      string `json:"luminance_table"` // YAML item table, empty for built-in
	WaterSensitiveCheck bool   `json:"water_sensitive_check"`
	EntitiesLightSource bool   `json:"entities_light_source"`
	SelfLightSource     bool   `json:"self_light_source"`

	Entities int   `json:"entities"` // simulated light-carrying entities
	Seed     int64 `json:"seed"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		TickRate:            20,
		Mode:                registry.ModeFancy,
		TableCapacity:       1024,
		MetricsAddr:         ":9464",
		LogLevel:            "info",
		WaterSensitiveCheck: true,
		EntitiesLightSource: true,
		SelfLightSource:     true,
		Entities:            64,
	}
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["tick-rate"] {
		cfg.TickRate = fromFile.TickRate
	}
	if !explicitFlags["mode"] {
		cfg.Mode = fromFile.Mode
	}
	if !explicitFlags["table-capacity"] {
		cfg.TableCapacity = fromFile.TableCapacity
	}
	if !explicitFlags["metrics-addr"] {
		cfg.MetricsAddr = fromFile.MetricsAddr
	}
	if !explicitFlags["log-level"] {
		cfg.LogLevel = fromFile.LogLevel
	}
	if !explicitFlags["luminance-table"] {
		cfg.LuminanceTable = fromFile.LuminanceTable
	}
	if !explicitFlags["water-sensitive-check"] {
		cfg.WaterSensitiveCheck = fromFile.WaterSensitiveCheck
	}
	if !explicitFlags["entities-light-source"] {
		cfg.EntitiesLightSource = fromFile.EntitiesLightSource
	}
	if !explicitFlags["self-light-source"] {
		cfg.SelfLightSource = fromFile.SelfLightSource
	}
	if !explicitFlags["entities"] {
		cfg.Entities = fromFile.Entities
	}
	if !explicitFlags["seed"] {
		cfg.Seed = fromFile.Seed
	}
}

// Load reads a JSON config file over the defaults. A missing file yields
// the defaults.
func Load(path string, log *slog.Logger) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	log.Info("loaded config from file", "path", path)
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.TickRate <= 0 || c.TickRate > 1000 {
		errs = append(errs, fmt.Errorf("%w: tick_rate must be in [1, 1000], got %d", ErrInvalid, c.TickRate))
	}
	if c.Mode > registry.ModeFancy {
		errs = append(errs, fmt.Errorf("%w: unknown mode %v", ErrInvalid, c.Mode))
	}
	if c.TableCapacity <= 0 || c.TableCapacity > 1<<20 {
		errs = append(errs, fmt.Errorf("%w: table_capacity must be in [1, %d], got %d", ErrInvalid, 1<<20, c.TableCapacity))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalid, err))
	}
	if c.Entities < 0 {
		errs = append(errs, fmt.Errorf("%w: entities must not be negative, got %d", ErrInvalid, c.Entities))
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
