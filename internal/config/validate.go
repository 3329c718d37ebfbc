package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePoll(); err != nil {
		return err
	}
	if err := c.validateMux(); err != nil {
		return err
	}
	return c.validateLogging()
}

// RequireCacheDir reports an error when no cache location is configured.
// Only extraction needs the cache; check mode runs without one.
func (c *Config) RequireCacheDir() error {
	if strings.TrimSpace(c.Cache.Dir) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("cache.dir is required. Pass --cache-dir, set %s, or edit %s (create with 'cache2mp4 config init')", CacheDirEnv, defaultPath)
	}
	return nil
}

func (c *Config) validatePoll() error {
	if c.Poll.IntervalSeconds < 0 {
		return errors.New("poll.interval_seconds must not be negative")
	}
	if c.Poll.SnapshotAttempts <= 0 {
		return errors.New("poll.snapshot_attempts must be positive")
	}
	return nil
}

func (c *Config) validateMux() error {
	if strings.ContainsAny(c.Mux.ContainerExt, `/\`) {
		return fmt.Errorf("mux.container_ext %q must not contain path separators", c.Mux.ContainerExt)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}
