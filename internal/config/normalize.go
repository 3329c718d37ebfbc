package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeCache(); err != nil {
		return err
	}
	c.normalizeMux()
	return c.normalizeLogging()
}

func (c *Config) normalizeCache() error {
	c.Cache.Dir = strings.TrimSpace(c.Cache.Dir)
	if c.Cache.Dir == "" {
		if value, ok := os.LookupEnv(CacheDirEnv); ok {
			c.Cache.Dir = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Cache.Dir, err = expandPath(c.Cache.Dir); err != nil {
		return fmt.Errorf("cache.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMux() {
	c.Mux.FFmpegBinary = strings.TrimSpace(c.Mux.FFmpegBinary)
	if c.Mux.FFmpegBinary == "" {
		c.Mux.FFmpegBinary = defaultFFmpegBinary
	}
	ext := strings.TrimPrefix(strings.TrimSpace(c.Mux.ContainerExt), ".")
	if ext == "" {
		ext = defaultContainerExt
	}
	c.Mux.ContainerExt = strings.ToLower(ext)
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}
