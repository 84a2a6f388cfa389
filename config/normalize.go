package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	c.Output.Host = strings.TrimSpace(c.Output.Host)
	c.Output.Device = strings.TrimSpace(c.Output.Device)
	c.Output.SampleFormat = strings.ToLower(strings.TrimSpace(c.Output.SampleFormat))
	if c.Output.Host == "" {
		c.Output.Host = defaultHost
	}
	if c.Output.Device == "" {
		c.Output.Device = c.Output.Host + " Output"
	}
	if c.Output.SampleFormat == "" {
		c.Output.SampleFormat = defaultSampleFormat
	}
	if c.Engine.BPM == 0 {
		c.Engine.BPM = defaultBPM
	}

	var err error
	for i, p := range c.Engine.Preload {
		if c.Engine.Preload[i], err = expandPath(strings.TrimSpace(p)); err != nil {
			return fmt.Errorf("engine.preload[%d]: %w", i, err)
		}
	}
	for i, p := range c.Scripts.Paths {
		if c.Scripts.Paths[i], err = expandPath(strings.TrimSpace(p)); err != nil {
			return fmt.Errorf("scripts.paths[%d]: %w", i, err)
		}
	}

	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.DebugBuffer <= 0 {
		c.Logging.DebugBuffer = defaultDebugBuffer
	}
}
