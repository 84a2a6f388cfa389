package config

import (
	"fmt"
	"math"

	"go.uber.org/zap/zapcore"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	return c.validateLogging()
}

// validateEngine runs before validateOutput, which builds an engine config
// and would otherwise report a bad tempo as an output error.
func (c *Config) validateEngine() error {
	if c.Engine.BPM == 0 {
		return nil
	}
	if cents := math.Round(c.Engine.BPM * 100); !(cents >= 1 && cents <= math.MaxUint16) {
		return fmt.Errorf("engine.bpm must be between 0.01 and 655.35, got %v", c.Engine.BPM)
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.SampleRate == 0 {
		return fmt.Errorf("output.sample_rate must be positive")
	}
	if c.Output.Channels == 0 {
		return fmt.Errorf("output.channels must be positive")
	}
	if _, err := c.ToEngine(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
