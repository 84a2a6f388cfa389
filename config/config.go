package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/wippyai/adae-bridge/engine"
)

// Output selects the device and stream format.
type Output struct {
	Host         string `toml:"host"`
	Device       string `toml:"device"`
	SampleFormat string `toml:"sample_format"`
	SampleRate   uint32 `toml:"sample_rate"`
	Channels     uint16 `toml:"channels"`
	// BufferSize of 0 lets the device choose.
	BufferSize uint32 `toml:"buffer_size"`
}

// Engine holds timeline and startup settings.
type Engine struct {
	BPM float64 `toml:"bpm"`
	// Preload lists audio files imported when an engine is built.
	Preload []string `toml:"preload"`
	// Debug routes engine diagnostics to the debug output channel.
	Debug bool `toml:"debug"`
}

// Logging configures the zap logger.
type Logging struct {
	Level string `toml:"level"`
	// Format is "console" or "json".
	Format string `toml:"format"`
	// Development enables stack traces and caller annotations.
	Development bool `toml:"development"`
	// DebugBuffer is the capacity of the debug output queue.
	DebugBuffer int `toml:"debug_buffer"`
}

// Scripts configures the JavaScript runner.
type Scripts struct {
	// Paths are searched for require() targets after the script's own directory.
	Paths []string `toml:"paths"`
}

// Config is the adae command configuration.
type Config struct {
	Output  Output  `toml:"output"`
	Engine  Engine  `toml:"engine"`
	Logging Logging `toml:"logging"`
	Scripts Scripts `toml:"scripts"`
}

// Load locates, parses and validates a configuration file. It returns the
// resolved path and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolvePath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		dec := toml.NewDecoder(file)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// Encode renders cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	return toml.Marshal(cfg)
}

// ToEngine resolves the output device and builds an engine configuration.
func (c *Config) ToEngine() (engine.Config, error) {
	dev, err := engine.FindOutputDevice(c.Output.Host, c.Output.Device)
	if err != nil {
		return engine.Config{}, err
	}
	format, err := engine.ParseSampleFormat(c.Output.SampleFormat)
	if err != nil {
		return engine.Config{}, err
	}
	out := engine.OutputConfig{
		SampleFormat: format,
		SampleRate:   c.Output.SampleRate,
		Channels:     c.Output.Channels,
	}
	if c.Output.BufferSize > 0 {
		buf := c.Output.BufferSize
		out.BufferSize = &buf
	}
	ec := engine.Config{
		OutputDevice: dev,
		OutputConfig: out,
		Preload:      append([]string(nil), c.Engine.Preload...),
		BPM:          c.Engine.BPM,
		Debug:        c.Engine.Debug,
	}
	if err := ec.Validate(); err != nil {
		return engine.Config{}, err
	}
	return ec, nil
}

func resolvePath(path string) (string, bool, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvPath))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	userPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}
	for _, p := range []string{userPath, projectPath} {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true, nil
		}
	}
	return userPath, false, nil
}

func expandPath(p string) (string, error) {
	if p == "" {
		return p, nil
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if p == "~" {
			p = home
		} else if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
			p = filepath.Join(home, p[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}

// ExpandPath applies the home and absolute path rules used for config values.
func ExpandPath(p string) (string, error) {
	return expandPath(p)
}
