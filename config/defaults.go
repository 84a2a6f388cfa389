package config

const (
	defaultHost         = "Null"
	defaultDevice       = "Null Output"
	defaultSampleFormat = "f32"
	defaultSampleRate   = 48000
	defaultChannels     = 2
	defaultBufferSize   = 512
	defaultBPM          = 120
	defaultLogLevel     = "info"
	defaultLogFormat    = "console"
	defaultDebugBuffer  = 64
	defaultConfigPath   = "~/.config/adae/config.toml"
	projectConfigName   = "adae.toml"

	// EnvPath overrides the configuration file location.
	EnvPath = "ADAE_CONFIG"
)

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		Output: Output{
			Host:         defaultHost,
			Device:       defaultDevice,
			SampleFormat: defaultSampleFormat,
			SampleRate:   defaultSampleRate,
			Channels:     defaultChannels,
			BufferSize:   defaultBufferSize,
		},
		Engine: Engine{
			BPM: defaultBPM,
		},
		Logging: Logging{
			Level:       defaultLogLevel,
			Format:      defaultLogFormat,
			DebugBuffer: defaultDebugBuffer,
		},
	}
}
