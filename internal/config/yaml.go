// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	applog "tuner/internal/log"
)

var logger = applog.Named("Config")

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug logging.
	LogLevel  string          `yaml:"log_level"` // "debug", "info", "warn" or "error".
	Audio     AudioConfig     `yaml:"audio"`
	Engine    EngineConfig    `yaml:"engine"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
}

// AudioConfig holds settings related to audio capture.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz (e.g., 44100, 48000).
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per capture callback.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency settings from PortAudio device.
	InputChannels   int     `yaml:"input_channels"`    // Channels to capture; pitch is read from the first.
}

// EngineConfig holds the pitch detection parameters.
type EngineConfig struct {
	WindowSeconds float64 `yaml:"window_seconds"` // Analysed history length.
	MinAmplitude  float64 `yaml:"min_amplitude"`  // Peak amplitude gate (0-1).
	// MinVolumeDB, when set, replaces MinAmplitude with the amplitude of
	// this level, e.g. -40.
	MinVolumeDB  *float64 `yaml:"min_volume_db,omitempty"`
	MaxFrequency float64  `yaml:"max_frequency"` // Low-pass cutoff in Hz.
}

// MonitorConfig holds settings for the polling loop that publishes readings.
type MonitorConfig struct {
	RateHz           float64       `yaml:"rate_hz"`
	ReadingsCapacity int           `yaml:"readings_capacity"` // Readings averaged together.
	ReadingsTimeout  time.Duration `yaml:"readings_timeout"`  // Silence before the average resets.
	DisplayTimeout   time.Duration `yaml:"display_timeout"`   // Silence before the display clears.
	TuningStandard   float64       `yaml:"tuning_standard"`   // Frequency of A4.
}

// RecordingConfig holds settings related to audio recording functionality.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
	BitDepth  int    `yaml:"bit_depth"` // 16, 24 or 32.
}

// TransportConfig holds settings for publishing readings.
type TransportConfig struct {
	WebSocketEnabled bool   `yaml:"websocket_enabled"`
	WebSocketAddress string `yaml:"websocket_address"` // Listen address, e.g. ":8080".
	UDPEnabled       bool   `yaml:"udp_enabled"`
	UDPTargetAddress string `yaml:"udp_target_address"` // e.g. "127.0.0.1:9090".
}

// SearchPaths are tried in order when LoadConfig is given no path.
var SearchPaths = []string{"tuner.yaml", "config.yaml"}

// LoadConfig loads configuration from a YAML file specified by path. If path
// is empty it searches SearchPaths and falls back to built-in defaults. Fields
// missing from the file keep their defaults. Environment overrides are applied
// last, then the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range SearchPaths {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		logger.Debugf("loaded %s", path)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every section and reports all problems found.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	if c.LogLevel != "" {
		_, ok := applog.ParseLevel(c.LogLevel)
		check(ok, "log_level %q is not a known level", c.LogLevel)
	}

	a := c.Audio
	check(a.InputDevice >= MinDeviceID, "audio.input_device must be >= %d, got %d", MinDeviceID, a.InputDevice)
	check(a.SampleRate >= MinSampleRate && a.SampleRate <= MaxSampleRate,
		"audio.sample_rate must be within [%d, %d], got %v", MinSampleRate, MaxSampleRate, a.SampleRate)
	check(a.FramesPerBuffer > 0 && a.FramesPerBuffer <= MaxBufferFrames,
		"audio.frames_per_buffer must be within [1, %d], got %d", MaxBufferFrames, a.FramesPerBuffer)
	check(a.InputChannels >= 1 && a.InputChannels <= MaxChannels,
		"audio.input_channels must be within [1, %d], got %d", MaxChannels, a.InputChannels)

	e := c.Engine
	check(e.WindowSeconds > 0 && e.WindowSeconds <= 10, "engine.window_seconds must be within (0, 10], got %v", e.WindowSeconds)
	check(e.MinAmplitude >= 0 && e.MinAmplitude <= 1, "engine.min_amplitude must be within [0, 1], got %v", e.MinAmplitude)
	if e.MinVolumeDB != nil {
		check(*e.MinVolumeDB <= 0 && !math.IsNaN(*e.MinVolumeDB), "engine.min_volume_db must not be positive, got %v", *e.MinVolumeDB)
	}
	check(e.MaxFrequency > 0 && e.MaxFrequency < a.SampleRate/2,
		"engine.max_frequency must be within (0, %v), got %v", a.SampleRate/2, e.MaxFrequency)

	m := c.Monitor
	check(m.RateHz > 0 && m.RateHz <= 1000, "monitor.rate_hz must be within (0, 1000], got %v", m.RateHz)
	check(m.ReadingsCapacity >= 1, "monitor.readings_capacity must be at least 1, got %d", m.ReadingsCapacity)
	check(m.ReadingsTimeout >= 0, "monitor.readings_timeout must not be negative")
	check(m.DisplayTimeout >= 0, "monitor.display_timeout must not be negative")
	check(m.TuningStandard > 0, "monitor.tuning_standard must be positive, got %v", m.TuningStandard)

	if c.Recording.Enabled {
		check(c.Recording.OutputDir != "", "recording.output_dir must be set when recording is enabled")
		bd := c.Recording.BitDepth
		check(bd == 16 || bd == 24 || bd == 32, "recording.bit_depth must be 16, 24 or 32, got %d", bd)
	}

	t := c.Transport
	if t.WebSocketEnabled {
		check(t.WebSocketAddress != "", "transport.websocket_address must be set when the WebSocket transport is enabled")
	}
	if t.UDPEnabled {
		check(strings.Contains(t.UDPTargetAddress, ":"),
			"transport.udp_target_address %q appears invalid (missing port?)", t.UDPTargetAddress)
	}

	return errors.Join(errs...)
}

// applyEnvOverrides applies ENV_* variables on top of file values.
// Unparseable values are ignored with a warning.
func (c *Config) applyEnvOverrides() {
	envBool("ENV_DEBUG", &c.Debug)
	envString("ENV_LOG_LEVEL", &c.LogLevel)

	envInt("ENV_INPUT_DEVICE", &c.Audio.InputDevice)
	envFloat("ENV_SAMPLE_RATE", &c.Audio.SampleRate)

	envFloat("ENV_MIN_AMPLITUDE", &c.Engine.MinAmplitude)
	envFloat("ENV_MAX_FREQUENCY", &c.Engine.MaxFrequency)
	envFloat("ENV_TUNING_STANDARD", &c.Monitor.TuningStandard)

	envBool("ENV_RECORDING_ENABLED", &c.Recording.Enabled)

	envBool("ENV_WS_ENABLED", &c.Transport.WebSocketEnabled)
	envString("ENV_WS_ADDRESS", &c.Transport.WebSocketAddress)
	envBool("ENV_UDP_ENABLED", &c.Transport.UDPEnabled)
	envString("ENV_UDP_TARGET_ADDRESS", &c.Transport.UDPTargetAddress)
}

func envString(key string, dst *string) {
	if val, ok := os.LookupEnv(key); ok {
		*dst = val
		logger.Infof("overriding from %s: %s", key, val)
	}
}

func envBool(key string, dst *bool) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			logger.Warnf("ignoring %s=%q: %v", key, val, err)
			return
		}
		*dst = b
		logger.Infof("overriding from %s: %v", key, b)
	}
}

func envInt(key string, dst *int) {
	if val, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			logger.Warnf("ignoring %s=%q: %v", key, val, err)
			return
		}
		*dst = n
		logger.Infof("overriding from %s: %d", key, n)
	}
}

func envFloat(key string, dst *float64) {
	if val, ok := os.LookupEnv(key); ok {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			logger.Warnf("ignoring %s=%q: %v", key, val, err)
			return
		}
		*dst = f
		logger.Infof("overriding from %s: %v", key, f)
	}
}
