// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, "log_level: debug\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	want := Default()
	want.LogLevel = "debug"
	if cfg.Audio != want.Audio || cfg.Engine.WindowSeconds != want.Engine.WindowSeconds ||
		cfg.Monitor != want.Monitor || cfg.Recording != want.Recording || cfg.Transport != want.Transport {
		t.Errorf("unset sections lost their defaults: %+v", cfg)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadConfig_Sections(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
audio:
  input_device: 3
  sample_rate: 48000
  input_channels: 2
engine:
  window_seconds: 0.5
  min_volume_db: -40
  max_frequency: 2000
monitor:
  rate_hz: 30
  readings_timeout: 2s
  tuning_standard: 432
recording:
  enabled: true
  bit_depth: 24
transport:
  udp_enabled: true
  udp_target_address: "10.0.0.2:7000"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Audio.InputDevice != 3 || cfg.Audio.SampleRate != 48000 || cfg.Audio.InputChannels != 2 {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.Audio.FramesPerBuffer != DefaultFramesPerBuffer {
		t.Errorf("frames_per_buffer = %d, want default", cfg.Audio.FramesPerBuffer)
	}
	if cfg.Engine.WindowSeconds != 0.5 || cfg.Engine.MaxFrequency != 2000 {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if got := cfg.GateAmplitude(); got < 0.0099 || got > 0.0101 {
		t.Errorf("GateAmplitude() = %v, want 0.01 for -40 dB", got)
	}
	if cfg.Monitor.RateHz != 30 || cfg.Monitor.ReadingsTimeout != 2*time.Second || cfg.Monitor.TuningStandard != 432 {
		t.Errorf("monitor = %+v", cfg.Monitor)
	}
	if !cfg.Recording.Enabled || cfg.Recording.BitDepth != 24 || cfg.Recording.OutputDir != DefaultRecordingDir {
		t.Errorf("recording = %+v", cfg.Recording)
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPTargetAddress != "10.0.0.2:7000" {
		t.Errorf("transport = %+v", cfg.Transport)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ENV_DEBUG", "true")
	t.Setenv("ENV_SAMPLE_RATE", "48000")
	t.Setenv("ENV_MIN_AMPLITUDE", "0.05")
	t.Setenv("ENV_UDP_ENABLED", "1")
	t.Setenv("ENV_UDP_TARGET_ADDRESS", "192.168.1.5:9000")
	t.Setenv("ENV_INPUT_DEVICE", "not-a-number")

	cfg, err := LoadConfig(writeTempConfig(t, "audio:\n  input_device: 2\n"))
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if !cfg.Debug || cfg.Audio.SampleRate != 48000 || cfg.Engine.MinAmplitude != 0.05 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPTargetAddress != "192.168.1.5:9000" {
		t.Errorf("transport overrides not applied: %+v", cfg.Transport)
	}
	if cfg.Audio.InputDevice != 2 {
		t.Errorf("unparseable override replaced input_device: got %d", cfg.Audio.InputDevice)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
		substr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"device", func(c *Config) { c.Audio.InputDevice = -2 }, "audio.input_device"},
		{"sample rate", func(c *Config) { c.Audio.SampleRate = 1000 }, "audio.sample_rate"},
		{"frames", func(c *Config) { c.Audio.FramesPerBuffer = 0 }, "audio.frames_per_buffer"},
		{"channels", func(c *Config) { c.Audio.InputChannels = 0 }, "audio.input_channels"},
		{"window", func(c *Config) { c.Engine.WindowSeconds = 0 }, "engine.window_seconds"},
		{"amplitude", func(c *Config) { c.Engine.MinAmplitude = 2 }, "engine.min_amplitude"},
		{"volume", func(c *Config) { v := 3.0; c.Engine.MinVolumeDB = &v }, "engine.min_volume_db"},
		{"nyquist", func(c *Config) { c.Engine.MaxFrequency = 30000 }, "engine.max_frequency"},
		{"rate", func(c *Config) { c.Monitor.RateHz = 0 }, "monitor.rate_hz"},
		{"capacity", func(c *Config) { c.Monitor.ReadingsCapacity = 0 }, "monitor.readings_capacity"},
		{"standard", func(c *Config) { c.Monitor.TuningStandard = -1 }, "monitor.tuning_standard"},
		{"bit depth", func(c *Config) { c.Recording.Enabled = true; c.Recording.BitDepth = 8 }, "recording.bit_depth"},
		{"disabled recording ignored", func(c *Config) { c.Recording.BitDepth = 8 }, ""},
		{"udp target", func(c *Config) { c.Transport.UDPEnabled = true; c.Transport.UDPTargetAddress = "nohost" }, "udp_target_address"},
		{"websocket", func(c *Config) { c.Transport.WebSocketEnabled = true; c.Transport.WebSocketAddress = "" }, "websocket_address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.substr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.substr)
			}
		})
	}
}

func TestRecordingPath(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Recording.OutputDir = "takes"
	got := cfg.RecordingPath(time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC))
	if want := filepath.Join("takes", "tuner-20240309-140507.wav"); got != want {
		t.Errorf("RecordingPath() = %q, want %q", got, want)
	}
	if a := cfg.GateAmplitude(); a != DefaultMinAmplitude {
		t.Errorf("GateAmplitude() = %v, want %v", a, DefaultMinAmplitude)
	}
}
