// SPDX-License-Identifier: MIT
package config

import "time"

// Defaults and limits for the tuner configuration.
const (
	DefaultChannels        = 1
	DefaultDeviceID        = MinDeviceID // System default device
	DefaultFramesPerBuffer = 512
	DefaultLowLatency      = false
	DefaultSampleRate      = 44100
	DefaultLogLevel        = "info"

	DefaultWindowSeconds = 0.2
	DefaultMinAmplitude  = 0.01
	DefaultMaxFrequency  = 1000.0

	DefaultMonitorRateHz    = 60.0
	DefaultReadingsCapacity = 20
	DefaultReadingsTimeout  = time.Second
	DefaultDisplayTimeout   = 5 * time.Second
	DefaultTuningStandard   = 440.0

	DefaultRecordingDir = "./recordings"
	DefaultBitDepth     = 16

	DefaultWebSocketAddress = ":8080"
	DefaultUDPTarget        = "127.0.0.1:9090"

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer
	MaxChannels     = 32
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			InputChannels:   DefaultChannels,
		},
		Engine: EngineConfig{
			WindowSeconds: DefaultWindowSeconds,
			MinAmplitude:  DefaultMinAmplitude,
			MaxFrequency:  DefaultMaxFrequency,
		},
		Monitor: MonitorConfig{
			RateHz:           DefaultMonitorRateHz,
			ReadingsCapacity: DefaultReadingsCapacity,
			ReadingsTimeout:  DefaultReadingsTimeout,
			DisplayTimeout:   DefaultDisplayTimeout,
			TuningStandard:   DefaultTuningStandard,
		},
		Recording: RecordingConfig{
			Enabled:   false,
			OutputDir: DefaultRecordingDir,
			BitDepth:  DefaultBitDepth,
		},
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketAddress: DefaultWebSocketAddress,
			UDPEnabled:       false,
			UDPTargetAddress: DefaultUDPTarget,
		},
	}
}
