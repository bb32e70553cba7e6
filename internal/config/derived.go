// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"tuner/internal/note"
)

// GateAmplitude returns the amplitude gate, preferring min_volume_db when
// it is set.
func (c *Config) GateAmplitude() float32 {
	if c.Engine.MinVolumeDB != nil {
		return float32(note.Amplitude(*c.Engine.MinVolumeDB))
	}
	return float32(c.Engine.MinAmplitude)
}

// RecordingPath returns a timestamped WAV path inside the output directory.
func (c *Config) RecordingPath(now time.Time) string {
	name := fmt.Sprintf("tuner-%s.wav", now.Format("20060102-150405"))
	return filepath.Join(c.Recording.OutputDir, name)
}
