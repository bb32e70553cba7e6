// SPDX-License-Identifier: MIT
package tuner

import (
	"fmt"
	"math"
)

const (
	DefaultWindowSeconds = 0.2
	DefaultMinAmplitude  = 0.01
	DefaultMaxFrequency  = 1000.0

	DefaultFramesPerBuffer = 512
)

// Parameters control analysis. They can only change while the engine is
// stopped.
type Parameters struct {
	// WindowSeconds sets the ring buffer length as a duration of audio.
	WindowSeconds float64
	// MinAmplitude is the peak amplitude every analysis window must reach.
	// Zero disables the gate.
	MinAmplitude float32
	// MaxFrequency is the low-pass cutoff applied before detection.
	MaxFrequency float64
}

// DefaultParameters returns the parameters a new engine starts with.
func DefaultParameters() Parameters {
	return Parameters{
		WindowSeconds: DefaultWindowSeconds,
		MinAmplitude:  DefaultMinAmplitude,
		MaxFrequency:  DefaultMaxFrequency,
	}
}

// Validate reports the first out-of-range field, wrapping
// ErrInvalidParameters.
func (p Parameters) Validate() error {
	if !(p.WindowSeconds > 0) || math.IsInf(p.WindowSeconds, 0) {
		return fmt.Errorf("%w: window seconds must be positive, got %v", ErrInvalidParameters, p.WindowSeconds)
	}
	if !(p.MinAmplitude >= 0) || math.IsInf(float64(p.MinAmplitude), 0) {
		return fmt.Errorf("%w: min amplitude must not be negative, got %v", ErrInvalidParameters, p.MinAmplitude)
	}
	if !(p.MaxFrequency > 0) || math.IsInf(p.MaxFrequency, 0) {
		return fmt.Errorf("%w: max frequency must be positive, got %v", ErrInvalidParameters, p.MaxFrequency)
	}
	return nil
}
