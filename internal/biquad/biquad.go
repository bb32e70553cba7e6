// SPDX-License-Identifier: MIT
/*
Package biquad implements second-order IIR sections and the N-pole low/high
pass cascade used to condition input before pitch analysis.

Coefficients follow the analog prototype to digital design:

	w0    = 2*pi*cutoff/sampleRate
	alpha = sin(w0) / (2*bandwidth)
	a0 = 1+alpha   a1 = -2cos(w0)   a2 = 1-alpha

	low pass:  b0 = b2 = (1-cos w0)/2   b1 = 1-cos w0
	high pass: b0 = b2 = (1+cos w0)/2   b1 = -(1+cos w0)

All five are stored divided by a0. State is kept in float64 so drift stays
bounded over long streams even though samples are float32.
*/
package biquad

import (
	"errors"
	"fmt"
	"math"
)

// PassType selects which side of the cutoff a filter keeps.
type PassType int

const (
	LowPass PassType = iota
	HighPass
)

// String returns the string representation of the PassType.
func (p PassType) String() string {
	switch p {
	case LowPass:
		return "low-pass"
	case HighPass:
		return "high-pass"
	default:
		return "unknown"
	}
}

// Section is a single biquad with normalised coefficients and its delay
// registers.
type Section struct {
	b0, b1, b2 float64 // Feed-forward.
	a1, a2     float64 // Feedback.

	x1, x2 float64 // Previous two inputs.
	y1, y2 float64 // Previous two outputs.
}

// Configure derives the coefficients for the given design. The state
// registers are left untouched; call Reset when starting a new stream.
func (s *Section) Configure(pass PassType, cutoffHz, sampleRateHz, bandwidth float64) {
	w0 := 2 * math.Pi * cutoffHz / sampleRateHz
	cosw0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * bandwidth)

	var b0, b1, b2 float64
	switch pass {
	case HighPass:
		b0 = (1 + cosw0) / 2
		b1 = -(1 + cosw0)
		b2 = (1 + cosw0) / 2
	default:
		b0 = (1 - cosw0) / 2
		b1 = 1 - cosw0
		b2 = (1 - cosw0) / 2
	}

	a0 := 1 + alpha
	s.b0 = b0 / a0
	s.b1 = b1 / a0
	s.b2 = b2 / a0
	s.a1 = -2 * cosw0 / a0
	s.a2 = (1 - alpha) / a0
}

// Transform filters one sample and advances the state.
func (s *Section) Transform(x float32) float32 {
	in := float64(x)
	y := s.b0*in + s.b1*s.x1 + s.b2*s.x2 - s.a1*s.y1 - s.a2*s.y2

	s.x2 = s.x1
	s.x1 = in
	s.y2 = s.y1
	s.y1 = y

	return float32(y)
}

// Reset zeroes the delay registers.
func (s *Section) Reset() {
	s.x1, s.x2, s.y1, s.y2 = 0, 0, 0, 0
}

// ErrInvalidPoles is returned for pole counts other than 2, 4, 6 or 8.
var ErrInvalidPoles = errors.New("pole count must be 2, 4, 6 or 8")

// poleBandwidths holds the per-section bandwidth for each supported pole
// count, indexed by poles/2-1. Each biquad contributes two poles. Read only.
var poleBandwidths = [4][4]float64{
	{0.7071},
	{0.60492333, 1.33722126},
	{0.58338080, 0.75932572, 1.95302407},
	{0.57622191, 0.66045510, 0.94276399, 2.57900101},
}

// Bandwidth returns the bandwidth constant of section index of a cascade
// with the given pole count.
func Bandwidth(poles, index int) (float64, error) {
	if !validPoles(poles) {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidPoles, poles)
	}
	if index < 0 || index >= poles/2 {
		return 0, fmt.Errorf("section index %d out of range for %d poles", index, poles)
	}
	return poleBandwidths[poles/2-1][index], nil
}

func validPoles(poles int) bool {
	return poles == 2 || poles == 4 || poles == 6 || poles == 8
}

// Cascade is an N-pole filter built from N/2 biquad sections sharing one
// cutoff and pass type.
type Cascade struct {
	pass    PassType
	poles   int
	cutoff  float64
	section Section
}

// NewCascade creates a cascade filter.
func NewCascade(pass PassType, poles int, cutoffHz float64) (*Cascade, error) {
	if !validPoles(poles) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPoles, poles)
	}
	if cutoffHz <= 0 || math.IsNaN(cutoffHz) || math.IsInf(cutoffHz, 0) {
		return nil, fmt.Errorf("cutoff must be a positive frequency, got %f", cutoffHz)
	}
	return &Cascade{pass: pass, poles: poles, cutoff: cutoffHz}, nil
}

// Pass returns the configured pass type.
func (c *Cascade) Pass() PassType { return c.pass }

// Poles returns the configured pole count.
func (c *Cascade) Poles() int { return c.poles }

// Cutoff returns the cutoff frequency in Hz.
func (c *Cascade) Cutoff() float64 { return c.cutoff }

// Apply filters interleaved samples in place. Every section runs over the
// whole of each channel before the next section starts, and state is reset
// between channels.
func (c *Cascade) Apply(samples []float32, channels int, sampleRateHz float64) {
	if channels < 1 {
		channels = 1
	}
	bandwidths := poleBandwidths[c.poles/2-1]
	for p := 0; p < c.poles/2; p++ {
		c.section.Configure(c.pass, c.cutoff, sampleRateHz, bandwidths[p])
		for ch := 0; ch < channels; ch++ {
			c.section.Reset()
			for i := ch; i < len(samples); i += channels {
				samples[i] = c.section.Transform(samples[i])
			}
		}
	}
}
