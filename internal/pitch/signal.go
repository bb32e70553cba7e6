// SPDX-License-Identifier: MIT
package pitch

// Signal is a block of interleaved float32 samples.
type Signal struct {
	Samples    []float32
	Channels   int
	SampleRate int
}

// NewSignal allocates a silent signal of frames frames.
func NewSignal(frames, channels, sampleRate int) *Signal {
	if channels < 1 {
		channels = 1
	}
	return &Signal{
		Samples:    make([]float32, frames*channels),
		Channels:   channels,
		SampleRate: sampleRate,
	}
}

// Frames returns the number of complete frames held.
func (s *Signal) Frames() int {
	if s.Channels < 1 {
		return len(s.Samples)
	}
	return len(s.Samples) / s.Channels
}

// PeakAmplitude returns the largest absolute sample across all channels of
// frames frames starting at startFrame. The range is clipped to the signal.
func (s *Signal) PeakAmplitude(startFrame, frames int) float32 {
	ch := max(s.Channels, 1)
	start := max(startFrame, 0) * ch
	end := min((startFrame+frames)*ch, len(s.Samples))

	var peak float32
	for i := start; i < end; i++ {
		v := s.Samples[i]
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}
