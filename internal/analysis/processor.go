// SPDX-License-Identifier: MIT
package analysis

// Processor analyses one frame of mono float32 samples.
type Processor interface {
	Process(frame []float32)
}

// SpectrumProvider exposes the magnitude spectrum of the last processed frame.
type SpectrumProvider interface {
	Magnitudes() []float64                // Copy of the latest magnitude spectrum.
	FrequencyForBin(binIndex int) float64 // Centre frequency (Hz) of a bin.
	Size() int                            // FFT size in points.
	SampleRate() float64
}
