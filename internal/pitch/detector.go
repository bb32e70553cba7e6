// SPDX-License-Identifier: MIT
/*
Package pitch estimates the fundamental frequency of a monophonic signal with
a peak-pruned autocorrelation computed through the real FFT.

For each analysis window of W samples:

 1. Hann taper (last sample treated as padding)
 2. forward real FFT
 3. power per bin, compressed with a cube root (Tolonen & Karjalainen, 2000)
 4. forward real FFT of the compressed power; by the symmetry of the real
    FFT packing this yields the autocorrelation in the real part
 5. accumulate the first W/2 lags over 50% overlapping sub-windows
 6. clip at zero, subtract a time-doubled copy to remove octave peaks, clip
 7. scale by W/4 and reverse so high index means low lag

The lag of the strongest remaining peak is the period in samples.

A Detector owns its scratch buffers and allocates nothing per call. It must
not be used from two goroutines at once.
*/
package pitch

import (
	"errors"
	"fmt"
	"math"

	"tuner/internal/fft"
	"tuner/pkg/bitint"
)

// Analysis outcomes that yield no frequency. Callers that only want a
// number should use EstimateFrequency, which reports all of them as 0 Hz.
var (
	ErrNoData         = errors.New("start frame beyond available signal")
	ErrInvalidChannel = errors.New("channel out of range")
	ErrBelowGate      = errors.New("window peak amplitude below gate")
	ErrNoWindows      = errors.New("no analysis window fit in the signal")
	ErrWindowTooWide  = errors.New("analysis window wider than available signal")
	ErrNoSubWindows   = errors.New("no sub-window analysed")
	ErrDegenerateLag  = errors.New("no autocorrelation peak away from zero lag")
)

const (
	// commonSampleRate gets a fixed window size.
	commonSampleRate = 44100
	commonWindowSize = 4096

	minWindowSize = 256

	// Roughly one analysis window per 20 Hz of resolution.
	windowResolutionHz = 20.0
)

// WindowSizeFor returns the analysis window length used at sampleRate.
func WindowSizeFor(sampleRate int) int {
	if sampleRate == commonSampleRate {
		return commonWindowSize
	}
	return max(minWindowSize, bitint.NearestPowerOfTwo(float64(sampleRate)/windowResolutionHz))
}

// Detector is an autocorrelation pitch estimator bound to one sample rate.
type Detector struct {
	sampleRate   int
	minAmplitude float32
	windowSize   int
	half         int
	fft          *fft.RealFFT

	processed []float32 // Accumulated lags, W.
	in        []float32 // Frame / compressed power, W.
	out       []float32 // Real spectrum, W.
	out2      []float32 // Imaginary spectrum, W.
	freq      []float32 // Result of the last AutocorrelationSpectrum, W/2.
	freqa     []float32 // Sum over windows in Detect, W/2.
}

// NewDetector creates a detector for sampleRate that ignores any scan in
// which a window's peak amplitude is below minAmplitude.
func NewDetector(sampleRate int, minAmplitude float32) (*Detector, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	w := WindowSizeFor(sampleRate)
	plan, err := fft.NewRealFFT(w)
	if err != nil {
		return nil, fmt.Errorf("failed to plan %d point FFT: %w", w, err)
	}

	return &Detector{
		sampleRate:   sampleRate,
		minAmplitude: minAmplitude,
		windowSize:   w,
		half:         w / 2,
		fft:          plan,
		processed:    make([]float32, w),
		in:           make([]float32, w),
		out:          make([]float32, w),
		out2:         make([]float32, w),
		freq:         make([]float32, w/2),
		freqa:        make([]float32, w/2),
	}, nil
}

// WindowSize returns the analysis window length W.
func (d *Detector) WindowSize() int { return d.windowSize }

// SampleRate returns the sample rate the detector was built for.
func (d *Detector) SampleRate() int { return d.sampleRate }

// MinAmplitude returns the amplitude gate.
func (d *Detector) MinAmplitude() float32 { return d.minAmplitude }

// EstimateFrequency is Detect with every failure reported as 0 Hz.
func (d *Detector) EstimateFrequency(sig *Signal, channel, startFrame, scanFrames int) float64 {
	hz, err := d.Detect(sig, channel, startFrame, scanFrames)
	if err != nil {
		return 0
	}
	return hz
}

// Detect estimates the fundamental frequency of one channel of sig over
// scanFrames frames starting at startFrame. A non-positive scanFrames scans
// a fifth of the signal. Every window in the scan must pass the amplitude
// gate or the whole scan is rejected.
func (d *Detector) Detect(sig *Signal, channel, startFrame, scanFrames int) (float64, error) {
	frames := sig.Frames()
	if startFrame >= frames {
		return 0, ErrNoData
	}
	if channel < 0 || channel >= max(sig.Channels, 1) {
		return 0, fmt.Errorf("%w: %d of %d", ErrInvalidChannel, channel, sig.Channels)
	}

	// About 0.2 seconds of a one second buffer.
	if scanFrames <= 0 {
		scanFrames = frames / 5
	}
	numWindows := max(1, int(math.Round(float64(scanFrames)/float64(d.windowSize))))
	startFrame = max(0, startFrame)

	clear(d.freqa)

	pos := startFrame
	used := 0
	for i := 0; i < numWindows && pos+d.windowSize < frames; i++ {
		if sig.PeakAmplitude(pos, d.windowSize) < d.minAmplitude {
			return 0, ErrBelowGate
		}

		spectrum, err := d.AutocorrelationSpectrum(sig, channel, pos, d.windowSize)
		if err == nil {
			for j, v := range spectrum {
				d.freqa[j] += v
			}
			used++
		}
		pos += d.windowSize
	}

	if used < 1 {
		return 0, ErrNoWindows
	}

	argmax := 0
	for j := 1; j < d.half; j++ {
		if d.freqa[j] > d.freqa[argmax] {
			argmax = j
		}
	}

	// An all-zero spectrum has no peak, as with silence and the gate off.
	lag := (d.half - 1) - argmax
	if d.freqa[argmax] <= 0 || lag <= 0 {
		return 0, ErrDegenerateLag
	}
	return float64(d.sampleRate) / float64(lag), nil
}

// AutocorrelationSpectrum computes the peak-pruned autocorrelation of width
// frames of one channel starting at windowStart, using W-length sub-windows
// with a W/2 stride. The result has W/2 values with lag (W/2-1-i) at index
// i. It aliases detector scratch and is valid until the next call.
func (d *Detector) AutocorrelationSpectrum(sig *Signal, channel, windowStart, width int) ([]float32, error) {
	w := d.windowSize
	frames := sig.Frames()
	if windowStart < 0 || windowStart >= frames {
		return nil, ErrWindowTooWide
	}
	width = min(width, frames-windowStart)
	if width < w {
		return nil, ErrWindowTooWide
	}
	ch := max(sig.Channels, 1)
	if channel < 0 || channel >= ch {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidChannel, channel, ch)
	}

	clear(d.processed)

	windows := 0
	for start := 0; start+w <= width; start += d.half {
		src := (windowStart+start)*ch + channel
		for i := 0; i < w; i++ {
			d.in[i] = sig.Samples[src+i*ch]
		}

		fft.HannWindow(d.in, true)
		d.fft.Apply(d.in, d.out, d.out2)

		for i := 0; i < w; i++ {
			power := d.out[i]*d.out[i] + d.out2[i]*d.out2[i]
			d.in[i] = float32(math.Cbrt(float64(power)))
		}
		d.fft.Apply(d.in, d.out, d.out2)

		for i := 0; i < d.half; i++ {
			d.processed[i] += d.out[i]
		}
		windows++
	}

	if windows < 1 {
		return nil, ErrNoSubWindows
	}

	// Peak pruning. Only current and earlier indexes are read, and those
	// have already been clipped.
	for i := 0; i < d.half; i++ {
		if d.processed[i] < 0 {
			d.processed[i] = 0
		}
		d.out[i] = d.processed[i]
		if i%2 == 0 {
			d.processed[i] -= d.out[i/2]
		} else {
			d.processed[i] -= (d.out[i/2] + d.out[i/2+1]) / 2
		}
		if d.processed[i] < 0 {
			d.processed[i] = 0
		}
	}

	scale := float32(w / 4)
	for i := 0; i < d.half; i++ {
		d.freq[d.half-1-i] = d.processed[i] / scale
	}
	return d.freq, nil
}
