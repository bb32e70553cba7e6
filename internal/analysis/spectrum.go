// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"
	"strings"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"

	applog "tuner/internal/log"
	"tuner/pkg/bitint"
)

var logger = applog.Named("Analysis")

// WindowFunc defines the type for selecting an FFT window function.
type WindowFunc int

// Enum for available window functions.
const (
	BartlettHann WindowFunc = iota
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

var (
	ErrInvalidSize       = errors.New("fft size must be a power of 2")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrSizeMismatch      = errors.New("destination length does not match spectrum length")
)

// Pre-allocated buffers for FFT calculations.
type fftWorkspace struct {
	input     []float64    // Windowed input frame.
	fftOutput []complex128 // FFT complex results.
	magnitude []float64
	window    []float64    // Pre-calculated window coefficients.
	mu        sync.RWMutex // Protects magnitude against concurrent readers.
}

// SpectrumProcessor computes the windowed magnitude spectrum of mono
// frames. It is safe to read results while another goroutine processes.
type SpectrumProcessor struct {
	fft        *fourier.FFT
	size       int
	sampleRate float64
	workspace  fftWorkspace
}

var (
	_ Processor        = (*SpectrumProcessor)(nil)
	_ SpectrumProvider = (*SpectrumProcessor)(nil)
)

// NewSpectrumProcessor creates a processor for size-point frames.
func NewSpectrumProcessor(size int, sampleRate float64, windowType WindowFunc) (*SpectrumProcessor, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidSize, size)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w, got %f", ErrInvalidSampleRate, sampleRate)
	}

	coeffs := make([]float64, size)
	applyWindow(coeffs, windowType)

	// FFT output size for real input is N/2 + 1 complex values.
	bins := size/2 + 1

	logger.Debugf("spectrum processor: size %d, sample rate %.1f Hz, window %v", size, sampleRate, windowType)

	return &SpectrumProcessor{
		fft:        fourier.NewFFT(size),
		size:       size,
		sampleRate: sampleRate,
		workspace: fftWorkspace{
			input:     make([]float64, size),
			fftOutput: make([]complex128, bins),
			magnitude: make([]float64, bins),
			window:    coeffs,
		},
	}, nil
}

// SizeFor returns the smallest usable FFT size holding frames samples.
func SizeFor(frames int) int {
	return bitint.NextPowerOfTwo(max(frames, 2))
}

// Process windows frame, zero-padding or truncating it to the FFT size,
// and stores the magnitude of every bin.
func (p *SpectrumProcessor) Process(frame []float32) {
	ws := &p.workspace
	ws.mu.Lock()
	defer ws.mu.Unlock()

	for i := range p.size {
		if i < len(frame) {
			ws.input[i] = float64(frame[i]) * ws.window[i]
		} else {
			ws.input[i] = 0
		}
	}

	p.fft.Coefficients(ws.fftOutput, ws.input)

	for i, c := range ws.fftOutput {
		ws.magnitude[i] = cmplx.Abs(c)
	}
}

// Magnitudes returns a copy of the latest magnitude spectrum.
func (p *SpectrumProcessor) Magnitudes() []float64 {
	p.workspace.mu.RLock()
	defer p.workspace.mu.RUnlock()

	out := make([]float64, len(p.workspace.magnitude))
	copy(out, p.workspace.magnitude)
	return out
}

// MagnitudesInto copies the latest spectrum into dest without allocating.
// dest must hold Size()/2 + 1 values.
func (p *SpectrumProcessor) MagnitudesInto(dest []float64) error {
	p.workspace.mu.RLock()
	defer p.workspace.mu.RUnlock()

	if len(dest) != len(p.workspace.magnitude) {
		return fmt.Errorf("%w: %d, want %d", ErrSizeMismatch, len(dest), len(p.workspace.magnitude))
	}
	copy(dest, p.workspace.magnitude)
	return nil
}

// FrequencyForBin returns the centre frequency of binIndex, or 0 when out
// of range.
func (p *SpectrumProcessor) FrequencyForBin(binIndex int) float64 {
	if binIndex < 0 || binIndex >= len(p.workspace.fftOutput) {
		return 0
	}
	return float64(binIndex) * p.sampleRate / float64(p.size)
}

func (p *SpectrumProcessor) Size() int           { return p.size }
func (p *SpectrumProcessor) SampleRate() float64 { return p.sampleRate }

// DominantFrequency returns the frequency of the strongest bin between
// minHz and maxHz, refined by parabolic interpolation over its
// neighbours, and that bin's magnitude. It returns 0, 0 when the range
// holds no bins or the spectrum is silent.
func (p *SpectrumProcessor) DominantFrequency(minHz, maxHz float64) (freq, magnitude float64) {
	p.workspace.mu.RLock()
	defer p.workspace.mu.RUnlock()

	mags := p.workspace.magnitude
	binHz := p.sampleRate / float64(p.size)
	lo := max(int(minHz/binHz+0.5), 1)
	hi := min(int(maxHz/binHz+0.5), len(mags)-1)
	if lo > hi {
		return 0, 0
	}

	peak := lo + floats.MaxIdx(mags[lo:hi+1])
	if mags[peak] == 0 {
		return 0, 0
	}

	offset := 0.0
	if peak > 0 && peak < len(mags)-1 {
		a, b, c := mags[peak-1], mags[peak], mags[peak+1]
		if d := a - 2*b + c; d != 0 {
			offset = 0.5 * (a - c) / d
		}
	}
	return (float64(peak) + offset) * binHz, mags[peak]
}

// ParseWindowFunc converts a case-insensitive name to a WindowFunc. Unknown
// names return Hann and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

func (w WindowFunc) String() string {
	switch w {
	case BartlettHann:
		return "bartletthann"
	case Blackman:
		return "blackman"
	case BlackmanNuttall:
		return "blackmannuttall"
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	case Lanczos:
		return "lanczos"
	case Nuttall:
		return "nuttall"
	default:
		return fmt.Sprintf("WindowFunc(%d)", int(w))
	}
}

// applyWindow fills coeffs with the selected window, Hann when unknown.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	// gonum windows scale the slice in place.
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		logger.Warnf("unknown window function type %d, defaulting to Hann", windowType)
		window.Hann(coeffs)
	}
}
