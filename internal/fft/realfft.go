// SPDX-License-Identifier: MIT
/*
Package fft implements a real-input FFT tuned for repeated fixed-size analysis
of audio frames, plus the Hann taper applied before it.

An N point real transform is computed as an N/2 point complex transform over
successive (re, im) sample pairs followed by an O(N) pass that separates the
even and odd spectra. All tables are built once by NewRealFFT:

	bitReversed  N/2 ints    interleaved buffer offset of each bit-reversed index
	sinTable     N float32   (-sin, -cos) pairs stored at bit-reversed offsets

Thread Safety:
- The tables are read only after construction.
- ApplyPacked touches only the caller's buffer.
- Apply uses the per-plan scratch buffer and must not run concurrently.
*/
package fft

import (
	"errors"
	"fmt"
	"math"

	"tuner/pkg/bitint"
)

// ErrInvalidLength is returned when a plan is requested for a length the
// radix-2 butterflies cannot handle.
var ErrInvalidLength = errors.New("fft length must be a power of 2 and at least 4")

// RealFFT is an immutable transform plan bound to a fixed length.
type RealFFT struct {
	length      int       // N, number of real samples per frame.
	points      int       // N/2, size of the underlying complex transform.
	bitReversed []int     // Interleaved offsets, one per complex point.
	sinTable    []float32 // Twiddles, (-sin, -cos) per bit-reversed slot.
	buffer      []float32 // Scratch used by Apply.
}

// NewRealFFT builds the plan for frames of length samples.
func NewRealFFT(length int) (*RealFFT, error) {
	if length < 4 || !bitint.IsPowerOfTwo(length) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLength, length)
	}

	points := length / 2
	f := &RealFFT{
		length:      length,
		points:      points,
		bitReversed: make([]int, points),
		sinTable:    make([]float32, 2*points),
		buffer:      make([]float32, length),
	}

	// Each index is reversed over log2(points) bits and scaled by two so the
	// table addresses the interleaved (re, im) buffer directly.
	for i := 0; i < points; i++ {
		temp := 0
		for mask := points / 2; mask > 0; mask >>= 1 {
			temp >>= 1
			if i&mask != 0 {
				temp += points
			}
		}
		f.bitReversed[i] = temp
	}

	for i := 0; i < points; i++ {
		angle := 2 * math.Pi * float64(i) / float64(2*points)
		f.sinTable[f.bitReversed[i]] = float32(-math.Sin(angle))
		f.sinTable[f.bitReversed[i]+1] = float32(-math.Cos(angle))
	}

	return f, nil
}

// Len returns the number of real samples per frame.
func (f *RealFFT) Len() int {
	return f.length
}

// Apply computes the spectrum of the real frame in. Both outputs receive all
// N bins; bins above N/2 are the conjugate mirror of the lower half. in,
// realOut and imagOut must each hold at least Len() values.
func (f *RealFFT) Apply(in, realOut, imagOut []float32) {
	n := f.length
	half := n / 2

	copy(f.buffer, in[:n])
	f.ApplyPacked(f.buffer)

	for i := 1; i < half; i++ {
		realOut[i] = f.buffer[f.bitReversed[i]]
		imagOut[i] = f.buffer[f.bitReversed[i]+1]
	}

	// DC and Fs/2 are real-only; Fs/2 travels in the DC imaginary slot.
	realOut[0] = f.buffer[0]
	realOut[half] = f.buffer[1]
	imagOut[0] = 0
	imagOut[half] = 0

	for i := half + 1; i < n; i++ {
		realOut[i] = realOut[n-i]
		imagOut[i] = -imagOut[n-i]
	}
}

// ApplyPacked transforms buf in place. On return bin k (0 < k < N/2) lives at
// buf[bitReversed(k)] and buf[bitReversed(k)+1], buf[0] holds DC and buf[1]
// holds Fs/2. buf must hold at least Len() values.
func (f *RealFFT) ApplyPacked(buf []float32) {
	buf = buf[:f.length]
	points := f.points

	// Butterfly:
	//    Ain-----Aout
	//        \ /
	//        / \
	//    Bin-----Bout
	end := points * 2
	for perGroup := points / 2; perGroup > 0; perGroup >>= 1 {
		a := 0
		b := perGroup * 2
		sptr := 0

		for a < end {
			sin := f.sinTable[sptr]
			cos := f.sinTable[sptr+1]
			groupEnd := b
			for a < groupEnd {
				v1 := buf[b]*cos + buf[b+1]*sin
				v2 := buf[b]*sin - buf[b+1]*cos
				buf[b] = buf[a] + v1
				buf[a] = buf[b] - 2*v1
				a++
				b++
				buf[b] = buf[a] - v2
				buf[a] = buf[b] + 2*v2
				a++
				b++
			}
			a = b
			b += perGroup * 2
			sptr += 2
		}
	}

	// Massage the complex result into the spectrum of the real sequence.
	br1 := 1
	br2 := points - 1
	for br1 < br2 {
		sin := f.sinTable[f.bitReversed[br1]]
		cos := f.sinTable[f.bitReversed[br1]+1]
		a := f.bitReversed[br1]
		b := f.bitReversed[br2]

		hrMinus := buf[a] - buf[b]
		hrPlus := hrMinus + buf[b]*2
		hiMinus := buf[a+1] - buf[b+1]
		hiPlus := hiMinus + buf[b+1]*2

		v1 := sin*hrMinus - cos*hiPlus
		v2 := cos*hrMinus + sin*hiPlus
		buf[a] = (hrPlus + v1) * 0.5
		buf[b] = buf[a] - v1
		buf[a+1] = (hiMinus + v2) * 0.5
		buf[b+1] = buf[a+1] - hiMinus

		br1++
		br2--
	}

	// The centre bin only needs a conjugate.
	c := f.bitReversed[br1] + 1
	buf[c] = -buf[c]

	// Fold Fs/2 into the imaginary slot of DC.
	v1 := buf[0] - buf[1]
	buf[0] += buf[1]
	buf[1] = v1
}
