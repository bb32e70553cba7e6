// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"os"
	"sync"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	DefaultBitDepth = 16

	// PCM format code in the WAV header.
	wavFormatPCM = 1
)

// Recorder writes captured float32 blocks to a PCM WAV file.
type Recorder struct {
	bitDepth int
	scale    float64

	isRecording atomic.Bool
	mu          sync.Mutex // Held by Write and by Start/Stop around the encoder.
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer // Reusable buffer for format conversion
	written     int
}

// NewRecorder creates a recorder for 16, 24 or 32 bit PCM. Other depths
// fall back to DefaultBitDepth.
func NewRecorder(bitDepth int) *Recorder {
	switch bitDepth {
	case 16, 24, 32:
	default:
		bitDepth = DefaultBitDepth
	}
	return &Recorder{
		bitDepth: bitDepth,
		scale:    float64(int64(1)<<(bitDepth-1) - 1),
	}
}

// BitDepth returns the PCM sample size in bits.
func (r *Recorder) BitDepth() int { return r.bitDepth }

// Recording reports whether a file is open.
func (r *Recorder) Recording() bool { return r.isRecording.Load() }

// Start creates filename and begins accepting blocks of up to
// framesPerBuffer frames without allocating.
func (r *Recorder) Start(filename string, sampleRate, channels, framesPerBuffer int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRecording.Load() {
		return fmt.Errorf("already recording")
	}
	if channels < 1 || sampleRate < 1 {
		return fmt.Errorf("invalid recording format: %d channel(s) at %d Hz", channels, sampleRate)
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	r.outputFile = file
	r.wavEncoder = wav.NewEncoder(file, sampleRate, r.bitDepth, channels, wavFormatPCM)
	r.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, max(framesPerBuffer, 1)*channels),
		SourceBitDepth: r.bitDepth,
	}
	r.written = 0

	r.isRecording.Store(true)
	logger.Infof("recording %d-bit WAV to %s", r.bitDepth, filename)
	return nil
}

// Write appends a block of interleaved samples, clipped to [-1, 1]. It is
// called from the capture callback: if Stop holds the recorder the block
// is dropped instead of waiting.
func (r *Recorder) Write(samples []float32) {
	if !r.isRecording.Load() || !r.mu.TryLock() {
		return
	}
	defer r.mu.Unlock()

	if r.wavEncoder == nil {
		return
	}

	// Blocks larger than the preallocated buffer are written in chunks.
	buf := r.sampleBuf.Data[:cap(r.sampleBuf.Data)]
	for len(samples) > 0 {
		n := min(len(samples), len(buf))
		for i, v := range samples[:n] {
			x := math.Max(-1, math.Min(1, float64(v)))
			buf[i] = int(math.Round(x * r.scale))
		}
		r.sampleBuf.Data = buf[:n]
		if err := r.wavEncoder.Write(r.sampleBuf); err != nil {
			logger.Errorf("error writing to WAV file: %v", err)
			return
		}
		r.written += n
		samples = samples[n:]
	}
}

// Stop finalises the WAV header and closes the file. Stopping an idle
// recorder does nothing.
func (r *Recorder) Stop() error {
	if !r.isRecording.Load() {
		return nil
	}
	r.isRecording.Store(false)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.wavEncoder != nil {
		if err := r.wavEncoder.Close(); err != nil {
			return err
		}
		r.wavEncoder = nil
	}

	if r.outputFile != nil {
		if err := r.outputFile.Close(); err != nil {
			return err
		}
		r.outputFile = nil
	}

	logger.Infof("recording stopped after %d samples", r.written)
	return nil
}
