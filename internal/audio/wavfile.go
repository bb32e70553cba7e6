// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

// Clip is a decoded WAV file as interleaved float32 samples in [-1, 1].
type Clip struct {
	Samples    []float32
	Channels   int
	SampleRate int
	BitDepth   int
}

// Frames returns the number of sample frames.
func (c *Clip) Frames() int {
	if c.Channels < 1 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// ReadClip decodes a PCM WAV file.
func ReadClip(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid WAV file", path)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}

	bitDepth := int(d.BitDepth)
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("%s: unsupported bit depth %d", path, bitDepth)
	}

	// 8-bit WAV is unsigned; the decoder leaves it offset by 128.
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}
	scale := float32(int64(1) << (bitDepth - 1))

	clip := &Clip{
		Samples:    make([]float32, len(buf.Data)),
		Channels:   int(d.NumChans),
		SampleRate: int(d.SampleRate),
		BitDepth:   bitDepth,
	}
	for i, v := range buf.Data {
		clip.Samples[i] = float32(v-offset) / scale
	}
	return clip, nil
}
