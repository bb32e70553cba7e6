// SPDX-License-Identifier: MIT
//
// Package utils generates float32 test signals in the layout the tuner
// ingests: interleaved frames, samples in [-1, 1].
package utils

import "math"

// GenerateSineWave returns frames frames of a sine at frequency Hz with the
// given peak amplitude, copied to every one of channels channels.
func GenerateSineWave(frames, channels int, sampleRate, frequency, amplitude float64) []float32 {
	return GenerateComplexWave(frames, channels, sampleRate, frequency, amplitude)
}

// GenerateComplexWave returns a tone with a fundamental at frequency Hz and
// one partial per extra weight at integer multiples of it. weights[0]
// scales the fundamental. The result peaks no higher than the sum of the
// absolute weights.
func GenerateComplexWave(frames, channels int, sampleRate, frequency float64, weights ...float64) []float32 {
	if channels < 1 {
		channels = 1
	}
	if len(weights) == 0 {
		weights = []float64{1}
	}
	out := make([]float32, frames*channels)
	for i := range frames {
		tm := float64(i) / sampleRate
		var v float64
		for h, w := range weights {
			v += w * math.Sin(2*math.Pi*frequency*float64(h+1)*tm)
		}
		for c := range channels {
			out[i*channels+c] = float32(v)
		}
	}
	return out
}

// Silence returns frames frames of zeros.
func Silence(frames, channels int) []float32 {
	return make([]float32, frames*max(channels, 1))
}

// Blocks splits samples into consecutive blocks of blockFrames frames, the
// last one possibly shorter, as a capture callback would deliver them.
func Blocks(samples []float32, channels, blockFrames int) [][]float32 {
	step := blockFrames * max(channels, 1)
	if step <= 0 {
		return [][]float32{samples}
	}
	var out [][]float32
	for i := 0; i < len(samples); i += step {
		out = append(out, samples[i:min(i+step, len(samples))])
	}
	return out
}
