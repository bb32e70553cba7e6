// SPDX-License-Identifier: MIT
package fft

import "math"

// HannWindow tapers frame in place with 0.5 - 0.5*cos(2*pi*i/L). When
// extraSample is set the last value is padding: L excludes it and it is
// forced to zero.
func HannWindow(frame []float32, extraSample bool) {
	n := len(frame)
	if extraSample {
		n--
	}
	if n <= 0 {
		if extraSample && len(frame) > 0 {
			frame[0] = 0
		}
		return
	}

	multiplier := 2 * math.Pi / float64(n)
	for i := 0; i < n; i++ {
		frame[i] *= float32(0.5 - 0.5*math.Cos(float64(i)*multiplier))
	}

	if extraSample {
		frame[n] = 0
	}
}
