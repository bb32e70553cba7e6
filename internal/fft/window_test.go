// SPDX-License-Identifier: MIT
package fft

import (
	"math"
	"testing"
)

func TestHannWindowSilence(t *testing.T) {
	for _, extra := range []bool{false, true} {
		frame := make([]float32, 256)
		HannWindow(frame, extra)
		for i, v := range frame {
			if v != 0 {
				t.Fatalf("extra=%v: frame[%d] = %v, want 0", extra, i, v)
			}
		}
	}
}

func TestHannWindowShape(t *testing.T) {
	tests := []struct {
		name  string
		extra bool
	}{
		{"Periodic", false},
		{"Trailing padding", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const n = 64
			frame := make([]float32, n)
			for i := range frame {
				frame[i] = 1
			}
			HannWindow(frame, tt.extra)

			l := n
			if tt.extra {
				l = n - 1
				if frame[n-1] != 0 {
					t.Errorf("padding sample = %v, want 0", frame[n-1])
				}
			}
			if frame[0] != 0 {
				t.Errorf("frame[0] = %v, want 0", frame[0])
			}
			for i := 0; i < l; i++ {
				want := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(l))
				if math.Abs(float64(frame[i])-want) > 1e-6 {
					t.Errorf("frame[%d] = %v, want %v", i, frame[i], want)
				}
			}
		})
	}
}

func TestHannWindowShortFrames(t *testing.T) {
	HannWindow(nil, true)
	HannWindow(nil, false)

	one := []float32{3}
	HannWindow(one, true)
	if one[0] != 0 {
		t.Errorf("single padding sample = %v, want 0", one[0])
	}
}

func TestHannWindowHotPath(t *testing.T) {
	frame := make([]float32, 4096)
	allocs := testing.AllocsPerRun(100, func() {
		HannWindow(frame, true)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in HannWindow, got %.1f", allocs)
	}
}
