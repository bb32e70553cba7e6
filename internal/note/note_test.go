// SPDX-License-Identifier: MIT
package note

import (
	"errors"
	"math"
	"testing"
)

func TestFromFrequency(t *testing.T) {
	tests := []struct {
		freq   float64
		a4     float64
		name   string
		octave int
		number int
		cents  float64
		tuned  bool
	}{
		{440, A440, "A", 4, 69, 0, true},
		{261.6256, A440, "C", 4, 60, 0, true},
		{82.4069, A440, "E", 2, 40, 0, true},
		{466.1638, A440, "A#", 4, 70, 0, true},
		{445, A440, "A", 4, 69, 19.56, false},
		{436, A440, "A", 4, 69, -15.81, false},
		{432, 432, "A", 4, 69, 0, true},
		{440, 432, "A", 4, 69, 31.77, false},
	}

	for _, tt := range tests {
		n := FromFrequency(tt.freq, tt.a4)
		if n.Name != tt.name || n.Octave != tt.octave || n.Number != tt.number {
			t.Errorf("FromFrequency(%v, %v) = %s%d (%d), want %s%d (%d)",
				tt.freq, tt.a4, n.Name, n.Octave, n.Number, tt.name, tt.octave, tt.number)
		}
		if math.Abs(n.Cents-tt.cents) > 0.05 {
			t.Errorf("FromFrequency(%v, %v).Cents = %.2f, want %.2f", tt.freq, tt.a4, n.Cents, tt.cents)
		}
		if n.Tuned != tt.tuned {
			t.Errorf("FromFrequency(%v, %v).Tuned = %v, want %v", tt.freq, tt.a4, n.Tuned, tt.tuned)
		}
	}
}

func TestFromFrequencySilence(t *testing.T) {
	for _, f := range []float64{0, -1} {
		if n := FromFrequency(f, A440); n != (Note{}) {
			t.Errorf("FromFrequency(%v) = %+v, want zero Note", f, n)
		}
	}
	if s := (Note{}).String(); s != "-" {
		t.Errorf("zero Note String() = %q", s)
	}
	if s := FromFrequency(445, A440).String(); s != "A4 +20¢" {
		t.Errorf("String() = %q, want %q", s, "A4 +20¢")
	}
}

func TestValueRoundTrip(t *testing.T) {
	for _, v := range []float64{21, 40.5, 60, 69, 108} {
		if got := Value(Frequency(v, A440), A440); math.Abs(got-v) > 1e-9 {
			t.Errorf("Value(Frequency(%v)) = %v", v, got)
		}
	}
	if Value(0, A440) != 0 {
		t.Error("Value(0) should be 0")
	}
}

func TestNames(t *testing.T) {
	tests := []struct {
		midi int
		want string
	}{
		{0, "C-1"},
		{12, "C0"},
		{60, "C4"},
		{61, "C#4"},
		{69, "A4"},
		{127, "G9"},
		{-1, "N/A"},
	}
	for _, tt := range tests {
		if got := Name(tt.midi); got != tt.want {
			t.Errorf("Name(%d) = %q, want %q", tt.midi, got, tt.want)
		}
		if tt.midi < 0 {
			continue
		}
		back, err := Parse(tt.want)
		if err != nil || back != tt.midi {
			t.Errorf("Parse(%q) = %d, %v; want %d", tt.want, back, err, tt.midi)
		}
	}

	if IndexName(12) != "N/A" || IndexName(-1) != "N/A" {
		t.Error("out of range IndexName should be N/A")
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "4", "H4", "A", "A#x", "Bb4"} {
		if _, err := Parse(s); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidName", s, err)
		}
	}
}

func TestIsSharp(t *testing.T) {
	if !IsSharp(61.2) || IsSharp(60.9) || IsSharp(-3) {
		t.Error("unexpected IsSharp results")
	}
}

func TestDecibels(t *testing.T) {
	tests := []struct {
		amp, db float64
	}{
		{1, 0},
		{0.1, -20},
		{0.01, -40},
		{0, MinDecibels},
		{-0.5, -6.0206},
		{1e-12, MinDecibels},
	}
	for _, tt := range tests {
		if got := Decibels(tt.amp); math.Abs(got-tt.db) > 1e-3 {
			t.Errorf("Decibels(%v) = %v, want %v", tt.amp, got, tt.db)
		}
	}
	if got := Amplitude(-20); math.Abs(got-0.1) > 1e-12 {
		t.Errorf("Amplitude(-20) = %v, want 0.1", got)
	}
}
