// SPDX-License-Identifier: MIT
// Package note converts frequencies to equal-tempered MIDI note values and
// names, and amplitudes to decibels.
package note

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// A440 is the concert pitch of A4 in Hz.
const A440 = 440.0

// MinDecibels is reported for silent amplitudes.
const MinDecibels = -160.0

// TunedCents is the largest deviation still shown as in tune.
const TunedCents = 10.0

var names = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var ErrInvalidName = errors.New("invalid note name")

// Value returns the fractional MIDI note of freq with A4 tuned to a4, or 0
// for non-positive frequencies.
func Value(freq, a4 float64) float64 {
	if freq <= 0 || a4 <= 0 {
		return 0
	}
	return 69 + 12*math.Log2(freq/a4)
}

// Frequency is the inverse of Value.
func Frequency(value, a4 float64) float64 {
	return a4 * math.Pow(2, (value-69)/12)
}

// IndexName returns the name of semitone index (0 is C), or "N/A".
func IndexName(index int) string {
	if index < 0 || index >= len(names) {
		return "N/A"
	}
	return names[index]
}

// Name returns the note name with its octave, e.g. 69 is "A4".
func Name(midi int) string {
	if midi < 0 {
		return "N/A"
	}
	return IndexName(midi%12) + strconv.Itoa(midi/12-1)
}

// Parse returns the MIDI note for a name such as "A4" or "C#-1".
func Parse(name string) (int, error) {
	i := strings.IndexAny(name, "-0123456789")
	if i <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	semitone := -1
	for j, n := range names {
		if n == name[:i] {
			semitone = j
			break
		}
	}
	if semitone < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	octave, err := strconv.Atoi(name[i:])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return (octave+1)*12 + semitone, nil
}

// IsSharp reports whether the semitone under value is a sharp.
func IsSharp(value float64) bool {
	if value < 0 {
		return false
	}
	return strings.HasSuffix(IndexName(int(value)%12), "#")
}

// Note is a detected frequency placed on the equal-tempered scale.
type Note struct {
	Frequency float64 `json:"frequency"`
	Value     float64 `json:"value"`
	Number    int     `json:"number"`
	Name      string  `json:"name"`
	Octave    int     `json:"octave"`
	Cents     float64 `json:"cents"`
	Tuned     bool    `json:"tuned"`
}

// FromFrequency locates freq relative to the nearest note. It returns the
// zero Note for non-positive frequencies.
func FromFrequency(freq, a4 float64) Note {
	value := Value(freq, a4)
	if value <= 0 {
		return Note{}
	}

	number := int(math.Round(value))
	cents := (value - float64(number)) * 100
	return Note{
		Frequency: freq,
		Value:     value,
		Number:    number,
		Name:      IndexName(number % 12),
		Octave:    number/12 - 1,
		Cents:     cents,
		Tuned:     math.Abs(cents) <= TunedCents,
	}
}

func (n Note) String() string {
	if n.Name == "" {
		return "-"
	}
	return fmt.Sprintf("%s%d %+.0f¢", n.Name, n.Octave, n.Cents)
}

// Decibels converts a linear amplitude to dB, floored at MinDecibels.
func Decibels(amp float64) float64 {
	power := amp * amp
	if power <= 0 {
		return MinDecibels
	}
	return math.Max(MinDecibels, 10*math.Log10(power))
}

// Amplitude converts dB back to a linear amplitude.
func Amplitude(db float64) float64 {
	return math.Sqrt(math.Pow(10, db/10))
}
