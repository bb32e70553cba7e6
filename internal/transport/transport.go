// SPDX-License-Identifier: MIT
package transport

import (
	"time"

	"tuner/internal/note"
)

// Transport defines a generic interface for sending readings or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// Reading is one published tuner result.
type Reading struct {
	Time time.Time `json:"time"`
	// Frequency is the latest detected frequency in Hz.
	Frequency float64 `json:"frequency"`
	// Average is the mean of the recent non-zero readings.
	Average float64 `json:"average"`
	// Latest is the fractional note value of Frequency.
	Latest float64 `json:"latest"`
	// Note places Average on the scale.
	Note note.Note `json:"note"`
	// Reset marks the end of a pitched passage after prolonged silence.
	Reset bool `json:"reset,omitempty"`
}

// Multi fans a message out to several transports. Send and Close visit
// every transport and return the first error.
type Multi []Transport

func (m Multi) Send(data any) error {
	var first error
	for _, t := range m {
		if err := t.Send(data); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m Multi) Close() error {
	var first error
	for _, t := range m {
		if err := t.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var _ Transport = Multi(nil)
