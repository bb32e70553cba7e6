// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"sync"
)

// Feed delivers readings over a buffered channel, for an in-process
// consumer such as the terminal UI. Send never blocks; readings are
// dropped while the consumer is behind.
type Feed struct {
	mu     sync.Mutex
	ch     chan Reading
	closed bool
}

func NewFeed(size int) *Feed {
	if size < 1 {
		size = 1
	}
	return &Feed{ch: make(chan Reading, size)}
}

// Readings is closed by Close.
func (f *Feed) Readings() <-chan Reading {
	return f.ch
}

func (f *Feed) Send(data any) error {
	r, ok := data.(Reading)
	if !ok {
		return fmt.Errorf("feed: unsupported message type %T", data)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return fmt.Errorf("feed: closed")
	}
	select {
	case f.ch <- r:
	default:
	}
	return nil
}

func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.ch)
	}
	return nil
}

var _ Transport = (*Feed)(nil)
