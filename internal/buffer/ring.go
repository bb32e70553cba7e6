// SPDX-License-Identifier: MIT
/*
Package buffer provides the fixed-capacity sample FIFO that sits between the
real-time capture callback (producer) and the pitch query path (consumer).

Thread Safety:
- Push and Snapshot are serialised by a mutex held only for the copy.
- The producer waits at most for one Snapshot copy of Cap() samples.
- No allocation after construction (Snapshot reuses the caller's slice).
*/
package buffer

import "sync"

// RingBuffer holds the most recent Cap() samples written to it.
type RingBuffer struct {
	mu     sync.Mutex
	data   []float32
	head   int  // Index of the oldest sample.
	size   int  // Number of valid samples.
	filled bool // Latched once size reaches capacity.
}

// NewRingBuffer allocates a buffer holding capacity samples. Capacities
// below one are raised to one.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer{data: make([]float32, capacity)}
}

// Push appends samples, evicting the oldest ones when full. If len(samples)
// is at least Cap() the buffer becomes exactly the last Cap() samples.
func (r *RingBuffer) Push(samples []float32) {
	c := len(r.data)
	if len(samples) >= c {
		samples = samples[len(samples)-c:]
	}
	k := len(samples)
	if k == 0 {
		return
	}

	r.mu.Lock()

	// Write position just past the newest sample.
	tail := r.head + r.size
	if tail >= c {
		tail -= c
	}
	n := copy(r.data[tail:], samples)
	copy(r.data, samples[n:])

	evict := r.size + k - c
	if evict > 0 {
		r.head += evict
		if r.head >= c {
			r.head -= c
		}
		r.size = c
	} else {
		r.size += k
	}
	if r.size == c {
		r.filled = true
	}

	r.mu.Unlock()
}

// Snapshot copies the current contents, oldest first, into dst and returns
// the filled slice. dst is grown only when its capacity is too small.
func (r *RingBuffer) Snapshot(dst []float32) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cap(dst) < r.size {
		dst = make([]float32, r.size)
	}
	dst = dst[:r.size]

	end := r.head + r.size
	if end <= len(r.data) {
		copy(dst, r.data[r.head:end])
	} else {
		n := copy(dst, r.data[r.head:])
		copy(dst[n:], r.data[:end-len(r.data)])
	}
	return dst
}

// Filled reports whether the buffer has ever held Cap() samples.
func (r *RingBuffer) Filled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filled
}

// Len returns the number of samples currently held.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Cap returns the fixed capacity.
func (r *RingBuffer) Cap() int {
	return len(r.data)
}

// Reset empties the buffer and clears the filled latch.
func (r *RingBuffer) Reset() {
	r.mu.Lock()
	r.head, r.size, r.filled = 0, 0, false
	r.mu.Unlock()
}
