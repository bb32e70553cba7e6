// SPDX-License-Identifier: MIT
/*
Package tuner implements the pitch detection engine: a capture stream feeds
a ring buffer, and each query low-pass filters a snapshot of it and runs the
autocorrelation detector over the result.

Thread Safety:
  - Ingest runs on the capture context. It reaches the ring buffer through an
    atomic pointer and never takes the lifecycle lock or allocates.
  - Configure, Start, Stop, QueryFrequency and Samples are serialised by one
    mutex that also guards construction and release of the session.
  - The ring buffer's own short critical section keeps snapshots untorn.
*/
package tuner

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"tuner/internal/biquad"
	"tuner/internal/buffer"
	"tuner/internal/log"
	"tuner/internal/pitch"
)

var (
	ErrConfigurationRejected = errors.New("parameters cannot change while the engine is running")
	ErrInvalidParameters     = errors.New("invalid engine parameters")
	ErrStreamOpen            = errors.New("failed to open capture stream")
)

// Low-pass pre-filter order.
const filterPoles = 8

var logger = log.Named("Engine")

// session holds everything sized from the parameters and sample rate of
// one Start.
type session struct {
	ring       *buffer.RingBuffer
	cascade    *biquad.Cascade
	detector   *pitch.Detector
	stream     Stream
	signal     pitch.Signal // Filtered working copy of the ring.
	channels   int
	sampleRate float64
}

type Engine struct {
	mu sync.Mutex

	opener          StreamOpener
	framesPerBuffer int
	lowLatency      bool
	params          Parameters

	// current is owned by mu; live is what Ingest sees.
	current *session
	live    atomic.Pointer[session]
}

type Option func(*Engine)

// WithFramesPerBuffer sets the block size requested from the opener.
func WithFramesPerBuffer(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.framesPerBuffer = n
		}
	}
}

// WithLowLatency asks the opener for its low latency configuration.
func WithLowLatency(enabled bool) Option {
	return func(e *Engine) { e.lowLatency = enabled }
}

// WithParameters replaces the default parameters. They are validated on
// Start.
func WithParameters(p Parameters) Option {
	return func(e *Engine) { e.params = p }
}

// New creates a stopped engine that captures through opener.
func New(opener StreamOpener, opts ...Option) *Engine {
	e := &Engine{
		opener:          opener,
		framesPerBuffer: DefaultFramesPerBuffer,
		params:          DefaultParameters(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Configure replaces the parameters. It fails with ErrConfigurationRejected
// while running, leaving the current parameters in place.
func (e *Engine) Configure(p Parameters) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil {
		logger.Warnf("rejected parameter change while running")
		return ErrConfigurationRejected
	}
	if err := p.Validate(); err != nil {
		return err
	}
	e.params = p
	return nil
}

// Parameters returns the current parameters.
func (e *Engine) Parameters() Parameters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

// Running reports whether the engine is started.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil
}

// Start builds the ring buffer, filter and detector for sampleRate and
// starts capture on deviceID. Starting a running engine does nothing.
func (e *Engine) Start(deviceID, channels int, sampleRate float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil {
		return nil
	}
	if err := e.params.Validate(); err != nil {
		return err
	}
	if channels < 1 {
		return fmt.Errorf("%w: channels must be at least 1, got %d", ErrInvalidParameters, channels)
	}
	if !(sampleRate >= 1) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("%w: sample rate must be positive, got %v", ErrInvalidParameters, sampleRate)
	}
	if e.params.MaxFrequency >= sampleRate/2 {
		return fmt.Errorf("%w: max frequency %v Hz must be below half the sample rate %v Hz",
			ErrInvalidParameters, e.params.MaxFrequency, sampleRate)
	}

	s, err := e.newSession(channels, sampleRate)
	if err != nil {
		return err
	}

	stream, err := e.opener.OpenStream(StreamParams{
		DeviceID:        deviceID,
		Channels:        channels,
		SampleRate:      sampleRate,
		FramesPerBuffer: e.framesPerBuffer,
		LowLatency:      e.lowLatency,
	}, e.Ingest)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStreamOpen, err)
	}
	s.stream = stream

	// Publish before starting so the first callback is not dropped.
	e.live.Store(s)
	if err := stream.Start(); err != nil {
		e.live.Store(nil)
		if cerr := stream.Close(); cerr != nil {
			logger.Warnf("failed to close stream after start error: %v", cerr)
		}
		return fmt.Errorf("%w: %w", ErrStreamOpen, err)
	}
	e.current = s

	logger.Infof("started device %d, %d channel(s) at %.0f Hz, window %d frames, detector window %d",
		deviceID, channels, sampleRate, s.ring.Cap()/channels, s.detector.WindowSize())
	return nil
}

func (e *Engine) newSession(channels int, sampleRate float64) (*session, error) {
	frames := max(1, int(e.params.WindowSeconds*sampleRate))

	cascade, err := biquad.NewCascade(biquad.LowPass, filterPoles, e.params.MaxFrequency)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	detector, err := pitch.NewDetector(int(math.Round(sampleRate)), e.params.MinAmplitude)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}

	return &session{
		ring:     buffer.NewRingBuffer(frames * channels),
		cascade:  cascade,
		detector: detector,
		signal: pitch.Signal{
			Samples:    make([]float32, 0, frames*channels),
			Channels:   channels,
			SampleRate: int(math.Round(sampleRate)),
		},
		channels:   channels,
		sampleRate: sampleRate,
	}, nil
}

// Stop halts ingestion, stops and closes the stream and releases the
// session. Parameters persist. Stopping a stopped engine does nothing.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.current
	if s == nil {
		return nil
	}

	// Ingest sees nil from here on, even while the stream drains.
	e.live.Store(nil)
	e.current = nil

	var errs []error
	if err := s.stream.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop stream: %w", err))
	}
	if err := s.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close stream: %w", err))
	}

	logger.Infof("stopped")
	return errors.Join(errs...)
}

// Ingest appends a block of interleaved samples. It is the capture
// callback and a no-op while stopped.
func (e *Engine) Ingest(samples []float32) {
	if s := e.live.Load(); s != nil {
		s.ring.Push(samples)
	}
}

// QueryFrequency returns the current fundamental frequency of channel 0 in
// Hz, or 0 when stopped, before the buffer first fills, or when no pitch
// is found.
func (e *Engine) QueryFrequency() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.current
	if s == nil || !s.ring.Filled() {
		return 0
	}

	s.signal.Samples = s.ring.Snapshot(s.signal.Samples)
	s.cascade.Apply(s.signal.Samples, s.channels, s.sampleRate)
	return s.detector.EstimateFrequency(&s.signal, 0, 0, s.signal.Frames())
}

// Samples returns a copy of the buffered input. With filtered set it is
// the low-passed signal of the last QueryFrequency instead of the live
// ring contents. It returns nil while stopped.
func (e *Engine) Samples(filtered bool) []float32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.current
	if s == nil {
		return nil
	}
	if filtered {
		return append([]float32(nil), s.signal.Samples...)
	}
	return s.ring.Snapshot(nil)
}
