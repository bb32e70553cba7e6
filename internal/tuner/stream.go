// SPDX-License-Identifier: MIT
package tuner

// StreamParams describes the capture stream the engine asks for.
type StreamParams struct {
	DeviceID        int
	Channels        int
	SampleRate      float64
	FramesPerBuffer int
	LowLatency      bool
}

// Stream is an opened capture stream.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// StreamOpener opens capture streams. The returned stream delivers blocks
// of interleaved float32 samples to ingest from its own real-time context.
// ingest does not block for long, does not allocate, and does not retain
// the slice.
type StreamOpener interface {
	OpenStream(p StreamParams, ingest func([]float32)) (Stream, error)
}

// Manual opens streams that deliver nothing. The host feeds the engine
// through Engine.Ingest itself, e.g. when replaying a file.
type Manual struct{}

var _ StreamOpener = Manual{}

func (Manual) OpenStream(StreamParams, func([]float32)) (Stream, error) {
	return manualStream{}, nil
}

type manualStream struct{}

func (manualStream) Start() error { return nil }
func (manualStream) Stop() error  { return nil }
func (manualStream) Close() error { return nil }
