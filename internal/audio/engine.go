// SPDX-License-Identifier: MIT
/*
Package audio connects the tuner engine to real input hardware through
PortAudio, records the raw input to WAV, and reads WAV clips for offline
analysis.

Thread Safety:
  - The capture callback runs on PortAudio's real-time thread and only
    forwards the block to the engine and the recorder.
  - The recorder never blocks the callback; blocks arriving while it is
    being stopped are dropped.
*/
package audio

import (
	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"

	applog "tuner/internal/log"
	"tuner/internal/tuner"
)

var logger = applog.Named("Capture")

// paOpenStream is replaced in tests.
var paOpenStream = func(p portaudio.StreamParameters, callback func(in []float32)) (tuner.Stream, error) {
	s, err := portaudio.OpenStream(p, callback)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// PortAudio opens float32 input streams. PortAudio must be initialised
// for as long as streams are open.
type PortAudio struct {
	// Recorder, when set, receives a copy of every captured block.
	Recorder *Recorder
}

var _ tuner.StreamOpener = (*PortAudio)(nil)

func (pa *PortAudio) OpenStream(p tuner.StreamParams, ingest func([]float32)) (tuner.Stream, error) {
	device, err := InputDevice(p.DeviceID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve input device")
	}
	if device.MaxInputChannels < p.Channels {
		return nil, errors.Errorf("device %q has %d input channel(s), %d requested",
			device.Name, device.MaxInputChannels, p.Channels)
	}

	latency := device.DefaultHighInputLatency
	if p.LowLatency {
		latency = device.DefaultLowInputLatency
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: p.Channels,
			Device:   device,
			Latency:  latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0,
			Device:   nil,
		},
		FramesPerBuffer: p.FramesPerBuffer,
		SampleRate:      p.SampleRate,
	}

	stream, err := paOpenStream(params, pa.callback(ingest))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open input stream on %q", device.Name)
	}

	logger.Infof("opened %q: %d channel(s), %.0f Hz, %d frames per buffer, latency %s",
		device.Name, p.Channels, p.SampleRate, p.FramesPerBuffer, latency)
	return stream, nil
}

// callback builds the real-time input handler.
// Performance Critical:
// - Uses no allocations of its own
// - The block is only valid for the duration of the call
func (pa *PortAudio) callback(ingest func([]float32)) func(in []float32) {
	rec := pa.Recorder
	if rec == nil {
		return ingest
	}
	return func(in []float32) {
		ingest(in)
		rec.Write(in)
	}
}
