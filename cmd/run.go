// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"tuner/internal/audio"
	"tuner/internal/config"
	applog "tuner/internal/log"
	"tuner/internal/monitor"
	"tuner/internal/transport"
	"tuner/internal/transport/udp"
	"tuner/internal/tui"
	"tuner/internal/tuner"
)

var logger = applog.Named("Main")

// EngineOptions maps the configuration onto engine options.
func EngineOptions(cfg *config.Config) []tuner.Option {
	return []tuner.Option{
		tuner.WithFramesPerBuffer(cfg.Audio.FramesPerBuffer),
		tuner.WithLowLatency(cfg.Audio.LowLatency),
		tuner.WithParameters(tuner.Parameters{
			WindowSeconds: cfg.Engine.WindowSeconds,
			MinAmplitude:  cfg.GateAmplitude(),
			MaxFrequency:  cfg.Engine.MaxFrequency,
		}),
	}
}

// MonitorConfig maps the configuration onto the monitor's.
func MonitorConfig(cfg *config.Config) monitor.Config {
	return monitor.Config{
		RateHz:           cfg.Monitor.RateHz,
		ReadingsCapacity: cfg.Monitor.ReadingsCapacity,
		ReadingsTimeout:  cfg.Monitor.ReadingsTimeout,
		DisplayTimeout:   cfg.Monitor.DisplayTimeout,
		TuningStandard:   cfg.Monitor.TuningStandard,
	}
}

// Transports opens the network transports enabled in cfg.
func Transports(cfg *config.Config) (transport.Multi, error) {
	var outs transport.Multi
	if cfg.Transport.WebSocketEnabled {
		ws, err := transport.NewWebSocketTransport(cfg.Transport.WebSocketAddress)
		if err != nil {
			return nil, err
		}
		outs = append(outs, ws)
	}
	if cfg.Transport.UDPEnabled {
		pub, err := udp.Dial(cfg.Transport.UDPTargetAddress)
		if err != nil {
			_ = outs.Close()
			return nil, err
		}
		outs = append(outs, pub)
	}
	return outs, nil
}

// List prints the input devices. PortAudio must be initialised.
func List(w io.Writer) error {
	return audio.FprintDevices(w)
}

// Run starts the live tuner and blocks until the user quits or the process
// is signalled. PortAudio must be initialised.
//
// The program flow is divided into three phases:
//
//  1. Startup: resolve the device, open transports, start recording, then
//     the engine and the monitor.
//  2. Running: the capture callback feeds the engine while the monitor
//     polls it and publishes readings.
//  3. Shutdown: stop in reverse order and flush the recording.
func Run(opts *Options) error {
	cfg := opts.Config

	// ==================== STARTUP PHASE ====================

	if opts.SelectDevice {
		sel, err := tui.SelectDevice(audio.InputDevices)
		if err != nil {
			return err
		}
		if sel == nil {
			return nil
		}
		cfg.Audio.InputDevice = sel.DeviceID
		cfg.Audio.SampleRate = sel.SampleRate
	}

	header := "default input"
	if dev, err := audio.InputDevice(cfg.Audio.InputDevice); err == nil {
		header = dev.Name
	}
	header = fmt.Sprintf("%s, %.0f Hz, A4 = %g Hz", header, cfg.Audio.SampleRate, cfg.Monitor.TuningStandard)

	outs, err := Transports(cfg)
	if err != nil {
		return err
	}
	var feed *transport.Feed
	if opts.NoTUI {
		outs = append(outs, transport.NewLoggingTransport())
	} else {
		feed = transport.NewFeed(16)
		outs = append(outs, feed)
	}
	defer outs.Close()

	var rec *audio.Recorder
	if cfg.Recording.Enabled {
		rec = audio.NewRecorder(cfg.Recording.BitDepth)
		path := opts.Output
		if path == "" {
			path = cfg.RecordingPath(time.Now())
		}
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create recording directory: %w", err)
			}
		}
		if err := rec.Start(path, int(cfg.Audio.SampleRate), cfg.Audio.InputChannels, cfg.Audio.FramesPerBuffer); err != nil {
			return err
		}
		defer func() {
			if err := rec.Stop(); err != nil {
				logger.Errorf("stopping recording: %v", err)
				return
			}
			logger.Infof("recording saved to %s", path)
		}()
	}

	engine := tuner.New(&audio.PortAudio{Recorder: rec}, EngineOptions(cfg)...)
	if err := engine.Start(cfg.Audio.InputDevice, cfg.Audio.InputChannels, cfg.Audio.SampleRate); err != nil {
		return err
	}
	defer func() {
		if err := engine.Stop(); err != nil {
			logger.Errorf("stopping engine: %v", err)
		}
	}()

	mon, err := monitor.New(engine, outs, MonitorConfig(cfg))
	if err != nil {
		return err
	}
	mon.Start()
	defer mon.Stop()

	// ==================== RUNNING PHASE ====================
	// Shutdown runs in the deferred calls above, in reverse order.

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if feed == nil {
		logger.Infof("listening on %s, press Ctrl+C to stop", header)
		<-ctx.Done()
		return nil
	}

	uiErr := make(chan error, 1)
	go func() { uiErr <- tui.RunTuner(feed, header) }()
	select {
	case err := <-uiErr:
		return err
	case <-ctx.Done():
		// Closing the feed ends the display.
		_ = feed.Close()
		if err := <-uiErr; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}
