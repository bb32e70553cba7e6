// SPDX-License-Identifier: MIT
package main

import (
	"io"
	"os"
	"runtime"
	"time"

	"tuner/cmd"
	"tuner/internal/audio"
	applog "tuner/internal/log"
	"tuner/pkg/build"
)

// main is the entry point for the tuner. Startup (build info, arguments,
// configuration, logging) happens here; the commands themselves live in
// cmd.
func main() {
	if err := build.Initialize(); err != nil {
		applog.Debugf("development build: %v", err)
	}

	opts, err := cmd.ParseArgs(os.Args[1:], os.Stdout)
	if err != nil {
		applog.Fatalf("%v", err)
	}
	if opts == nil {
		return
	}

	closeLog := setupLogging(opts)
	defer closeLog()

	if err := execute(opts); err != nil {
		applog.Errorf("%v", err)
		closeLog()
		os.Exit(1)
	}
}

func execute(opts *cmd.Options) error {
	if opts.Command == cmd.CommandAnalyze {
		return cmd.Analyze(os.Stdout, opts.AnalyzePath, opts.Config, time.Duration(opts.AnalyzeStep*float64(time.Second)))
	}

	// One thread for the capture callback, one for the monitor and UI.
	runtime.GOMAXPROCS(max(2, runtime.GOMAXPROCS(0)/2))

	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	if opts.Command == cmd.CommandList {
		return cmd.List(os.Stdout)
	}
	return cmd.Run(opts)
}

// setupLogging applies the configured level and output. The terminal
// display owns the screen, so without a log file its logs are discarded.
func setupLogging(opts *cmd.Options) func() {
	if level, ok := applog.ParseLevel(opts.Config.LogLevel); ok {
		applog.SetLevel(level)
	}
	if opts.Config.Debug {
		applog.SetLevel(applog.LevelDebug)
	}

	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			applog.Fatalf("failed to open log file: %v", err)
		}
		applog.SetOutput(f)
		return func() { _ = f.Close() }
	}

	liveTUI := opts.Command == cmd.CommandRun && !opts.NoTUI
	if liveTUI {
		applog.SetOutput(io.Discard)
	}
	return func() {}
}
