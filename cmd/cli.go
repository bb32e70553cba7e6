// SPDX-License-Identifier: MIT
package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"tuner/internal/config"
	"tuner/pkg/build"
)

// Commands selected by ParseArgs.
const (
	CommandRun     = "run"
	CommandList    = "list"
	CommandAnalyze = "analyze"
)

// Options is the parsed command line: the loaded configuration with flag
// overrides applied, and what to do with it.
type Options struct {
	Config  *config.Config
	Command string

	ConfigPath   string
	AnalyzePath  string
	AnalyzeStep  float64 // Seconds between analysis queries.
	NoTUI        bool
	SelectDevice bool
	Output       string // Recording file, overrides the generated name.
	LogFile      string
	Verbose      bool
}

// flagValues holds raw flag values until the config file is loaded.
type flagValues struct {
	device          int
	channels        int
	sampleRate      float64
	framesPerBuffer int
	lowLatency      bool
	windowSeconds   float64
	minAmplitude    float64
	maxFrequency    float64
	tuningStandard  float64
	record          bool
	websocket       string
	udp             string
}

// ParseArgs parses args (without the program name). A nil Options with a
// nil error means cobra already handled the request, e.g. --help.
func ParseArgs(args []string, out io.Writer) (*Options, error) {
	info := build.Get()
	opts := &Options{AnalyzeStep: 0.1}
	var fv flagValues

	rootCmd := &cobra.Command{
		Use:           info.Name,
		Short:         "Real-time instrument tuner",
		Long:          "Detects the pitch of an audio input and shows the nearest note and its deviation in cents.",
		Version:       info.String(),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Command = CommandRun
			return nil
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Command = CommandList
			return nil
		},
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze <file.wav>",
		Short: "Replay a WAV file through the tuner and print each reading",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Command = CommandAnalyze
			opts.AnalyzePath = args[0]
			return nil
		},
	}
	analyzeCmd.Flags().Float64Var(&opts.AnalyzeStep, "step", opts.AnalyzeStep,
		"Seconds of audio between readings")

	rootCmd.AddCommand(listCmd, analyzeCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.ConfigPath, "config", "",
		"Path to a YAML config file (default: tuner.yaml or config.yaml if present)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "Show debug output")
	pf.StringVar(&opts.LogFile, "log-file", "", "Write log output to this file")

	// Audio device configuration
	pf.IntVarP(&fv.device, "device", "d", config.DefaultDeviceID,
		"Input device ID. Use the 'list' command to see available devices.")
	pf.IntVarP(&fv.channels, "channels", "c", config.DefaultChannels,
		"Number of input channels; pitch is read from the first")
	pf.Float64VarP(&fv.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	pf.IntVarP(&fv.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	pf.BoolVarP(&fv.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use the device's low latency setting")

	// Detection
	pf.Float64Var(&fv.windowSeconds, "window", config.DefaultWindowSeconds, "Seconds of audio analysed per reading")
	pf.Float64Var(&fv.minAmplitude, "min-amplitude", config.DefaultMinAmplitude,
		"Peak amplitude (0-1) below which input is treated as silence")
	pf.Float64Var(&fv.maxFrequency, "max-frequency", config.DefaultMaxFrequency, "Low-pass cutoff in Hz")
	pf.Float64Var(&fv.tuningStandard, "a4", config.DefaultTuningStandard, "Reference frequency of A4 in Hz")

	// Live tuner only
	rootCmd.Flags().BoolVar(&opts.NoTUI, "no-tui", false, "Log readings instead of showing the terminal display")
	rootCmd.Flags().BoolVar(&opts.SelectDevice, "select", false, "Pick the input device interactively")
	rootCmd.Flags().BoolVarP(&fv.record, "record", "r", false, "Record the input to a WAV file")
	rootCmd.Flags().StringVarP(&opts.Output, "output", "o", "",
		"Recording file name. Default is tuner-YYYYMMDD-HHMMSS.wav in the recording directory")
	rootCmd.Flags().StringVar(&fv.websocket, "websocket", "", "Serve readings over WebSocket at this address, e.g. :8080")
	rootCmd.Flags().StringVar(&fv.udp, "udp", "", "Send reading packets to this UDP address, e.g. 127.0.0.1:9090")

	rootCmd.SetArgs(args)
	executed, err := rootCmd.ExecuteC()
	if err != nil {
		return nil, err
	}
	if opts.Command == "" {
		// Help or version output.
		return nil, nil
	}

	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	applyFlags(executed, cfg, &fv, opts)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts.Config = cfg
	return opts, nil
}

// applyFlags copies flags the user set over the file configuration.
func applyFlags(c *cobra.Command, cfg *config.Config, fv *flagValues, opts *Options) {
	set := c.Flags().Changed

	if set("device") {
		cfg.Audio.InputDevice = fv.device
	}
	if set("channels") {
		cfg.Audio.InputChannels = fv.channels
	}
	if set("sample-rate") {
		cfg.Audio.SampleRate = fv.sampleRate
	}
	if set("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = fv.framesPerBuffer
	}
	if set("low-latency") {
		cfg.Audio.LowLatency = fv.lowLatency
	}
	if set("window") {
		cfg.Engine.WindowSeconds = fv.windowSeconds
	}
	if set("min-amplitude") {
		cfg.Engine.MinAmplitude = fv.minAmplitude
		cfg.Engine.MinVolumeDB = nil
	}
	if set("max-frequency") {
		cfg.Engine.MaxFrequency = fv.maxFrequency
	}
	if set("a4") {
		cfg.Monitor.TuningStandard = fv.tuningStandard
	}
	if set("record") {
		cfg.Recording.Enabled = fv.record
	}
	if opts.Output != "" {
		cfg.Recording.Enabled = true
	}
	if set("websocket") {
		cfg.Transport.WebSocketEnabled = fv.websocket != ""
		cfg.Transport.WebSocketAddress = fv.websocket
	}
	if set("udp") {
		cfg.Transport.UDPEnabled = fv.udp != ""
		cfg.Transport.UDPTargetAddress = fv.udp
	}
	if opts.Verbose {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
}
