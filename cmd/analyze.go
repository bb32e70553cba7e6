// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"tuner/internal/analysis"
	"tuner/internal/audio"
	"tuner/internal/config"
	"tuner/internal/monitor"
	"tuner/internal/transport"
	"tuner/internal/tuner"
	"tuner/pkg/utils"
)

// AnalysisStep is one reading taken while replaying a clip.
type AnalysisStep struct {
	Offset   time.Duration // Position in the clip.
	Reading  transport.Reading
	Detected bool
	// Spectrum is the strongest FFT bin of the analysed window, for
	// comparison with the autocorrelation result.
	Spectrum float64
}

// AnalyzeClip replays clip through an engine in capture-sized blocks and
// queries it every step of audio.
func AnalyzeClip(clip *audio.Clip, cfg *config.Config, step time.Duration) ([]AnalysisStep, error) {
	if clip.Channels < 1 || clip.SampleRate <= 0 {
		return nil, fmt.Errorf("clip has an invalid format: %d channel(s) at %d Hz", clip.Channels, clip.SampleRate)
	}
	if step <= 0 {
		return nil, fmt.Errorf("step must be positive, got %v", step)
	}

	engine := tuner.New(tuner.Manual{}, EngineOptions(cfg)...)
	if err := engine.Start(audio.DefaultDeviceID, clip.Channels, float64(clip.SampleRate)); err != nil {
		return nil, err
	}
	defer engine.Stop()

	mon, err := monitor.New(engine, transport.Multi{}, MonitorConfig(cfg))
	if err != nil {
		return nil, err
	}

	// The largest FFT the buffered window fills completely.
	windowFrames := int(cfg.Engine.WindowSeconds * float64(clip.SampleRate))
	size := analysis.SizeFor(windowFrames)
	if size > windowFrames && size > 2 {
		size /= 2
	}
	spectrum, err := analysis.NewSpectrumProcessor(size, float64(clip.SampleRate), analysis.Hann)
	if err != nil {
		return nil, err
	}

	stepFrames := max(int(step.Seconds()*float64(clip.SampleRate)), 1)
	blocks := utils.Blocks(clip.Samples, clip.Channels, cfg.Audio.FramesPerBuffer)

	var (
		steps     []AnalysisStep
		fed       int // Frames ingested so far.
		nextQuery = stepFrames
		start     = time.Unix(0, 0)
	)
	for _, block := range blocks {
		engine.Ingest(block)
		fed += len(block) / clip.Channels
		if fed < nextQuery {
			continue
		}
		nextQuery += stepFrames

		offset := time.Duration(float64(fed) / float64(clip.SampleRate) * float64(time.Second))
		r, ok := mon.Step(start.Add(offset))
		s := AnalysisStep{Offset: offset, Reading: r, Detected: ok && !r.Reset}
		if s.Detected {
			spectrum.Process(firstChannel(engine.Samples(false), clip.Channels))
			s.Spectrum, _ = spectrum.DominantFrequency(20, cfg.Engine.MaxFrequency)
		}
		steps = append(steps, s)
	}
	return steps, nil
}

// firstChannel extracts channel 0 of interleaved samples in place.
func firstChannel(samples []float32, channels int) []float32 {
	if channels <= 1 {
		return samples
	}
	n := len(samples) / channels
	for i := range n {
		samples[i] = samples[i*channels]
	}
	return samples[:n]
}

// Analyze reads the WAV file at path and prints a reading per step.
func Analyze(w io.Writer, path string, cfg *config.Config, step time.Duration) error {
	clip, err := audio.ReadClip(path)
	if err != nil {
		return err
	}
	logger.Infof("%s: %d channel(s), %d Hz, %d bit, %.2f s", path, clip.Channels, clip.SampleRate,
		clip.BitDepth, float64(clip.Frames())/float64(clip.SampleRate))

	steps, err := AnalyzeClip(clip, cfg, step)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "time\tfrequency\taverage\tnote\tspectrum\t")
	for _, s := range steps {
		if !s.Detected {
			fmt.Fprintf(tw, "%.2fs\t-\t-\t-\t-\t\n", s.Offset.Seconds())
			continue
		}
		fmt.Fprintf(tw, "%.2fs\t%.2f Hz\t%.2f Hz\t%s\t%.1f Hz\t\n",
			s.Offset.Seconds(), s.Reading.Frequency, s.Reading.Average, s.Reading.Note, s.Spectrum)
	}
	return tw.Flush()
}
