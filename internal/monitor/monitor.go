// SPDX-License-Identifier: MIT
/*
Package monitor polls a pitch source at a fixed rate and publishes smoothed
readings.

Each tick:
  - a non-zero frequency joins a FIFO of the latest readings, and the FIFO
    mean is published as the displayed note
  - after ReadingsTimeout of silence the FIFO is cleared so the next note
    does not average with the last one
  - after DisplayTimeout of silence a single reset reading is published
*/
package monitor

import (
	"fmt"
	"sync"
	"time"

	applog "tuner/internal/log"
	"tuner/internal/note"
	"tuner/internal/transport"
)

var logger = applog.Named("Monitor")

// Source is the engine surface the monitor polls.
type Source interface {
	QueryFrequency() float64
	Running() bool
}

type Config struct {
	RateHz           float64
	ReadingsCapacity int
	ReadingsTimeout  time.Duration
	DisplayTimeout   time.Duration
	TuningStandard   float64
}

func DefaultConfig() Config {
	return Config{
		RateHz:           60,
		ReadingsCapacity: 20,
		ReadingsTimeout:  time.Second,
		DisplayTimeout:   5 * time.Second,
		TuningStandard:   note.A440,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.RateHz <= 0:
		return fmt.Errorf("rate must be positive, got %v", c.RateHz)
	case c.ReadingsCapacity < 1:
		return fmt.Errorf("readings capacity must be at least 1, got %d", c.ReadingsCapacity)
	case c.ReadingsTimeout < 0 || c.DisplayTimeout < 0:
		return fmt.Errorf("timeouts must not be negative")
	case c.TuningStandard <= 0:
		return fmt.Errorf("tuning standard must be positive, got %v", c.TuningStandard)
	}
	return nil
}

func (c Config) interval() time.Duration {
	return time.Duration(float64(time.Second) / c.RateHz)
}

type Monitor struct {
	source Source
	out    transport.Transport
	cfg    Config

	// Polling state, owned by the polling goroutine (or the Step caller).
	readings    *fifo
	lastNonZero time.Time
	displayed   bool

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.
}

// New creates a monitor publishing to out. It does not start polling.
func New(source Source, out transport.Transport, cfg Config) (*Monitor, error) {
	if source == nil {
		return nil, fmt.Errorf("monitor: source cannot be nil")
	}
	if out == nil {
		return nil, fmt.Errorf("monitor: transport cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}
	return &Monitor{
		source:   source,
		out:      out,
		cfg:      cfg,
		readings: newFIFO(cfg.ReadingsCapacity),
	}, nil
}

// Step performs one poll at now and returns the reading to publish, if
// any. It does not send it.
func (m *Monitor) Step(now time.Time) (transport.Reading, bool) {
	freq := m.source.QueryFrequency()

	if freq <= 0 {
		silence := now.Sub(m.lastNonZero)
		if silence >= m.cfg.ReadingsTimeout {
			m.readings.clear()
		}
		if silence >= m.cfg.DisplayTimeout && m.displayed {
			m.displayed = false
			return transport.Reading{Time: now, Reset: true}, true
		}
		return transport.Reading{}, false
	}

	m.readings.add(freq)
	m.lastNonZero = now
	m.displayed = true

	avg := m.readings.mean()
	return transport.Reading{
		Time:      now,
		Frequency: freq,
		Average:   avg,
		Latest:    note.Value(freq, m.cfg.TuningStandard),
		Note:      note.FromFrequency(avg, m.cfg.TuningStandard),
	}, true
}

func (m *Monitor) poll(now time.Time) {
	r, ok := m.Step(now)
	if !ok {
		return
	}
	if err := m.out.Send(r); err != nil {
		logger.Debugf("send error: %v", err)
	}
}

// Start launches the polling goroutine. It exits on Stop or once the
// source stops running. Calling Start while polling is a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.ticker != nil {
		m.mu.Unlock()
		logger.Warnf("Start called but already running")
		return
	}

	m.ticker = time.NewTicker(m.cfg.interval())
	m.doneChan = make(chan struct{})
	m.stopOnce = sync.Once{}
	m.lastNonZero = time.Now()
	m.readings.clear()
	m.displayed = false

	ticker := m.ticker
	doneChan := m.doneChan
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		logger.Infof("polling at %.0f Hz", m.cfg.RateHz)
		for {
			select {
			case now := <-ticker.C:
				if !m.source.Running() {
					logger.Infof("source stopped, polling ends")
					return
				}
				m.poll(now)
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop ends polling and waits for the goroutine to exit. It is safe to
// call more than once.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.ticker == nil {
		m.mu.Unlock()
		return
	}
	m.stopOnce.Do(func() {
		close(m.doneChan)
		m.ticker.Stop()
		m.ticker = nil
	})
	m.mu.Unlock()

	m.wg.Wait()
	logger.Debugf("stopped")
}

// fifo keeps the latest readings and their running sum.
type fifo struct {
	values []float64
	next   int
	count  int
	sum    float64
}

func newFIFO(capacity int) *fifo {
	return &fifo{values: make([]float64, capacity)}
}

func (f *fifo) add(v float64) {
	if f.count == len(f.values) {
		f.sum -= f.values[f.next]
	} else {
		f.count++
	}
	f.values[f.next] = v
	f.sum += v
	f.next = (f.next + 1) % len(f.values)
}

func (f *fifo) mean() float64 {
	if f.count == 0 {
		return 0
	}
	return f.sum / float64(f.count)
}

func (f *fifo) clear() {
	f.next, f.count, f.sum = 0, 0, 0
}

func (f *fifo) len() int { return f.count }
