// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"tuner/internal/transport"
)

// MeterWidth is the number of cells in the cents meter, centre included.
const MeterWidth = 41

var quitKey = key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"))

type readingMsg transport.Reading

type feedClosedMsg struct{}

// TunerModel shows the latest reading from a feed.
type TunerModel struct {
	readings <-chan transport.Reading
	header   string

	last    transport.Reading
	showing bool
	closed  bool
}

// NewTunerModel displays readings until the channel closes. header is
// shown above the display, e.g. the device name.
func NewTunerModel(readings <-chan transport.Reading, header string) TunerModel {
	return TunerModel{readings: readings, header: header}
}

func (m TunerModel) Init() tea.Cmd {
	return waitForReading(m.readings)
}

func waitForReading(ch <-chan transport.Reading) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return feedClosedMsg{}
		}
		return readingMsg(r)
	}
}

func (m TunerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case readingMsg:
		r := transport.Reading(msg)
		if r.Reset {
			m.showing = false
		} else {
			m.last = r
			m.showing = true
		}
		return m, waitForReading(m.readings)

	case feedClosedMsg:
		m.closed = true
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, quitKey) {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m TunerModel) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Tuner"))
	if m.header != "" {
		sb.WriteString("  " + infoStyle.Render(m.header))
	}
	sb.WriteString("\n\n")

	if !m.showing {
		sb.WriteString(mutedStyle.Render("   listening..."))
		sb.WriteString("\n\n")
		sb.WriteString(mutedStyle.Render(CentsMeter(0, MeterWidth, false)))
		sb.WriteString("\n\n\n")
	} else {
		n := m.last.Note
		style := flatStyle
		if n.Tuned {
			style = highlightStyle
		}
		label := fmt.Sprintf("%s%d", n.Name, n.Octave)
		fmt.Fprintf(&sb, "   %s  %s\n\n", style.Render(label), style.Render(fmt.Sprintf("%+5.1f cents", n.Cents)))
		sb.WriteString(style.Render(CentsMeter(n.Cents, MeterWidth, true)))
		sb.WriteString("\n\n")
		fmt.Fprintf(&sb, "   %s\n", infoStyle.Render(fmt.Sprintf("%8.2f Hz  (latest %.2f Hz)", m.last.Average, m.last.Frequency)))
	}

	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render("q: Quit"))
	return sb.String()
}

// CentsMeter draws a horizontal meter spanning -50 to +50 cents with a
// marker at cents. Values beyond the range pin to the ends. Without a
// marker only the scale is drawn.
func CentsMeter(cents float64, width int, marker bool) string {
	if width < 3 {
		width = 3
	}
	if width%2 == 0 {
		width++
	}
	half := width / 2

	cells := make([]rune, width)
	for i := range cells {
		cells[i] = '─'
	}
	cells[0], cells[half], cells[width-1] = '├', '┼', '┤'

	if marker && !math.IsNaN(cents) {
		c := math.Max(-50, math.Min(50, cents))
		pos := half + int(math.Round(c/50*float64(half)))
		cells[pos] = '█'
	}
	return "   " + string(cells)
}

// RunTuner shows readings from feed until it is closed or the user quits.
func RunTuner(feed *transport.Feed, header string) error {
	p := tea.NewProgram(NewTunerModel(feed.Readings(), header), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
