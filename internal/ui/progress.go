package ui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/emberwave/internal/audio"
	"github.com/linuxmatters/emberwave/internal/cli"
	"github.com/linuxmatters/emberwave/internal/transcode"
	"github.com/linuxmatters/emberwave/internal/waveform"
)

// ProfileMsg carries the decoded input's analysis, sent before encoding starts
type ProfileMsg struct {
	Input    string
	Profile  *audio.AudioProfile
	Envelope []waveform.Pair
}

// ProgressMsg wraps a transcode progress event
type ProgressMsg transcode.Event

// CompleteMsg signals the output has been written
type CompleteMsg struct {
	Output       string
	OriginalSize int64
	Size         int64
	Result       *transcode.Result
}

// FailedMsg signals the run ended with an error
type FailedMsg struct {
	Err error
}

// quitMsg is sent when it's time to quit after showing completion
type quitMsg struct{}

// Model is the bubbletea model for a single conversion
type Model struct {
	progressBar progress.Model

	input    string
	profile  *audio.AudioProfile
	envelope []waveform.Pair
	event    transcode.Event
	complete *CompleteMsg
	err      error

	startTime       time.Time
	width           int
	completionDelay time.Duration
	cancel          context.CancelFunc
}

// NewModel creates the progress UI. cancel is invoked when the user quits
// before the conversion has finished; it may be nil.
func NewModel(cancel context.CancelFunc) *Model {
	// Fire gradient: deep red → orange → yellow
	p := progress.New(
		progress.WithGradient(string(cli.FireCrimson), string(cli.FireYellow)),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &Model{
		progressBar:     p,
		startTime:       time.Now(),
		completionDelay: 2 * time.Second,
		cancel:          cancel,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(10, min(msg.Width-30, 50))
		return m, nil

	case ProfileMsg:
		m.input = msg.Input
		m.profile = msg.Profile
		m.envelope = msg.Envelope
		return m, nil

	case ProgressMsg:
		m.event = transcode.Event(msg)
		return m, nil

	case CompleteMsg:
		m.complete = &msg
		return m, tea.Tick(m.completionDelay, func(time.Time) tea.Msg {
			return quitMsg{}
		})

	case FailedMsg:
		m.err = msg.Err
		return m, tea.Quit

	case quitMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		if m.complete != nil {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the UI
func (m *Model) View() string {
	if m.complete != nil {
		return m.renderComplete()
	}
	return m.renderProgress()
}

// Err returns the failure reported by FailedMsg, if any
func (m *Model) Err() error {
	return m.err
}

// Completed reports whether a CompleteMsg was received
func (m *Model) Completed() bool {
	return m.complete != nil
}

func (m *Model) renderProgress() string {
	var s strings.Builder

	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(cli.FireYellow).Render(cli.AppTitle))
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Foreground(cli.FireOrange).Render(phaseLabel(m.event)))
	s.WriteString("\n\n")

	fraction := m.event.Percent / 100
	s.WriteString("Progress: ")
	s.WriteString(m.progressBar.ViewAs(fraction))
	s.WriteString(fmt.Sprintf("  %d%%", int(m.event.Percent)))
	s.WriteString("\n\n")

	elapsed := time.Since(m.startTime)
	timing := fmt.Sprintf("Time: %s", formatDuration(elapsed))
	if m.event.TotalFrames > 0 {
		timing += fmt.Sprintf("  │  Frame %d of %d", m.event.Frame, m.event.TotalFrames)
	}
	s.WriteString(lipgloss.NewStyle().Faint(true).Render(timing))
	s.WriteString("\n\n")

	m.renderAudioProfile(&s)

	if len(m.envelope) > 0 {
		s.WriteString("\n\n")
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Waveform:"))
		s.WriteString("\n")
		s.WriteString(renderEnvelope(m.envelope, m.displayWidth(), fraction))
	}

	if m.profile != nil && len(m.profile.Spectrum) > 0 {
		s.WriteString("\n\n")
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Spectrum:"))
		s.WriteString("\n")
		s.WriteString(renderSpectrum(m.profile.Spectrum, min(m.displayWidth(), len(m.profile.Spectrum))))
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(cli.FireRed).
		Padding(1, 2).
		Render(s.String())
}

func phaseLabel(ev transcode.Event) string {
	switch ev.Phase {
	case transcode.PhaseEncoding:
		return "Encoding MP3"
	case transcode.PhaseFinalizing:
		return "Finalising"
	case transcode.PhaseComplete:
		return "Complete"
	default:
		return "Preparing"
	}
}

func (m *Model) displayWidth() int {
	if m.width > 10 {
		return min(m.width-10, 100)
	}
	return 72
}

func (m *Model) renderAudioProfile(s *strings.Builder) {
	labelStyle := lipgloss.NewStyle().Faint(true)
	headerStyle := lipgloss.NewStyle().Faint(true).Bold(true)

	s.WriteString(headerStyle.Render("Audio"))
	s.WriteString(" │ ")

	if m.profile == nil {
		s.WriteString(lipgloss.NewStyle().Faint(true).Italic(true).Render("Decoding..."))
		return
	}

	channels := "mono"
	if m.profile.Channels > 1 {
		channels = fmt.Sprintf("%d ch", m.profile.Channels)
	}
	s.WriteString(fmt.Sprintf("%.1fs  %s  %d Hz  ", m.profile.Duration.Seconds(), channels, m.profile.SampleRate))
	s.WriteString(labelStyle.Render("Peak:"))
	s.WriteString(" " + formatDB(m.profile.PeakDB()) + "  ")
	s.WriteString(labelStyle.Render("RMS:"))
	s.WriteString(" " + formatDB(m.profile.RMSDB()) + "  ")
	s.WriteString(labelStyle.Render("Range:"))
	s.WriteString(fmt.Sprintf(" %.1f dB", m.profile.DynamicRange))
}

func (m *Model) renderComplete() string {
	var s strings.Builder

	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(cli.FireYellow).Render("✓ Conversion Complete!"))
	s.WriteString("\n\n")

	dimLabel := lipgloss.NewStyle().Faint(true)
	c := m.complete
	s.WriteString(fmt.Sprintf("%s%s\n", dimLabel.Render("Output:    "), c.Output))
	s.WriteString(fmt.Sprintf("%s%s\n", dimLabel.Render("Original:  "), cli.FormatBytes(c.OriginalSize)))
	s.WriteString(fmt.Sprintf("%s%s (%s)\n", dimLabel.Render("Converted: "), cli.FormatBytes(c.Size), cli.SizeChange(c.OriginalSize, c.Size)))
	if c.Result != nil {
		s.WriteString(fmt.Sprintf("%s%d frames, %d chunks in %s\n",
			dimLabel.Render("Encoder:   "), c.Result.Frames, c.Result.Chunks, formatDuration(c.Result.Duration)))
	}

	if len(m.envelope) > 0 {
		s.WriteString("\n")
		s.WriteString(renderEnvelope(m.envelope, m.displayWidth(), 1))
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(cli.FireOrange).
		Padding(1, 2).
		Render(s.String()) + "\n"
}

// Helper functions

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatDB(db float64) string {
	if math.IsInf(db, -1) {
		return "-∞ dB"
	}
	return fmt.Sprintf("%.1f dB", db)
}

var blocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Fire gradient colours from low to high intensity
var fireColors = []lipgloss.Color{
	lipgloss.Color("#8B0000"), // Dark red (ember)
	lipgloss.Color("#B22222"), // Firebrick
	lipgloss.Color("#DC143C"), // Crimson
	lipgloss.Color("#FF4500"), // Orange-red
	lipgloss.Color("#FF6347"), // Tomato
	lipgloss.Color("#FF8C00"), // Dark orange
	lipgloss.Color("#FFA500"), // Orange
	lipgloss.Color("#FFD700"), // Gold/Yellow
}

// envelopeLevels reduces pairs to width normalised bar heights
func envelopeLevels(pairs []waveform.Pair, width int) []float64 {
	if len(pairs) == 0 || width <= 0 {
		return nil
	}
	width = min(width, len(pairs))
	peak := float64(waveform.Peak(pairs))
	if peak == 0 {
		peak = 1
	}

	levels := make([]float64, width)
	for i := range levels {
		p := pairs[i*len(pairs)/width]
		levels[i] = math.Min(1, float64(p.Span())/(2*peak))
	}
	return levels
}

// renderEnvelope draws the waveform as a row of blocks. Columns left of the
// played fraction are drawn in fire colours, the rest in grey.
func renderEnvelope(pairs []waveform.Pair, width int, played float64) string {
	levels := envelopeLevels(pairs, width)
	cursor := int(played * float64(len(levels)))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A3A"))

	var result strings.Builder
	for i, level := range levels {
		block := string(blocks[int(level*float64(len(blocks)-1))])
		if i < cursor {
			colorIdx := int(level * float64(len(fireColors)-1))
			result.WriteString(lipgloss.NewStyle().Foreground(fireColors[colorIdx]).Render(block))
		} else {
			result.WriteString(dim.Render(block))
		}
	}
	return result.String()
}

// renderSpectrum creates a fire-coloured ASCII visualisation of bar heights
// in two rows.
func renderSpectrum(barHeights []float64, width int) string {
	if len(barHeights) == 0 || width == 0 {
		return ""
	}

	// Sample bars to fit width
	stride := max(1, len(barHeights)/width)

	maxHeight := 0.0
	for _, h := range barHeights {
		maxHeight = max(maxHeight, h)
	}
	if maxHeight == 0 {
		maxHeight = 1.0
	}

	displayHeights := make([]float64, 0, width)
	for i := 0; i < len(barHeights) && len(displayHeights) < width; i += stride {
		displayHeights = append(displayHeights, barHeights[i]/maxHeight)
	}

	var result strings.Builder

	// Top row shows the portion above 0.5
	for _, normalised := range displayHeights {
		if normalised > 0.5 {
			topPortion := (normalised - 0.5) * 2.0
			blockIdx := min(int(topPortion*float64(len(blocks)-1)), len(blocks)-1)
			colorIdx := min(int(normalised*float64(len(fireColors)-1)), len(fireColors)-1)
			result.WriteString(lipgloss.NewStyle().Foreground(fireColors[colorIdx]).Render(string(blocks[blockIdx])))
		} else {
			result.WriteString(" ")
		}
	}

	result.WriteString("\n")

	for _, normalised := range displayHeights {
		blockIdx := len(blocks) - 1
		if normalised < 0.5 {
			blockIdx = min(int(normalised*2.0*float64(len(blocks)-1)), len(blocks)-1)
		}
		colorIdx := max(0, min(int(normalised*float64(len(fireColors)-1)), len(fireColors)-1))
		result.WriteString(lipgloss.NewStyle().Foreground(fireColors[colorIdx]).Render(string(blocks[blockIdx])))
	}

	return result.String()
}
