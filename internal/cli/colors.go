package cli

import "github.com/charmbracelet/lipgloss"

// Fire colour palette 🔥
// Shared fire theme colours for consistent branding across CLI and TUI
var (
	// Core fire colours (dark to bright)
	FireYellow  = lipgloss.Color("#FFD700") // Bright yellow
	FireOrange  = lipgloss.Color("#FF8C00") // Deep orange
	FireRed     = lipgloss.Color("#FF4500") // Orange-red
	FireCrimson = lipgloss.Color("#DC143C") // Deep crimson

	EmberGlow   = lipgloss.Color("#8B0000") // Dark ember red

	// Accent colours
	WarmGray = lipgloss.Color("#B8860B") // Dark goldenrod for subtle text
)

// Branding shared by the banner, help and TUI
const (
	AppTitle       = "Emberwave 🔥"
	AppDescription = "Turn .wav, .flac and .mp3 audio into a 128 kbps MP3 while watching its waveform glow."
)
