package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ConfidenceLevel buckets a 0-100 score
type ConfidenceLevel int

const (
	ConfidenceLow ConfidenceLevel = iota
	ConfidenceMedium
	ConfidenceHigh
)

// Thresholds for the confidence colours
const (
	HighConfidence   = 80
	MediumConfidence = 60
)

// DefaultMeterWidth is the bar length in cells
const DefaultMeterWidth = 20

func (l ConfidenceLevel) String() string {
	switch l {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	default:
		return "low"
	}
}

// LevelFor returns the level of a score.
func LevelFor(score int) ConfidenceLevel {
	switch {
	case score >= HighConfidence:
		return ConfidenceHigh
	case score >= MediumConfidence:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Color returns the theme color for a level.
func (t TUITheme) Color(level ConfidenceLevel) lipgloss.Color {
	switch level {
	case ConfidenceHigh:
		return t.Success
	case ConfidenceMedium:
		return t.Warning
	default:
		return t.Error
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ConfidenceBar returns the unstyled bar, e.g. "████████░░" for 80 at width 10.
func ConfidenceBar(score, width int) string {
	if width <= 0 {
		width = DefaultMeterWidth
	}
	filled := clampScore(score) * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// ConfidenceMeter renders "Confidence ████████░░ 82%" with the bar coloured by level.
func ConfidenceMeter(score, width int, theme TUITheme) string {
	score = clampScore(score)
	color := theme.Color(LevelFor(score))

	label := lipgloss.NewStyle().Foreground(theme.TextDim).Render("Confidence")
	bar := lipgloss.NewStyle().Foreground(color).Render(ConfidenceBar(score, width))
	pct := lipgloss.NewStyle().Foreground(color).Bold(true).Render(fmt.Sprintf("%d%%", score))

	return label + " " + bar + " " + pct
}

// ConfidencePlain is the meter without styling, for pipes and --raw output.
func ConfidencePlain(score int) string {
	score = clampScore(score)
	return fmt.Sprintf("Confidence: %d%% (%s)", score, LevelFor(score))
}
