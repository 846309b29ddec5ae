package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sixtrece/beats-server/internal/playback"
)

const (
	playSymbol  = "▶"
	pauseSymbol = "⏸"
	helpLine    = "space play/pause · n/p next/prev · ←/→ seek · +/- volume · m mute · l loop · f full screen · h hide · q quit"
)

var (
	barStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	titleStyle   = lipgloss.NewStyle().Bold(true)
	artistStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func render(s playback.Snapshot, lastErr string, width int) string {
	track, ok := s.Current()
	if !ok {
		return dimStyle.Render("Nothing to play. Press q to quit.") + "\n"
	}
	if !s.IsPlayerVisible {
		return dimStyle.Render("Player hidden. Press f to show it, q to quit.") + "\n"
	}

	innerWidth := max(width-4, 20)

	var b strings.Builder
	if s.IsFullScreen {
		b.WriteString(renderFullScreen(s, track, innerWidth))
	} else {
		b.WriteString(barStyle.Width(innerWidth).Render(renderCompact(s, track, innerWidth)))
	}
	b.WriteString("\n")
	if lastErr != "" {
		b.WriteString(errorStyle.Render(lastErr) + "\n")
	}
	b.WriteString(dimStyle.Render(helpLine) + "\n")
	return b.String()
}

func renderCompact(s playback.Snapshot, track playback.Track, width int) string {
	head := fmt.Sprintf("%s %s %s",
		statusSymbol(s),
		titleStyle.Render(track.Title),
		artistStyle.Render(track.Artist))
	return head + "\n" + renderTransportLine(s, width)
}

func renderFullScreen(s playback.Snapshot, track playback.Track, width int) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(track.Title) + "\n")
	b.WriteString(artistStyle.Render(track.Artist) + "\n")
	if track.CoverRef != "" {
		b.WriteString(dimStyle.Render(track.CoverRef) + "\n")
	}
	b.WriteString("\n")

	for i, t := range s.Playlist {
		line := fmt.Sprintf("%2d. %s - %s", i+1, t.Title, t.Artist)
		switch {
		case i == s.CurrentIndex:
			line = currentStyle.Render(statusSymbol(s) + " " + line)
		case i == s.PreloadedIndex:
			line = "  " + line + dimStyle.Render("  (ready)")
		default:
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
	b.WriteString(renderTransportLine(s, width))

	return barStyle.Width(width).Render(b.String())
}

func renderTransportLine(s playback.Snapshot, width int) string {
	clock := fmt.Sprintf("%s / %s", playback.FormatClock(s.CurrentTime), playback.FormatClock(s.Duration))

	var flags []string
	if s.IsLoading {
		flags = append(flags, "loading")
	}
	if s.IsLooping {
		flags = append(flags, "loop")
	}
	if s.Volume == 0 {
		flags = append(flags, "muted")
	} else {
		flags = append(flags, fmt.Sprintf("vol %d%%", int(s.Volume*100+0.5)))
	}
	tail := strings.Join(flags, " · ")

	barWidth := max(width-len(clock)-len(tail)-4, 10)
	return clock + " " + progressBar(s.CurrentTime, s.Duration, barWidth) + " " + dimStyle.Render(tail)
}

func progressBar(pos, total time.Duration, width int) string {
	filled := 0
	if total > 0 {
		filled = int(float64(width) * float64(min(pos, total)) / float64(total))
	}
	return strings.Repeat("━", filled) + dimStyle.Render(strings.Repeat("─", width-filled))
}

func statusSymbol(s playback.Snapshot) string {
	if s.IsPlaying {
		return playSymbol
	}
	return pauseSymbol
}
