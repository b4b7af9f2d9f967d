package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/arbor-gateway/internal/application"
	"github.com/bnema/arbor-gateway/internal/chaos"
	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 24

type RenderOptions struct {
	Now time.Time
	// GraceWarnAfter flags grace periods left open longer than this.
	GraceWarnAfter time.Duration
}

func RenderKeys(records []domain.DeviceKeyRecord, opts RenderOptions) (string, error) {
	return run(func(s styles) string { return renderKeys(records, opts, s) })
}

func RenderIngest(report application.IngestReport) (string, error) {
	return run(func(s styles) string { return renderIngest(report, s) })
}

func RenderScore(seed uint32, result chaos.Result) (string, error) {
	return run(func(s styles) string { return renderScore(seed, result, s) })
}

func renderKeys(records []domain.DeviceKeyRecord, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Device Keys"),
		s.header.Render(fmt.Sprintf("devices: %d", len(records))),
	}

	if len(records) == 0 {
		lines = append(lines, s.empty.Render("No devices registered."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, record := range records {
		parts := []string{
			s.device.Render(fmt.Sprintf("device %s", record.DeviceID)),
			s.detail.Render("rotated: " + formatAge(record.RotatedAt, opts.Now)),
		}
		parts = append(parts, graceLine(record, opts, s))
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, parts...)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func graceLine(record domain.DeviceKeyRecord, opts RenderOptions, s styles) string {
	if !record.InGracePeriod() {
		return s.detail.Render("grace period: closed")
	}

	line := s.label.Render("grace period: open")
	if opts.Now.IsZero() || record.RotatedAt.IsZero() || opts.GraceWarnAfter <= 0 {
		return line
	}
	if opts.Now.Sub(record.RotatedAt) > opts.GraceWarnAfter {
		line += " " + s.warning.Render("[device has not confirmed new key]")
	}
	return line
}

func renderIngest(report application.IngestReport, s styles) string {
	lines := []string{
		s.title.Render("Telemetry Batch"),
		s.header.Render(fmt.Sprintf("relay: %s  decoded: %d  dropped: %d  alerts: %d",
			orUnknown(report.Relay), report.Decoded, report.Dropped, report.Alerts)),
	}

	if len(report.Records) == 0 && len(report.Diagnostics) == 0 {
		lines = append(lines, s.empty.Render("Batch was empty."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, record := range report.Records {
		lines = append(lines, s.section.Render(renderRecord(record, s)))
	}

	if len(report.Diagnostics) > 0 {
		diagnostics := []string{s.warning.Render("dropped sub-records:")}
		for _, diag := range report.Diagnostics {
			diagnostics = append(diagnostics, s.detail.Render(fmt.Sprintf("  #%d device %s: %s", diag.Index, diag.DeviceID, diag.Reason())))
		}
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, diagnostics...)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderRecord(record domain.TelemetryRecord, s styles) string {
	title := fmt.Sprintf("device %s (%s)", record.DeviceID, record.Status)
	header := s.device.Render(title)
	if record.Tamper {
		header += " " + s.warning.Render("[tamper]")
	} else if record.Status == domain.StatusAnomaly {
		header += " " + s.warning.Render("[anomaly]")
	}
	if !record.Tamper && !record.ScoreVerified {
		header += " " + s.warning.Render("[score mismatch]")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		pointsLine(int(record.GrowthPoints), s),
		s.detail.Render(fmt.Sprintf("%d mV  %d°C  acoustic %d  rssi %d dBm  hops %d  elapsed %ds",
			record.VoltageMV, record.TemperatureC, record.AcousticEvents, record.RSSI, record.MeshHops, record.ElapsedSeconds)),
	)
}

func renderScore(seed uint32, result chaos.Result, s styles) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		s.title.Render("Chaos Score"),
		s.header.Render(fmt.Sprintf("seed: %08x", seed)),
		s.section.Render(s.device.Render(fmt.Sprintf("status: %s", result.Status))),
		pointsLine(int(result.Points), s),
		s.detail.Render(fmt.Sprintf("final z: %.6f  packed: 0x%02x", result.Z, result.Packed())),
	)
}

func pointsLine(points int, s styles) string {
	percent := float64(points) / float64(chaos.MaxReward) * 100
	color := interpolateColor(percent, 0, 100)
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.label.Render("growth:"),
		" ",
		renderProgressBar(percent, barWidth, s),
		" ",
		lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%2d pts", points)),
	)
}

func renderProgressBar(filledPercent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	fraction := clampPercent(filledPercent) / 100.0
	filled := int(math.Round(float64(width) * fraction))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func formatAge(at, now time.Time) string {
	if at.IsZero() {
		return "unknown"
	}
	if now.IsZero() {
		return at.Format(time.RFC3339)
	}

	elapsed := now.Sub(at)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return plural(int(elapsed.Minutes()), "minute") + " ago"
	case elapsed < 24*time.Hour:
		return plural(int(elapsed.Hours()), "hour") + " ago"
	default:
		return plural(int(elapsed.Hours()/24), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func orUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// ANSI 256 greyscale ramp, faded at min and bright at max.
	baseColor := 240.0
	targetColor := 255.0
	return lipgloss.Color(fmt.Sprintf("%d", int(baseColor+(targetColor-baseColor)*normalized)))
}
