package monitor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Format selects the report rendering.
type Format int

const (
	// FormatJSON renders a machine-parseable report.
	FormatJSON Format = iota
	// FormatText renders a human-readable summary.
	FormatText
)

// ErrUnknownFormat is returned by Report for an unrecognized format.
var ErrUnknownFormat = fmt.Errorf("monitor: unknown report format")

// report is the serialized shape of a JSON report.
type report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Window      string    `json:"window"`
	Stats       Stats     `json:"stats"`
	Recent      []Event   `json:"recent,omitempty"`
}

// Report renders a summary of the retained events over the window.
func (m *Monitor) Report(window time.Duration, format Format) (string, error) {
	if window <= 0 {
		window = m.config.Retention
	}
	stats := m.Stats(window, "")

	switch format {
	case FormatJSON:
		rep := report{
			GeneratedAt: m.clock.Now(),
			Window:      window.String(),
			Stats:       stats,
			Recent:      m.Recent(10),
		}
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return "", fmt.Errorf("monitor: marshal report: %w", err)
		}
		return string(data), nil

	case FormatText:
		return m.textReport(window, stats), nil

	default:
		return "", ErrUnknownFormat
	}
}

func (m *Monitor) textReport(window time.Duration, stats Stats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Error report (last %s)\n", window)
	fmt.Fprintf(&b, "  total: %d events (%.4f/s)\n", stats.Total, stats.Rate)

	if len(stats.BySeverity) > 0 {
		b.WriteString("  by severity:\n")
		for _, sev := range []string{"critical", "error", "warning", "info", "debug"} {
			if count, ok := stats.BySeverity[sev]; ok {
				fmt.Fprintf(&b, "    %-8s %d\n", sev, count)
			}
		}
	}

	if len(stats.TopKinds) > 0 {
		b.WriteString("  top kinds:\n")
		for _, kc := range stats.TopKinds {
			fmt.Fprintf(&b, "    %-14s %d\n", kc.Kind, kc.Count)
		}
	}

	if len(stats.ByComponent) > 0 {
		components := make([]string, 0, len(stats.ByComponent))
		for c := range stats.ByComponent {
			components = append(components, c)
		}
		sort.Strings(components)
		b.WriteString("  by component:\n")
		for _, c := range components {
			name := c
			if name == "" {
				name = "(none)"
			}
			fmt.Fprintf(&b, "    %-14s %d\n", name, stats.ByComponent[c])
		}
	}

	return b.String()
}
