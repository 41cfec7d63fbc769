package monitor

import (
	"sort"
	"time"
)

// KindCount pairs an error kind with its frequency.
type KindCount struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// Stats is an aggregate view of the event buffer over a window.
type Stats struct {
	// Window is the period the stats cover.
	Window time.Duration `json:"-"`

	// Component restricts the stats when non-empty.
	Component string `json:"component,omitempty"`

	// Total is the number of matching events.
	Total int `json:"total"`

	// Rate is Total divided by the window length in seconds.
	Rate float64 `json:"rate"`

	// BySeverity counts events per severity name.
	BySeverity map[string]int `json:"by_severity"`

	// ByComponent counts events per component.
	ByComponent map[string]int `json:"by_component"`

	// TopKinds lists error kinds by descending frequency.
	TopKinds []KindCount `json:"top_kinds"`
}

// Stats aggregates the retained events inside the window, optionally
// restricted to one component. A non-positive window means the full
// retention horizon.
func (m *Monitor) Stats(window time.Duration, component string) Stats {
	if window <= 0 {
		window = m.config.Retention
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	m.pruneLocked(now)
	cutoff := now.Add(-window)

	stats := Stats{
		Window:      window,
		Component:   component,
		BySeverity:  make(map[string]int),
		ByComponent: make(map[string]int),
	}

	kinds := make(map[string]int)
	for _, ev := range m.events {
		if !ev.Timestamp.After(cutoff) {
			continue
		}
		if component != "" && ev.Component != component {
			continue
		}
		stats.Total++
		stats.BySeverity[ev.Severity.String()]++
		stats.ByComponent[ev.Component]++
		kinds[ev.Kind.String()]++
	}

	stats.Rate = float64(stats.Total) / window.Seconds()

	for kind, count := range kinds {
		stats.TopKinds = append(stats.TopKinds, KindCount{Kind: kind, Count: count})
	}
	sort.Slice(stats.TopKinds, func(i, j int) bool {
		if stats.TopKinds[i].Count != stats.TopKinds[j].Count {
			return stats.TopKinds[i].Count > stats.TopKinds[j].Count
		}
		return stats.TopKinds[i].Kind < stats.TopKinds[j].Kind
	})

	return stats
}
