package reporter

import (
	"fmt"
	"strings"
	"time"

	"github.com/saaga0h/jeeves-dns/e2e/internal/scenario"
)

// TimelineEvent is one line of the run timeline
type TimelineEvent struct {
	Elapsed     time.Duration
	Kind        string // clock, control, check
	Description string
	Success     bool
}

// GenerateTimeline renders a run as text
func GenerateTimeline(result *scenario.TestResult, events []TimelineEvent) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Scenario: %s\n", result.Scenario.Name)
	fmt.Fprintf(&sb, "Duration: %s\n\n", formatDuration(result.EndTime.Sub(result.StartTime)))

	for _, event := range events {
		icon := "→"
		if event.Kind == "check" {
			icon = "✗"
			if event.Success {
				icon = "✓"
			}
		}
		fmt.Fprintf(&sb, "[%7.2fs] %s %-8s %s\n", event.Elapsed.Seconds(), icon, event.Kind, event.Description)
	}

	sb.WriteString("\n=== Expectations ===\n")
	for _, r := range result.Expectations {
		target := r.Expectation.Topic
		if r.Expectation.Kind() == "redis" {
			target = r.Expectation.RedisKey + " " + r.Expectation.RedisField
		}
		if r.Passed {
			fmt.Fprintf(&sb, "  ✓ %s\n", target)
		} else {
			fmt.Fprintf(&sb, "  ✗ %s: %s\n", target, r.Reason)
		}
	}

	status := "PASSED"
	if result.FailedCount > 0 {
		status = fmt.Sprintf("%d FAILED", result.FailedCount)
	}
	fmt.Fprintf(&sb, "\nPassed: %d  Failed: %d  Status: %s\n", result.PassedCount, result.FailedCount, status)

	return sb.String()
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d / time.Minute)
	return fmt.Sprintf("%dm %.1fs", m, (d - time.Duration(m)*time.Minute).Seconds())
}
