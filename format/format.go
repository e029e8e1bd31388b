// Package format holds the pure display formatters shared by the list and
// detail views: name initials, relative timestamps and risk severity tags.
package format

import (
	"fmt"
	"strings"
	"time"
)

// InitialsPlaceholder is shown when no name is available, matching the
// clinician-facing default avatar.
const InitialsPlaceholder = "DR"

// Initials returns the uppercased first letters of the first two name
// tokens. A single-token name yields a single letter; an empty name yields
// the fixed placeholder.
func Initials(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return InitialsPlaceholder
	}

	var b strings.Builder
	for _, f := range fields {
		b.WriteString(strings.ToUpper(string([]rune(f)[0])))
		if b.Len() >= 2 {
			break
		}
	}
	return b.String()
}

// RelativeAge buckets now-t into the labels used by the case list:
// "Nm ago", "Nh ago", "Yesterday", "Nd ago", then an absolute month/day
// label. All bucket arithmetic floors, so exactly 60 minutes reads as
// "1h ago" and exactly 24 hours enters the day buckets.
func RelativeAge(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		diff = 0
	}

	mins := int(diff.Minutes())
	hours := int(diff.Hours())
	days := int(diff.Hours() / 24)

	switch {
	case mins < 60:
		return fmt.Sprintf("%dm ago", mins)
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("Jan 2")
	}
}

// Tag is the severity class attached to a risk level.
type Tag string

const (
	TagDanger    Tag = "danger"
	TagWarning   Tag = "warning"
	TagSuccess   Tag = "success"
	TagSecondary Tag = "secondary"
)

// RiskTag maps a risk level to its severity tag, case-insensitively.
// Unknown or missing levels map to the neutral tag.
func RiskTag(level string) Tag {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "high":
		return TagDanger
	case "medium":
		return TagWarning
	case "low":
		return TagSuccess
	default:
		return TagSecondary
	}
}
