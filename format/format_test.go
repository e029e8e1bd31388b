package format

import (
	"testing"
	"time"
)

func TestInitials(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"two tokens", "John Smith", "JS"},
		{"empty", "", "DR"},
		{"whitespace only", "   ", "DR"},
		{"single token", "Madonna", "M"},
		{"three tokens truncate to two", "Anna Maria Gonzalez", "AM"},
		{"lowercase input", "jane doe", "JD"},
		{"unicode first letters", "émile zola", "ÉZ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Initials(tt.in); got != tt.want {
				t.Errorf("Initials(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRelativeAge(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"just now", now, "0m ago"},
		{"under an hour", now.Add(-45 * time.Minute), "45m ago"},
		{"exactly 60 minutes is the hour bucket", now.Add(-60 * time.Minute), "1h ago"},
		{"a few hours", now.Add(-5 * time.Hour), "5h ago"},
		{"23h59m still hours", now.Add(-24*time.Hour + time.Minute), "23h ago"},
		{"exactly one day", now.Add(-24 * time.Hour), "Yesterday"},
		{"under two days", now.Add(-47 * time.Hour), "Yesterday"},
		{"three days", now.Add(-3 * 24 * time.Hour), "3d ago"},
		{"six days", now.Add(-6*24*time.Hour - time.Hour), "6d ago"},
		{"a week becomes absolute", now.Add(-7 * 24 * time.Hour), "Aug 13"},
		{"future clock skew reads as now", now.Add(2 * time.Minute), "0m ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RelativeAge(tt.t, now); got != tt.want {
				t.Errorf("RelativeAge(%v) = %q, want %q", tt.t, got, tt.want)
			}
		})
	}
}

// TestRelativeAgeMonotonic checks that an older timestamp never reads as
// more recent than a newer one.
func TestRelativeAgeMonotonic(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	order := func(label string) int {
		switch {
		case len(label) > 5 && label[len(label)-5:] == "m ago":
			return 0
		case len(label) > 5 && label[len(label)-5:] == "h ago":
			return 1
		case label == "Yesterday":
			return 2
		case len(label) > 5 && label[len(label)-5:] == "d ago":
			return 3
		default:
			return 4
		}
	}

	offsets := []time.Duration{
		time.Minute, 30 * time.Minute, time.Hour, 12 * time.Hour,
		24 * time.Hour, 40 * time.Hour, 3 * 24 * time.Hour,
		6 * 24 * time.Hour, 10 * 24 * time.Hour, 60 * 24 * time.Hour,
	}

	prev := -1
	for _, off := range offsets {
		label := RelativeAge(now.Add(-off), now)
		bucket := order(label)
		if bucket < prev {
			t.Errorf("Offset %v produced bucket %d (%q) after bucket %d", off, bucket, label, prev)
		}
		prev = bucket
	}
}

func TestRiskTag(t *testing.T) {
	tests := []struct {
		level string
		want  Tag
	}{
		{"high", TagDanger},
		{"HIGH", TagDanger},
		{"Medium", TagWarning},
		{"low", TagSuccess},
		{"", TagSecondary},
		{"unknown", TagSecondary},
		{"  high  ", TagDanger},
	}

	for _, tt := range tests {
		if got := RiskTag(tt.level); got != tt.want {
			t.Errorf("RiskTag(%q) = %q, want %q", tt.level, got, tt.want)
		}
	}
}
