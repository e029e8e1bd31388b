package stub

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseTextIsDeterministic(t *testing.T) {
	var ai Analyzer
	const text = "Throbbing headache, worse at night, anxious and restless."

	first := ai.ParseText(text)
	second := ai.ParseText(text)
	if !reflect.DeepEqual(first, second) {
		t.Error("Same input produced different analyses")
	}
}

func TestParseTextExtractsRubrics(t *testing.T) {
	var ai Analyzer

	result := ai.ParseText("Throbbing headache, worse at night, wakes at 3am.")
	if len(result.Rubrics) < 2 {
		t.Fatalf("Expected at least 2 rubrics, got %d", len(result.Rubrics))
	}
	for _, r := range result.Rubrics {
		if r.Path == "" || r.Category == "" {
			t.Errorf("Incomplete rubric: %+v", r)
		}
		if r.Confidence <= 0 || r.Confidence > 1 {
			t.Errorf("Confidence out of range: %v", r.Confidence)
		}
		if !strings.Contains(r.Path, " > ") {
			t.Errorf("Rubric path not hierarchical: %q", r.Path)
		}
	}
}

func TestParseTextUnrecognizedComplaintYieldsFallbackRubric(t *testing.T) {
	var ai Analyzer

	result := ai.ParseText("qwerty asdf")
	if len(result.Rubrics) != 1 {
		t.Fatalf("Expected 1 fallback rubric, got %d", len(result.Rubrics))
	}
	if result.Rubrics[0].Path != "General > Analysis > Unclassified" {
		t.Errorf("Unexpected fallback rubric: %+v", result.Rubrics[0])
	}
}

func TestParseTextCapsRubricsAtFive(t *testing.T) {
	var ai Analyzer

	result := ai.ParseText("headache at night, anxious, irritable, nausea, sleepless, itchy skin, thirst, fever, cough")
	if len(result.Rubrics) > 5 {
		t.Errorf("Expected at most 5 rubrics, got %d", len(result.Rubrics))
	}
}

func TestRiskEstimation(t *testing.T) {
	var ai Analyzer
	tests := []struct {
		text string
		want string
	}{
		{"sudden chest pain and collapse", "high"},
		{"mild fever in the evening", "medium"},
		{"occasional sneezing", "low"},
	}

	for _, tt := range tests {
		if got := ai.ParseText(tt.text).Risk; got != tt.want {
			t.Errorf("ParseText(%q).Risk = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestRemediesForReturnsTopThree(t *testing.T) {
	var ai Analyzer

	remedies := ai.RemediesFor(nil)
	if len(remedies) != 3 {
		t.Fatalf("Expected 3 remedies, got %d", len(remedies))
	}
	if remedies[0].Name != "Nux Vomica" || remedies[0].Percentage != 98 {
		t.Errorf("Unexpected top remedy: %+v", remedies[0])
	}
	for i := 1; i < len(remedies); i++ {
		if remedies[i].Percentage > remedies[i-1].Percentage {
			t.Error("Remedies not ordered by percentage")
		}
	}
}
