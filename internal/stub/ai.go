package stub

import (
	"fmt"
	"strings"

	"github.com/reperto/reperto-cli/api"
)

// Analyzer is a deterministic stand-in for the hosted NLP service. It maps
// complaint keywords to repertory rubrics so the same input always produces
// the same analysis.
type Analyzer struct{}

type keywordRubric struct {
	keywords   []string
	path       string
	category   string
	confidence float64
}

// keywordTable covers the complaint vocabulary the demo data uses. First
// match per rubric wins; at most five rubrics are returned.
var keywordTable = []keywordRubric{
	{[]string{"headache", "migraine", "head pain"}, "Head > Pain > Throbbing", "Head", 0.9},
	{[]string{"night", "evening", "3am", "worse at night"}, "Head > Pain > Night", "Head", 0.8},
	{[]string{"anxious", "anxiety", "worry", "restless"}, "Mind > Anxiety > Restlessness", "Mind", 0.85},
	{[]string{"irritable", "angry", "snaps"}, "Mind > Irritability", "Mind", 0.75},
	{[]string{"nausea", "vomit", "queasy"}, "Stomach > Nausea", "Stomach", 0.8},
	{[]string{"sleep", "insomnia", "sleepless", "wakes"}, "Sleep > Sleeplessness", "Sleep", 0.7},
	{[]string{"itch", "rash", "eczema", "skin"}, "Skin > Eruptions > Itching", "Skin", 0.75},
	{[]string{"thirst", "dry mouth"}, "Stomach > Thirst > Large quantities", "Stomach", 0.65},
	{[]string{"fever", "chills", "temperature"}, "Fever > Heat > Alternating with chills", "Fever", 0.8},
	{[]string{"cough", "chest"}, "Chest > Oppression", "Chest", 0.7},
}

var highRiskTerms = []string{"chest pain", "bleeding", "severe", "collapse", "unconscious"}
var mediumRiskTerms = []string{"fever", "vomit", "pain", "dizzy", "palpitation"}

// ParseText extracts rubrics, a summary and a risk estimate from free text.
// An unrecognized complaint still yields one low-confidence rubric so the
// downstream confirmation step always has something to show.
func (Analyzer) ParseText(text string) api.ParseResult {
	lower := strings.ToLower(text)

	var rubrics []api.RubricSuggestion
	for _, entry := range keywordTable {
		if len(rubrics) == 5 {
			break
		}
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				rubrics = append(rubrics, api.RubricSuggestion{
					Path:       entry.path,
					Confidence: entry.confidence,
					Evidence:   fmt.Sprintf("mentions %q", kw),
					Category:   entry.category,
				})
				break
			}
		}
	}
	if len(rubrics) == 0 {
		rubrics = []api.RubricSuggestion{{
			Path:       "General > Analysis > Unclassified",
			Confidence: 0.5,
			Evidence:   "no recognized symptom keywords",
			Category:   "General",
		}}
	}

	return api.ParseResult{
		Summary: summarize(text),
		Risk:    riskOf(lower),
		Rubrics: rubrics,
	}
}

func summarize(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	if s == "" {
		return "No complaint text provided."
	}
	return "Patient reports: " + s
}

func riskOf(lower string) string {
	for _, term := range highRiskTerms {
		if strings.Contains(lower, term) {
			return "high"
		}
	}
	for _, term := range mediumRiskTerms {
		if strings.Contains(lower, term) {
			return "medium"
		}
	}
	return "low"
}

// commonRemedies is the fixed remedy table the demo ranking draws from,
// ordered by match percentage.
var commonRemedies = []api.RemedyCandidate{
	{Name: "Nux Vomica", Percentage: 98, MatchedRubrics: []string{"Mind-Irritable", "Stomach-Nausea"}, Details: "For digestive issues with irritability"},
	{Name: "Arsenicum Album", Percentage: 95, MatchedRubrics: []string{"Anxiety", "Restlessness"}, Details: "For anxiety and restlessness with burning pains"},
	{Name: "Pulsatilla", Percentage: 85, MatchedRubrics: []string{"Weeping", "Changeable"}, Details: "For emotional symptoms with changeability"},
	{Name: "Sulphur", Percentage: 80, MatchedRubrics: []string{"Skin-Itching", "Heat"}, Details: "For skin conditions with heat sensation"},
	{Name: "Bryonia", Percentage: 75, MatchedRubrics: []string{"Worse-Motion", "Thirst"}, Details: "For motion-related symptoms with great thirst"},
}

// RemediesFor returns the top three candidates for a rubric set.
func (Analyzer) RemediesFor(rubrics []api.RubricSuggestion) []api.RemedyCandidate {
	out := make([]api.RemedyCandidate, 3)
	copy(out, commonRemedies[:3])
	return out
}

// SuggestCompletion proposes how to extend a partial complaint.
func (Analyzer) SuggestCompletion(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "Describe the main complaint, when it started, what makes it better or worse, and any accompanying symptoms."
	}
	return trimmed + " The symptoms began gradually and are worse at night. " +
		"Include onset, duration, modalities and any accompanying symptoms such as sleep or appetite changes."
}
