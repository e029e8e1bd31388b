// Package api provides the HTTP client for the Reperto backend and the
// shared domain types exchanged with it. All numeric scores are normalized
// into their display ranges (confidence 0..1, percentage 0..100) as soon as
// a response is decoded, so downstream code never sees out-of-range values.
package api

import "time"

// User is the authenticated clinician profile returned by /auth/me.
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ProfileImage string    `json:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Token is the response of /auth/login and /auth/signup.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// RubricSuggestion is a single symptom-to-rubric mapping proposed by the
// analysis service. Suggestions are immutable once created; the workflow
// only filters and selects them.
type RubricSuggestion struct {
	Path       string  `json:"path"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence"`
	Category   string  `json:"category,omitempty"`

	// Local marks the synthesized offline fallback suggestion. It is never
	// sent upstream.
	Local bool `json:"-"`
}

// RemedyCandidate is a ranked remedy returned by the analysis service.
// Ranking order is the service's and must be preserved by callers.
type RemedyCandidate struct {
	Name           string   `json:"name"`
	Percentage     float64  `json:"percentage"`
	MatchedRubrics []string `json:"matched_rubrics,omitempty"`
	Details        string   `json:"details,omitempty"`
}

// CaseSummary is the read-only projection of a case used for listing and
// search. The authoritative copy lives server-side.
type CaseSummary struct {
	ID          int        `json:"id"`
	CaseID      string     `json:"case_id"`
	Title       string     `json:"title"`
	Complaint   string     `json:"complaint"`
	PatientID   int        `json:"patient_id"`
	PatientName string     `json:"patient_name,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	RiskLevel   string     `json:"risk_level,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// PatientSummary is the read-only projection of a patient record.
type PatientSummary struct {
	ID             int       `json:"id"`
	PatientID      string    `json:"patient_id"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Gender         string    `json:"gender"`
	Phone          string    `json:"phone,omitempty"`
	Address        string    `json:"address,omitempty"`
	MedicalHistory string    `json:"medical_history,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// CaseAnalysis is the combined payload of GET /cases/{id} and
// POST /cases/{id}/analyze: the case plus its rubrics and ranked remedies.
type CaseAnalysis struct {
	Case     CaseSummary        `json:"case"`
	Rubrics  []RubricSuggestion `json:"rubrics"`
	Remedies []RemedyCandidate  `json:"remedies"`
}

// ParseResult is the response of POST /ai/parse-text.
type ParseResult struct {
	Summary string             `json:"summary"`
	Risk    string             `json:"risk"`
	Rubrics []RubricSuggestion `json:"rubrics"`
}

// CaseCreate is the request body of POST /cases.
type CaseCreate struct {
	Title     string `json:"title"`
	Complaint string `json:"complaint"`
	PatientID int    `json:"patient_id"`
}

// PatientCreate is the request body of POST /patients.
type PatientCreate struct {
	Name           string `json:"name"`
	Age            int    `json:"age"`
	Gender         string `json:"gender"`
	Phone          string `json:"phone,omitempty"`
	Address        string `json:"address,omitempty"`
	MedicalHistory string `json:"medical_history,omitempty"`
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NormalizeRubrics clamps confidence into [0,1] in place. Entries decoded
// without a confidence or evidence already carry the expected zero values,
// so only range violations need fixing.
func NormalizeRubrics(rubrics []RubricSuggestion) {
	for i := range rubrics {
		rubrics[i].Confidence = clamp(rubrics[i].Confidence, 0, 1)
	}
}

// NormalizeRemedies clamps percentage into [0,100] in place without
// reordering: the service's ranking order is authoritative.
func NormalizeRemedies(remedies []RemedyCandidate) {
	for i := range remedies {
		remedies[i].Percentage = clamp(remedies[i].Percentage, 0, 100)
	}
}
