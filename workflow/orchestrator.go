package workflow

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/reperto/reperto-cli/api"
	"github.com/reperto/reperto-cli/logging"
)

// State is the orchestrator's position in the analysis cycle.
type State int

const (
	Idle State = iota
	Submitting
	Suggested
	SuggestionFailed
	Confirming
	Ranking
	Ranked
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Suggested:
		return "suggested"
	case SuggestionFailed:
		return "suggestion-failed"
	case Confirming:
		return "confirming"
	case Ranking:
		return "ranking"
	case Ranked:
		return "ranked"
	default:
		return "unknown"
	}
}

// Service is the orchestrator's view of the backend. *api.Client implements
// it; tests substitute fakes.
type Service interface {
	AnalyzeCase(ctx context.Context, caseID int, text string) (*api.CaseAnalysis, error)
	ParseText(ctx context.Context, text string) (*api.ParseResult, error)
}

// ValidationError blocks a submission before any network call is made. The
// orchestrator state is unchanged when one is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ErrRequestInFlight rejects a submission while a previous one is still
// unresolved. The new submission is dropped, never queued.
var ErrRequestInFlight = errors.New("an analysis request is already in flight")

// ErrNotConfirmable reports a Confirm call outside the suggestion states.
var ErrNotConfirmable = errors.New("no suggestions to confirm in the current state")

// Fallback values for the synthesized offline suggestion, mirroring the
// backend's own deterministic fallback parser.
const (
	fallbackRubricPath       = "Head > Pain > Night"
	fallbackRubricConfidence = 0.6
	fallbackRubricEvidence   = "local fallback"
)

// topRemedyCount is how many remedies the ranking view shows before the
// "view all" affordance.
const topRemedyCount = 3

// Orchestrator is the workflow state machine for one case context. It is
// safe to call from a rendering goroutine while a submission runs in the
// background: results that resolve after Reset are discarded without
// mutating state.
type Orchestrator struct {
	svc Service

	mu         sync.Mutex
	state      State
	caseID     int
	complaint  string
	summary    string
	risk       string
	rubrics    []api.RubricSuggestion
	remedies   []api.RemedyCandidate
	confirmed  []api.RubricSuggestion
	generation uint64
	inFlight   bool
}

// New creates an orchestrator bound to a backend service. A case context
// must be attached via BindCase before the analyze path can run.
func New(svc Service) *Orchestrator {
	return &Orchestrator{svc: svc}
}

// BindCase attaches the orchestrator to an existing case.
func (o *Orchestrator) BindCase(caseID int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.caseID = caseID
}

// State returns the current workflow state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Complaint returns the typed complaint text. It survives failed
// submissions verbatim so the user can retry without re-entry.
func (o *Orchestrator) Complaint() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.complaint
}

// Suggestions returns the current rubric suggestions in service order.
func (o *Orchestrator) Suggestions() []api.RubricSuggestion {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]api.RubricSuggestion, len(o.rubrics))
	copy(out, o.rubrics)
	return out
}

// Remedies returns the ranked remedy candidates exactly as the service
// returned them.
func (o *Orchestrator) Remedies() []api.RemedyCandidate {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]api.RemedyCandidate, len(o.remedies))
	copy(out, o.remedies)
	return out
}

// Summary returns the AI case summary and risk level from the last
// successful analysis.
func (o *Orchestrator) Summary() (summary, risk string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.summary, o.risk
}

// begin validates a submission and marks the request in flight. It returns
// the generation the eventual result must present to be applied.
func (o *Orchestrator) begin(complaint string, needCase bool) (uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if strings.TrimSpace(complaint) == "" {
		return 0, &ValidationError{Reason: "please enter the patient complaint"}
	}
	if needCase && o.caseID == 0 {
		return 0, &ValidationError{Reason: "select or create a case first"}
	}
	if o.inFlight {
		return 0, ErrRequestInFlight
	}

	o.inFlight = true
	o.state = Submitting
	o.complaint = complaint
	return o.generation, nil
}

// finish applies a submission outcome unless the orchestrator was reset
// while the request was on the wire.
func (o *Orchestrator) finish(gen uint64, apply func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.generation {
		logging.Debug("Discarding stale analysis response", "generation", gen)
		return
	}
	o.inFlight = false
	apply()
}

// Analyze runs the full analysis for the bound case. On success the
// orchestrator holds both the rubric suggestions and the ranked remedies.
// On failure the workflow returns to Idle with the complaint preserved and
// the error is surfaced for the screen to display.
func (o *Orchestrator) Analyze(ctx context.Context, complaint string) error {
	gen, err := o.begin(complaint, true)
	if err != nil {
		return err
	}

	o.mu.Lock()
	caseID := o.caseID
	o.mu.Unlock()

	result, err := o.svc.AnalyzeCase(ctx, caseID, complaint)
	if err != nil {
		o.finish(gen, func() {
			o.state = Idle
		})
		return fmt.Errorf("analyze case %d: %w", caseID, err)
	}

	o.finish(gen, func() {
		o.state = Suggested
		o.summary = result.Case.Summary
		o.risk = result.Case.RiskLevel
		o.rubrics = result.Rubrics
		o.remedies = result.Remedies
	})
	return nil
}

// Suggest runs the lightweight parse-text path. A backend failure here is
// absorbed: exactly one locally generated low-confidence rubric is
// synthesized so the confirmation step stays usable offline, and the
// workflow lands in SuggestionFailed, which permits confirmation exactly
// like Suggested.
func (o *Orchestrator) Suggest(ctx context.Context, complaint string) error {
	gen, err := o.begin(complaint, false)
	if err != nil {
		return err
	}

	result, err := o.svc.ParseText(ctx, complaint)
	if err != nil {
		logging.Warn("Suggestion service unreachable, using local fallback", "error", err)
		o.finish(gen, func() {
			o.state = SuggestionFailed
			o.summary = ""
			o.risk = ""
			o.remedies = nil
			o.rubrics = []api.RubricSuggestion{{
				Path:       fallbackRubricPath,
				Confidence: fallbackRubricConfidence,
				Evidence:   fallbackRubricEvidence,
				Local:      true,
			}}
		})
		return nil
	}

	o.finish(gen, func() {
		o.state = Suggested
		o.summary = result.Summary
		o.risk = result.Risk
		o.remedies = nil
		o.rubrics = result.Rubrics
	})
	return nil
}

// LoadAnalysis seeds the orchestrator from a previously analyzed case, as
// when reopening a case whose rubrics and remedies are already persisted.
// The workflow enters Ranked directly when remedies exist, Suggested when
// only rubrics do.
func (o *Orchestrator) LoadAnalysis(ca *api.CaseAnalysis) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.caseID = ca.Case.ID
	o.complaint = ca.Case.Complaint
	o.summary = ca.Case.Summary
	o.risk = ca.Case.RiskLevel
	o.rubrics = ca.Rubrics
	o.remedies = ca.Remedies

	switch {
	case len(ca.Remedies) > 0:
		o.state = Ranked
	case len(ca.Rubrics) > 0:
		o.state = Suggested
	default:
		o.state = Idle
	}
}

// Confirm accepts the user's selection by suggestion index, in selection
// order. Selection is manual: there is no confidence thresholding, and a
// single accepted rubric is a valid confirmed set. The confirmed set is
// returned inside a fresh Context for the next navigation hop.
func (o *Orchestrator) Confirm(selection []int) (Context, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != Suggested && o.state != SuggestionFailed {
		return Context{}, ErrNotConfirmable
	}

	confirmed := make([]api.RubricSuggestion, 0, len(selection))
	for _, idx := range selection {
		if idx < 0 || idx >= len(o.rubrics) {
			return Context{}, fmt.Errorf("suggestion index %d out of range", idx)
		}
		confirmed = append(confirmed, o.rubrics[idx])
	}

	o.confirmed = confirmed
	o.state = Confirming

	ctx := Context{CaseID: o.caseID, ConfirmedRubrics: confirmed}
	return ctx.Fork(), nil
}

// Confirmed returns the confirmed set in the order the user selected it.
func (o *Orchestrator) Confirmed() []api.RubricSuggestion {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]api.RubricSuggestion, len(o.confirmed))
	copy(out, o.confirmed)
	return out
}

// Rank hands the confirmed set to the remedy view. Remedies returned by the
// analyze call are displayed directly; there is no second service call.
func (o *Orchestrator) Rank() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != Confirming {
		return fmt.Errorf("cannot rank from state %s", o.state)
	}
	o.state = Ranking
	o.state = Ranked
	return nil
}

// Reanalyze is the only way back to Submitting from Ranked: an explicit
// user action re-running the analysis with the current complaint.
func (o *Orchestrator) Reanalyze(ctx context.Context) error {
	o.mu.Lock()
	if o.state != Ranked {
		o.mu.Unlock()
		return fmt.Errorf("cannot re-analyze from state %s", o.state)
	}
	o.state = Idle
	complaint := o.complaint
	o.mu.Unlock()

	return o.Analyze(ctx, complaint)
}

// Reset detaches the orchestrator from any outstanding request, as when
// the owning screen unmounts. A response resolving after Reset is discarded
// without mutating state.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.generation++
	o.inFlight = false
	o.state = Idle
	o.summary = ""
	o.risk = ""
	o.rubrics = nil
	o.remedies = nil
	o.confirmed = nil
}

// RemedyDisplay is a remedy row formatted for the ranking view. Percent is
// rounded for display only; the stored candidate keeps its exact value.
type RemedyDisplay struct {
	Name    string
	Percent int
	Details string
}

// TopRemedies truncates to the three highest-ranked entries by the order
// the service already provided and rounds percentages to the nearest
// integer. The input is never reordered or modified.
func TopRemedies(remedies []api.RemedyCandidate) []RemedyDisplay {
	n := len(remedies)
	if n > topRemedyCount {
		n = topRemedyCount
	}
	out := make([]RemedyDisplay, 0, n)
	for _, r := range remedies[:n] {
		out = append(out, RemedyDisplay{
			Name:    r.Name,
			Percent: int(math.Round(r.Percentage)),
			Details: r.Details,
		})
	}
	return out
}
