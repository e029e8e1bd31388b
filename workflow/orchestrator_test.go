package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/reperto/reperto-cli/api"
)

// fakeService is a scriptable backend for orchestrator tests.
type fakeService struct {
	mu           sync.Mutex
	analyzeCalls int
	parseCalls   int

	analyzeResult *api.CaseAnalysis
	analyzeErr    error
	parseResult   *api.ParseResult
	parseErr      error

	// block, when non-nil, holds AnalyzeCase until released.
	block chan struct{}
}

func (f *fakeService) AnalyzeCase(ctx context.Context, caseID int, text string) (*api.CaseAnalysis, error) {
	f.mu.Lock()
	f.analyzeCalls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return f.analyzeResult, nil
}

func (f *fakeService) ParseText(ctx context.Context, text string) (*api.ParseResult, error) {
	f.mu.Lock()
	f.parseCalls++
	f.mu.Unlock()
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return f.parseResult, nil
}

func (f *fakeService) calls() (analyze, parse int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.analyzeCalls, f.parseCalls
}

func analysisFixture() *api.CaseAnalysis {
	return &api.CaseAnalysis{
		Case: api.CaseSummary{
			ID: 7, Title: "Migraine", Summary: "Night headaches", RiskLevel: "medium", Status: "analyzed",
		},
		Rubrics: []api.RubricSuggestion{
			{Path: "Head > Pain > Night", Confidence: 0.9, Evidence: "worse at night"},
			{Path: "Mind > Irritability", Confidence: 0.7, Evidence: "snaps at family"},
			{Path: "Sleep > Sleeplessness", Confidence: 0.5, Evidence: "wakes at 3am"},
		},
		Remedies: []api.RemedyCandidate{
			{Name: "Sulphur", Percentage: 72.6},
			{Name: "Lachesis", Percentage: 65.2},
			{Name: "Nux Vomica", Percentage: 50.0},
			{Name: "Pulsatilla", Percentage: 40.0},
		},
	}
}

func TestAnalyzeRejectsBlankComplaintWithoutNetworkCall(t *testing.T) {
	tests := []string{"", "   ", "\n\t  "}

	for _, complaint := range tests {
		svc := &fakeService{analyzeResult: analysisFixture()}
		o := New(svc)
		o.BindCase(7)

		err := o.Analyze(context.Background(), complaint)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Complaint %q: expected ValidationError, got %v", complaint, err)
		}
		if o.State() != Idle {
			t.Errorf("Complaint %q: state changed to %s", complaint, o.State())
		}
		if analyze, _ := svc.calls(); analyze != 0 {
			t.Errorf("Complaint %q: network call made for invalid submission", complaint)
		}
	}
}

func TestAnalyzeRequiresCaseContext(t *testing.T) {
	svc := &fakeService{analyzeResult: analysisFixture()}
	o := New(svc) // no BindCase

	err := o.Analyze(context.Background(), "headache at night")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationError without case context, got %v", err)
	}
	if analyze, _ := svc.calls(); analyze != 0 {
		t.Error("Network call made without case context")
	}
}

func TestAnalyzeSuccessEntersSuggested(t *testing.T) {
	svc := &fakeService{analyzeResult: analysisFixture()}
	o := New(svc)
	o.BindCase(7)

	if err := o.Analyze(context.Background(), "headache at night"); err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if o.State() != Suggested {
		t.Fatalf("Expected Suggested, got %s", o.State())
	}
	if got := len(o.Suggestions()); got != 3 {
		t.Errorf("Expected 3 suggestions, got %d", got)
	}
	if got := len(o.Remedies()); got != 4 {
		t.Errorf("Expected 4 remedies from combined analyze, got %d", got)
	}
	summary, risk := o.Summary()
	if summary != "Night headaches" || risk != "medium" {
		t.Errorf("Summary() = (%q, %q)", summary, risk)
	}
}

func TestAnalyzeFailurePreservesComplaintAndReturnsToIdle(t *testing.T) {
	svc := &fakeService{analyzeErr: errors.New("connection refused")}
	o := New(svc)
	o.BindCase(7)

	const complaint = "throbbing headache, worse lying down"
	err := o.Analyze(context.Background(), complaint)
	if err == nil {
		t.Fatal("Expected error from failed analyze")
	}
	if o.State() != Idle {
		t.Errorf("Expected Idle after failure, got %s", o.State())
	}
	if o.Complaint() != complaint {
		t.Errorf("Complaint not preserved verbatim: %q", o.Complaint())
	}
	if got := len(o.Suggestions()); got != 0 {
		t.Errorf("Expected no suggestions after failure, got %d", got)
	}
}

func TestSuggestFailureSynthesizesSingleLocalFallback(t *testing.T) {
	svc := &fakeService{parseErr: errors.New("timeout")}
	o := New(svc)

	if err := o.Suggest(context.Background(), "headache"); err != nil {
		t.Fatalf("Suggest must absorb backend failure, got %v", err)
	}
	if o.State() != SuggestionFailed {
		t.Fatalf("Expected SuggestionFailed, got %s", o.State())
	}

	suggestions := o.Suggestions()
	if len(suggestions) != 1 {
		t.Fatalf("Expected exactly one fallback suggestion, got %d", len(suggestions))
	}
	fb := suggestions[0]
	if !fb.Local {
		t.Error("Fallback suggestion not flagged as locally generated")
	}
	if fb.Path != "Head > Pain > Night" || fb.Confidence != 0.6 || fb.Evidence != "local fallback" {
		t.Errorf("Unexpected fallback suggestion: %+v", fb)
	}

	// The confirmation step stays usable offline.
	if _, err := o.Confirm([]int{0}); err != nil {
		t.Errorf("Confirm after fallback returned error: %v", err)
	}
}

func TestSuggestSuccess(t *testing.T) {
	svc := &fakeService{parseResult: &api.ParseResult{
		Summary: "Likely tension headache",
		Risk:    "low",
		Rubrics: []api.RubricSuggestion{{Path: "Head > Pain", Confidence: 0.8}},
	}}
	o := New(svc)

	if err := o.Suggest(context.Background(), "headache"); err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}
	if o.State() != Suggested {
		t.Fatalf("Expected Suggested, got %s", o.State())
	}
	if _, parse := svc.calls(); parse != 1 {
		t.Errorf("Expected 1 parse call, got %d", parse)
	}
}

func TestConcurrentSubmissionRejected(t *testing.T) {
	block := make(chan struct{})
	svc := &fakeService{analyzeResult: analysisFixture(), block: block}
	o := New(svc)
	o.BindCase(7)

	done := make(chan error, 1)
	go func() {
		done <- o.Analyze(context.Background(), "first complaint")
	}()

	// Wait until the first request is on the wire.
	for o.State() != Submitting {
	}

	err := o.Analyze(context.Background(), "second complaint")
	if !errors.Is(err, ErrRequestInFlight) {
		t.Fatalf("Expected ErrRequestInFlight for overlapping submission, got %v", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("First submission failed: %v", err)
	}

	// The displayed result corresponds only to the first request.
	if o.Complaint() != "first complaint" {
		t.Errorf("Complaint overwritten by rejected submission: %q", o.Complaint())
	}
	if analyze, _ := svc.calls(); analyze != 1 {
		t.Errorf("Expected exactly 1 analyze call, got %d", analyze)
	}
}

func TestResetDiscardsInFlightResult(t *testing.T) {
	block := make(chan struct{})
	svc := &fakeService{analyzeResult: analysisFixture(), block: block}
	o := New(svc)
	o.BindCase(7)

	done := make(chan error, 1)
	go func() {
		done <- o.Analyze(context.Background(), "complaint")
	}()
	for o.State() != Submitting {
	}

	// Screen unmounts before the response arrives.
	o.Reset()
	close(block)
	<-done

	if o.State() != Idle {
		t.Errorf("Stale response mutated state to %s", o.State())
	}
	if got := len(o.Suggestions()); got != 0 {
		t.Errorf("Stale response stored %d suggestions", got)
	}
}

func TestConfirmPreservesSelectionOrder(t *testing.T) {
	svc := &fakeService{analyzeResult: analysisFixture()}
	o := New(svc)
	o.BindCase(7)
	if err := o.Analyze(context.Background(), "complaint"); err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	// User selects the third suggestion first, then the first.
	wctx, err := o.Confirm([]int{2, 0})
	if err != nil {
		t.Fatalf("Confirm returned error: %v", err)
	}
	if o.State() != Confirming {
		t.Errorf("Expected Confirming, got %s", o.State())
	}

	if len(wctx.ConfirmedRubrics) != 2 {
		t.Fatalf("Expected 2 confirmed rubrics, got %d", len(wctx.ConfirmedRubrics))
	}
	if wctx.ConfirmedRubrics[0].Path != "Sleep > Sleeplessness" ||
		wctx.ConfirmedRubrics[1].Path != "Head > Pain > Night" {
		t.Errorf("Selection order not preserved: %+v", wctx.ConfirmedRubrics)
	}
	if wctx.CaseID != 7 {
		t.Errorf("Expected case id 7 in context, got %d", wctx.CaseID)
	}
}

func TestConfirmOutOfRange(t *testing.T) {
	svc := &fakeService{analyzeResult: analysisFixture()}
	o := New(svc)
	o.BindCase(7)
	if err := o.Analyze(context.Background(), "complaint"); err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if _, err := o.Confirm([]int{5}); err == nil {
		t.Error("Expected error for out-of-range selection index")
	}
}

func TestRankAndReanalyze(t *testing.T) {
	svc := &fakeService{analyzeResult: analysisFixture()}
	o := New(svc)
	o.BindCase(7)
	if err := o.Analyze(context.Background(), "complaint"); err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	// Rank is only reachable through Confirming.
	if err := o.Rank(); err == nil {
		t.Error("Expected error ranking from Suggested")
	}
	if _, err := o.Confirm([]int{0}); err != nil {
		t.Fatalf("Confirm returned error: %v", err)
	}
	if err := o.Rank(); err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}
	if o.State() != Ranked {
		t.Fatalf("Expected Ranked, got %s", o.State())
	}

	// Ranked never re-submits automatically; only Reanalyze does.
	analyzeBefore, _ := svc.calls()
	if err := o.Reanalyze(context.Background()); err != nil {
		t.Fatalf("Reanalyze returned error: %v", err)
	}
	analyzeAfter, _ := svc.calls()
	if analyzeAfter != analyzeBefore+1 {
		t.Errorf("Expected one more analyze call, got %d -> %d", analyzeBefore, analyzeAfter)
	}
	if o.State() != Suggested {
		t.Errorf("Expected Suggested after re-analyze, got %s", o.State())
	}
}

func TestReanalyzeOnlyFromRanked(t *testing.T) {
	svc := &fakeService{analyzeResult: analysisFixture()}
	o := New(svc)
	o.BindCase(7)
	if err := o.Reanalyze(context.Background()); err == nil {
		t.Error("Expected error re-analyzing from Idle")
	}
}

func TestLoadAnalysisEntersRankedDirectly(t *testing.T) {
	o := New(&fakeService{})
	o.LoadAnalysis(analysisFixture())

	if o.State() != Ranked {
		t.Errorf("Expected Ranked for persisted analysis, got %s", o.State())
	}
	if o.Complaint() == "" && analysisFixture().Case.Complaint != "" {
		t.Error("Complaint not loaded from case")
	}

	rubricsOnly := analysisFixture()
	rubricsOnly.Remedies = nil
	o2 := New(&fakeService{})
	o2.LoadAnalysis(rubricsOnly)
	if o2.State() != Suggested {
		t.Errorf("Expected Suggested for rubrics-only case, got %s", o2.State())
	}
}

func TestTopRemediesTruncatesAndRounds(t *testing.T) {
	remedies := []api.RemedyCandidate{
		{Name: "Sulphur", Percentage: 72.6},
		{Name: "Lachesis", Percentage: 65.2},
		{Name: "Nux Vomica", Percentage: 50.0},
		{Name: "Pulsatilla", Percentage: 40.0},
	}

	top := TopRemedies(remedies)
	if len(top) != 3 {
		t.Fatalf("Expected 3 displayed remedies, got %d", len(top))
	}
	want := []struct {
		name    string
		percent int
	}{
		{"Sulphur", 73}, {"Lachesis", 65}, {"Nux Vomica", 50},
	}
	for i, w := range want {
		if top[i].Name != w.name || top[i].Percent != w.percent {
			t.Errorf("Position %d: got (%s, %d), want (%s, %d)",
				i, top[i].Name, top[i].Percent, w.name, w.percent)
		}
	}

	// Underlying stored values stay exact.
	if remedies[0].Percentage != 72.6 {
		t.Errorf("Stored percentage altered: %v", remedies[0].Percentage)
	}

	if got := TopRemedies(nil); len(got) != 0 {
		t.Errorf("Expected empty display list, got %v", got)
	}
}

func TestContextForkIsDeepCopy(t *testing.T) {
	original := Context{
		CaseID: 3,
		ConfirmedRubrics: []api.RubricSuggestion{
			{Path: "Head > Pain > Night"},
		},
	}

	forked := original.Fork()
	forked.ConfirmedRubrics[0].Path = "changed"

	if original.ConfirmedRubrics[0].Path != "Head > Pain > Night" {
		t.Error("Fork shares backing storage with the original context")
	}
}
