// Package workflow drives the case analysis workflow: complaint submission,
// AI suggestion retrieval with offline fallback, rubric confirmation and
// remedy ranking. It owns the state machine the screens render and the
// transfer object navigation carries between them.
package workflow

import "github.com/reperto/reperto-cli/api"

// Context is the ephemeral payload handed from one screen to the next. It
// is not a store: each navigation hop constructs a fresh copy via Fork so
// no two screens share backing storage, and the receiving screen reads it
// once.
type Context struct {
	CaseID           int
	ConfirmedRubrics []api.RubricSuggestion
}

// Fork returns a deep copy for the next navigation hop. The confirmed set
// keeps its selection order.
func (c Context) Fork() Context {
	out := Context{CaseID: c.CaseID}
	if len(c.ConfirmedRubrics) > 0 {
		out.ConfirmedRubrics = make([]api.RubricSuggestion, len(c.ConfirmedRubrics))
		copy(out.ConfirmedRubrics, c.ConfirmedRubrics)
	}
	return out
}
