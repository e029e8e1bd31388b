package session

import "github.com/reperto/reperto-cli/logging"

// State is the launch-time authentication decision.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// CredentialProvider is the subset of the store the gate needs.
type CredentialProvider interface {
	Token() (string, error)
	Clear() error
}

// Gate decides, once per process start, which top-level flow the user
// enters. Routing on the result is the caller's responsibility.
type Gate struct {
	creds CredentialProvider
}

// NewGate creates a gate over a credential provider.
func NewGate(creds CredentialProvider) *Gate {
	return &Gate{creds: creds}
}

// Check returns Authenticated iff a non-empty credential is stored. Any
// retrieval failure fails open to the login flow: a corrupt or unreadable
// store must never crash the launch.
func (g *Gate) Check() State {
	token, err := g.creds.Token()
	if err != nil {
		logging.Warn("Credential store unreadable, treating as logged out", "error", err)
		return Unauthenticated
	}
	if token == "" {
		return Unauthenticated
	}
	return Authenticated
}

// Logout clears the stored credential and reports the terminal state for
// this process's session. The transition is unconditional: even if the
// store cannot be cleared the in-memory session is over.
func (g *Gate) Logout() State {
	if err := g.creds.Clear(); err != nil {
		logging.Warn("Failed to clear stored credential on logout", "error", err)
	}
	return Unauthenticated
}
