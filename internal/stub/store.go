// Package stub is a local development backend implementing the Reperto HTTP
// contract with deterministic data: seeded demo records, a keyword-driven
// analyzer and an in-memory store. It exists so the CLI and TUI can be
// exercised end to end without the hosted service.
package stub

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/reperto/reperto-cli/api"
)

// account is a stored user with its login secret. Only the embedded profile
// ever leaves the store.
type account struct {
	api.User
	Password string
}

// snapshot is one immutable generation of the store's data. Readers load it
// atomically; writers clone, modify and swap.
type snapshot struct {
	accounts map[string]account // by lowercased email
	sessions map[string]int     // bearer token -> user id
	patients []api.PatientSummary
	cases    []api.CaseSummary
	rubrics  map[int][]api.RubricSuggestion
	remedies map[int][]api.RemedyCandidate

	patientOwner map[int]int // patient id -> user id
	caseOwner    map[int]int // case id -> user id

	nextUserID    int
	nextPatientID int
	nextCaseID    int

	seededAt time.Time
}

func emptySnapshot() *snapshot {
	return &snapshot{
		accounts:      make(map[string]account),
		sessions:      make(map[string]int),
		rubrics:       make(map[int][]api.RubricSuggestion),
		remedies:      make(map[int][]api.RemedyCandidate),
		patientOwner:  make(map[int]int),
		caseOwner:     make(map[int]int),
		nextUserID:    1,
		nextPatientID: 1,
		nextCaseID:    1,
	}
}

func (s *snapshot) clone() *snapshot {
	out := &snapshot{
		accounts:      make(map[string]account, len(s.accounts)),
		sessions:      make(map[string]int, len(s.sessions)),
		patients:      make([]api.PatientSummary, len(s.patients)),
		cases:         make([]api.CaseSummary, len(s.cases)),
		rubrics:       make(map[int][]api.RubricSuggestion, len(s.rubrics)),
		remedies:      make(map[int][]api.RemedyCandidate, len(s.remedies)),
		patientOwner:  make(map[int]int, len(s.patientOwner)),
		caseOwner:     make(map[int]int, len(s.caseOwner)),
		nextUserID:    s.nextUserID,
		nextPatientID: s.nextPatientID,
		nextCaseID:    s.nextCaseID,
		seededAt:      s.seededAt,
	}
	for k, v := range s.accounts {
		out.accounts[k] = v
	}
	for k, v := range s.sessions {
		out.sessions[k] = v
	}
	copy(out.patients, s.patients)
	copy(out.cases, s.cases)
	for k, v := range s.rubrics {
		out.rubrics[k] = append([]api.RubricSuggestion(nil), v...)
	}
	for k, v := range s.remedies {
		out.remedies[k] = append([]api.RemedyCandidate(nil), v...)
	}
	for k, v := range s.patientOwner {
		out.patientOwner[k] = v
	}
	for k, v := range s.caseOwner {
		out.caseOwner[k] = v
	}
	return out
}

// Store holds all stub data behind an atomically swapped snapshot, so reads
// never block on writers and a reseed replaces everything in one step.
type Store struct {
	current atomic.Value // *snapshot
	writeMu sync.Mutex
}

func NewStore() *Store {
	st := &Store{}
	st.current.Store(emptySnapshot())
	return st
}

func (st *Store) load() *snapshot {
	return st.current.Load().(*snapshot)
}

// update clones the current snapshot, applies fn and swaps the result in.
func (st *Store) update(fn func(*snapshot) error) error {
	st.writeMu.Lock()
	defer st.writeMu.Unlock()

	next := st.load().clone()
	if err := fn(next); err != nil {
		return err
	}
	st.current.Store(next)
	return nil
}

// Replace swaps in a completely rebuilt snapshot. Used by seeding.
func (st *Store) Replace(fn func(*snapshot)) {
	st.writeMu.Lock()
	defer st.writeMu.Unlock()

	next := emptySnapshot()
	fn(next)
	next.seededAt = time.Now()
	st.current.Store(next)
}

// SeededAt reports when the store was last reseeded.
func (st *Store) SeededAt() time.Time {
	return st.load().seededAt
}

// Counts reports record totals for the health endpoint.
func (st *Store) Counts() (users, patients, cases int) {
	s := st.load()
	return len(s.accounts), len(s.patients), len(s.cases)
}

var (
	ErrEmailTaken         = fmt.Errorf("email already registered")
	ErrInvalidCredentials = fmt.Errorf("invalid email or password")
	ErrNotFound           = fmt.Errorf("not found")
)

// CreateUser registers an account and returns the public profile.
func (st *Store) CreateUser(name, email, password string) (api.User, error) {
	var user api.User
	err := st.update(func(s *snapshot) error {
		key := strings.ToLower(email)
		if _, exists := s.accounts[key]; exists {
			return ErrEmailTaken
		}
		user = api.User{
			ID:        s.nextUserID,
			Name:      name,
			Email:     email,
			CreatedAt: time.Now().UTC(),
		}
		s.nextUserID++
		s.accounts[key] = account{User: user, Password: password}
		return nil
	})
	return user, err
}

// Authenticate checks a login and returns the matching profile.
func (st *Store) Authenticate(email, password string) (api.User, error) {
	s := st.load()
	acct, ok := s.accounts[strings.ToLower(email)]
	if !ok || acct.Password != password {
		return api.User{}, ErrInvalidCredentials
	}
	return acct.User, nil
}

// CreateSession issues a bearer token for the user.
func (st *Store) CreateSession(userID int) string {
	token := uuid.NewString()
	st.update(func(s *snapshot) error {
		s.sessions[token] = userID
		return nil
	})
	return token
}

// UserForToken resolves a bearer token to a profile.
func (st *Store) UserForToken(token string) (api.User, bool) {
	s := st.load()
	userID, ok := s.sessions[token]
	if !ok {
		return api.User{}, false
	}
	for _, acct := range s.accounts {
		if acct.ID == userID {
			return acct.User, true
		}
	}
	return api.User{}, false
}

// CreatePatient stores a patient owned by userID with a generated public id.
func (st *Store) CreatePatient(userID int, in api.PatientCreate) (api.PatientSummary, error) {
	var patient api.PatientSummary
	err := st.update(func(s *snapshot) error {
		patient = api.PatientSummary{
			ID:             s.nextPatientID,
			PatientID:      publicID("PT"),
			Name:           in.Name,
			Age:            in.Age,
			Gender:         in.Gender,
			Phone:          in.Phone,
			Address:        in.Address,
			MedicalHistory: in.MedicalHistory,
			CreatedAt:      time.Now().UTC(),
		}
		s.nextPatientID++
		s.patients = append(s.patients, patient)
		s.patientOwner[patient.ID] = userID
		return nil
	})
	return patient, err
}

// Patients lists the user's patients, newest first.
func (st *Store) Patients(userID int) []api.PatientSummary {
	s := st.load()
	out := make([]api.PatientSummary, 0, len(s.patients))
	for _, p := range s.patients {
		if s.patientOwner[p.ID] == userID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Patient returns one of the user's patients by numeric id.
func (st *Store) Patient(userID, id int) (api.PatientSummary, error) {
	s := st.load()
	if s.patientOwner[id] != userID {
		return api.PatientSummary{}, ErrNotFound
	}
	for _, p := range s.patients {
		if p.ID == id {
			return p, nil
		}
	}
	return api.PatientSummary{}, ErrNotFound
}

// CreateCase stores a case owned by userID against one of their patients.
func (st *Store) CreateCase(userID int, in api.CaseCreate) (api.CaseSummary, error) {
	var cs api.CaseSummary
	err := st.update(func(s *snapshot) error {
		if s.patientOwner[in.PatientID] != userID {
			return ErrNotFound
		}
		var patientName string
		for _, p := range s.patients {
			if p.ID == in.PatientID {
				patientName = p.Name
				break
			}
		}
		cs = api.CaseSummary{
			ID:          s.nextCaseID,
			CaseID:      publicID("CASE"),
			Title:       in.Title,
			Complaint:   in.Complaint,
			PatientID:   in.PatientID,
			PatientName: patientName,
			Status:      "open",
			CreatedAt:   time.Now().UTC(),
		}
		s.nextCaseID++
		s.cases = append(s.cases, cs)
		s.caseOwner[cs.ID] = userID
		return nil
	})
	return cs, err
}

// Cases lists the user's cases, newest first, truncated to limit when
// limit is positive.
func (st *Store) Cases(userID, limit int) []api.CaseSummary {
	s := st.load()
	out := make([]api.CaseSummary, 0, len(s.cases))
	for _, c := range s.cases {
		if s.caseOwner[c.ID] == userID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Case returns the full analysis payload for one of the user's cases, with
// remedies ordered by descending percentage.
func (st *Store) Case(userID, id int) (api.CaseAnalysis, error) {
	s := st.load()
	if s.caseOwner[id] != userID {
		return api.CaseAnalysis{}, ErrNotFound
	}
	for _, c := range s.cases {
		if c.ID == id {
			remedies := append([]api.RemedyCandidate(nil), s.remedies[id]...)
			sort.SliceStable(remedies, func(i, j int) bool {
				return remedies[i].Percentage > remedies[j].Percentage
			})
			return api.CaseAnalysis{
				Case:     c,
				Rubrics:  append([]api.RubricSuggestion(nil), s.rubrics[id]...),
				Remedies: remedies,
			}, nil
		}
	}
	return api.CaseAnalysis{}, ErrNotFound
}

// ApplyAnalysis records an analysis outcome on a case: summary and risk on
// the case row, rubrics and remedies replacing prior ones, status moved to
// analyzed.
func (st *Store) ApplyAnalysis(userID, id int, result api.ParseResult, remedies []api.RemedyCandidate) (api.CaseAnalysis, error) {
	err := st.update(func(s *snapshot) error {
		if s.caseOwner[id] != userID {
			return ErrNotFound
		}
		for i := range s.cases {
			if s.cases[i].ID == id {
				now := time.Now().UTC()
				s.cases[i].Summary = result.Summary
				s.cases[i].RiskLevel = result.Risk
				s.cases[i].Status = "analyzed"
				s.cases[i].UpdatedAt = &now
				s.rubrics[id] = append([]api.RubricSuggestion(nil), result.Rubrics...)
				s.remedies[id] = append([]api.RemedyCandidate(nil), remedies...)
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return api.CaseAnalysis{}, err
	}
	return st.Case(userID, id)
}

// publicID builds a human-facing identifier like CASE-3F2A9B01.
func publicID(prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(hex[:8]))
}
