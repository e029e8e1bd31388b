package stub

import (
	"errors"
	"testing"

	"github.com/reperto/reperto-cli/api"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	Seed(store)
	return store
}

func TestStoreScopesRecordsByUser(t *testing.T) {
	store := seededStore(t)

	other, err := store.CreateUser("Other", "other@reperto.dev", "pw")
	if err != nil {
		t.Fatal(err)
	}

	if got := store.Cases(other.ID, 0); len(got) != 0 {
		t.Errorf("New user sees %d foreign cases", len(got))
	}
	if got := store.Patients(other.ID); len(got) != 0 {
		t.Errorf("New user sees %d foreign patients", len(got))
	}
	if _, err := store.Case(other.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for foreign case, got %v", err)
	}
	if _, err := store.CreateCase(other.ID, api.CaseCreate{Title: "X", PatientID: 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound creating case on foreign patient, got %v", err)
	}
}

func TestStoreDuplicateEmailRejected(t *testing.T) {
	store := seededStore(t)

	if _, err := store.CreateUser("Dup", DemoEmail, "pw"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken, got %v", err)
	}
	// Email comparison is case-insensitive.
	if _, err := store.CreateUser("Dup", "DOCTOR@reperto.dev", "pw"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken for mixed-case email, got %v", err)
	}
}

func TestStoreSnapshotIsolation(t *testing.T) {
	store := seededStore(t)

	before := store.Cases(1, 0)
	var ai Analyzer
	result := ai.ParseText("headache at night")
	if _, err := store.ApplyAnalysis(1, 1, result, ai.RemediesFor(result.Rubrics)); err != nil {
		t.Fatal(err)
	}

	// The slice handed out before the write is unchanged.
	for _, c := range before {
		if c.ID == 1 && c.Status != "open" {
			t.Error("Earlier read mutated by later write")
		}
	}
	after := store.Cases(1, 0)
	for _, c := range after {
		if c.ID == 1 && c.Status != "analyzed" {
			t.Error("Write not visible in later read")
		}
	}
}

func TestStoreSessionLifecycle(t *testing.T) {
	store := seededStore(t)

	user, err := store.Authenticate(DemoEmail, DemoPassword)
	if err != nil {
		t.Fatal(err)
	}
	token := store.CreateSession(user.ID)

	resolved, ok := store.UserForToken(token)
	if !ok || resolved.ID != user.ID {
		t.Errorf("Token did not resolve to issuing user")
	}
	if _, ok := store.UserForToken("bogus"); ok {
		t.Error("Unknown token resolved to a user")
	}
}

func TestReseedRefreshesTimestamps(t *testing.T) {
	store := seededStore(t)
	first := store.SeededAt()

	Seed(store)
	if store.SeededAt().Before(first) {
		t.Error("Reseed moved the seed timestamp backwards")
	}

	users, patients, cases := store.Counts()
	if users != 1 || patients != 3 || cases != 5 {
		t.Errorf("Reseed produced unexpected counts: %d users, %d patients, %d cases", users, patients, cases)
	}
}
