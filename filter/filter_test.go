package filter

import (
	"reflect"
	"testing"

	"github.com/reperto/reperto-cli/api"
)

type record struct {
	Name  string
	Title string
}

func recordFields(r record) []string { return []string{r.Name, r.Title} }

func TestMatchSubstringAcrossFields(t *testing.T) {
	records := []record{
		{Name: "Anna", Title: "Flu"},
		{Name: "Bruno", Title: "Back pain"},
		{Name: "Carla", Title: "Anxiety"},
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"case-insensitive match in name", "an", []string{"Anna", "Carla"}},
		{"match in second field", "flu", []string{"Anna"}},
		{"no match", "zzz", []string{}},
		{"empty query is identity", "", []string{"Anna", "Bruno", "Carla"}},
		{"whitespace query is identity", "   ", []string{"Anna", "Bruno", "Carla"}},
		{"uppercase query", "BACK", []string{"Bruno"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(records, tt.query, recordFields)
			names := make([]string, 0, len(got))
			for _, r := range got {
				names = append(names, r.Name)
			}
			if !reflect.DeepEqual(names, tt.want) {
				t.Errorf("Match(%q) = %v, want %v", tt.query, names, tt.want)
			}
		})
	}
}

func TestMatchSkipsEmptyFields(t *testing.T) {
	records := []record{{Name: "", Title: "Flu"}}

	// The empty Name must not be treated as containing the query.
	if got := Match(records, "a", recordFields); len(got) != 0 {
		t.Errorf("Expected no matches, got %v", got)
	}
	// But the record is still reachable through its non-empty field.
	if got := Match(records, "flu", recordFields); len(got) != 1 {
		t.Errorf("Expected one match, got %v", got)
	}
}

func TestMatchIsStableAndNonMutating(t *testing.T) {
	records := []record{
		{Name: "Ana Maria"}, {Name: "Mariana"}, {Name: "Omar"}, {Name: "Marta"},
	}
	original := make([]record, len(records))
	copy(original, records)

	got := Match(records, "mar", recordFields)
	wantOrder := []string{"Ana Maria", "Mariana", "Omar", "Marta"}
	for i, r := range got {
		if r.Name != wantOrder[i] {
			t.Errorf("Position %d: got %q, want %q", i, r.Name, wantOrder[i])
		}
	}
	if !reflect.DeepEqual(records, original) {
		t.Error("Input slice was mutated")
	}
}

func TestMatchFoldsDiacritics(t *testing.T) {
	records := []record{{Name: "José Gonçalves"}, {Name: "Renee"}}

	if got := Match(records, "jose", recordFields); len(got) != 1 || got[0].Name != "José Gonçalves" {
		t.Errorf("Expected accent-insensitive match, got %v", got)
	}
	if got := Match(records, "renée", recordFields); len(got) != 1 || got[0].Name != "Renee" {
		t.Errorf("Expected accented query to match plain record, got %v", got)
	}
}

func TestCasesAndPatientsWrappers(t *testing.T) {
	cases := []api.CaseSummary{
		{Title: "Chronic migraine", PatientName: "Anna K", Status: "analyzed"},
		{Title: "Insomnia", PatientName: "Pavel", Status: "open"},
	}
	if got := Cases(cases, "anna"); len(got) != 1 || got[0].Title != "Chronic migraine" {
		t.Errorf("Cases filter on patient name failed: %v", got)
	}
	if got := Cases(cases, "analyzed"); len(got) != 1 {
		t.Errorf("Cases filter on status failed: %v", got)
	}

	patients := []api.PatientSummary{
		{Name: "Anna K", PatientID: "PT-12AB34CD", Phone: "555-0101"},
		{Name: "Pavel", PatientID: "PT-99FF00AA"},
	}
	if got := Patients(patients, "99ff"); len(got) != 1 || got[0].Name != "Pavel" {
		t.Errorf("Patients filter on patient id failed: %v", got)
	}
	// Pavel has no phone; the absent field must be skipped, not an error.
	if got := Patients(patients, "555"); len(got) != 1 || got[0].Name != "Anna K" {
		t.Errorf("Patients filter on phone failed: %v", got)
	}
}
