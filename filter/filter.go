// Package filter implements the in-memory multi-field search used by the
// case and patient lists. Matching is a case-insensitive and
// diacritic-insensitive substring test; results are a derived view that
// preserves the input order and never mutates the input.
package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/reperto/reperto-cli/api"
)

// foldTransformer strips combining marks so "Hépar" matches "hepar".
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold lowercases and removes diacritics. Transform failures fall back to
// plain lowercasing, which only costs accent-insensitivity.
func fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

// Match returns the records whose fields contain query. fields extracts the
// searchable values from a record; empty values are skipped rather than
// matched. An empty (or whitespace-only) query is the identity filter.
func Match[T any](records []T, query string, fields func(T) []string) []T {
	results := make([]T, 0, len(records))

	query = strings.TrimSpace(query)
	if query == "" {
		results = append(results, records...)
		return results
	}

	needle := fold(query)
	for _, rec := range records {
		for _, field := range fields(rec) {
			if field == "" {
				continue
			}
			if strings.Contains(fold(field), needle) {
				results = append(results, rec)
				break
			}
		}
	}
	return results
}

// Cases filters case summaries on title, patient name, status and public
// case id.
func Cases(cases []api.CaseSummary, query string) []api.CaseSummary {
	return Match(cases, query, func(c api.CaseSummary) []string {
		return []string{c.Title, c.PatientName, c.Status, c.CaseID}
	})
}

// Patients filters patient summaries on name, public patient id and phone.
func Patients(patients []api.PatientSummary, query string) []api.PatientSummary {
	return Match(patients, query, func(p api.PatientSummary) []string {
		return []string{p.Name, p.PatientID, p.Phone}
	})
}
