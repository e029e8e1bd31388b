package stub

import (
	"time"

	"github.com/reperto/reperto-cli/api"
	"github.com/reperto/reperto-cli/logging"
)

// DemoEmail and DemoPassword are the seeded login printed at startup.
const (
	DemoEmail    = "doctor@reperto.dev"
	DemoPassword = "reperto"
)

// Seed rebuilds the store with the demo clinician, patients and cases. The
// case timestamps are staggered relative to now so every relative-age bucket
// appears in the list view; rerunning Seed refreshes them.
func Seed(store *Store) {
	now := time.Now().UTC()

	store.Replace(func(s *snapshot) {
		user := api.User{ID: 1, Name: "Demo Richter", Email: DemoEmail, CreatedAt: now.Add(-90 * 24 * time.Hour)}
		s.accounts[DemoEmail] = account{User: user, Password: DemoPassword}
		s.nextUserID = 2

		patients := []api.PatientSummary{
			{ID: 1, PatientID: publicID("PT"), Name: "Anna Keller", Age: 34, Gender: "female", Phone: "555-0101", CreatedAt: now.Add(-60 * 24 * time.Hour)},
			{ID: 2, PatientID: publicID("PT"), Name: "Pavel Horak", Age: 47, Gender: "male", MedicalHistory: "hypertension", CreatedAt: now.Add(-45 * 24 * time.Hour)},
			{ID: 3, PatientID: publicID("PT"), Name: "José Gonçalves", Age: 29, Gender: "male", Phone: "555-0144", CreatedAt: now.Add(-20 * 24 * time.Hour)},
		}
		s.patients = patients
		for _, p := range patients {
			s.patientOwner[p.ID] = user.ID
		}
		s.nextPatientID = 4

		cases := []api.CaseSummary{
			{
				ID: 1, CaseID: publicID("CASE"), Title: "Recurring night headaches",
				Complaint: "Throbbing headache, worse at night, wakes at 3am, irritable during the day.",
				PatientID: 1, PatientName: "Anna Keller", Status: "open",
				CreatedAt: now.Add(-10 * time.Minute),
			},
			{
				ID: 2, CaseID: publicID("CASE"), Title: "Digestive upset with anxiety",
				Complaint: "Nausea after meals, anxious and restless in the evening, great thirst.",
				PatientID: 2, PatientName: "Pavel Horak", Status: "open",
				CreatedAt: now.Add(-3 * time.Hour),
			},
			{
				ID: 3, CaseID: publicID("CASE"), Title: "Itching skin eruption",
				Complaint: "Itching rash on both forearms, worse from heat, disturbed sleep.",
				PatientID: 3, PatientName: "José Gonçalves", Status: "open",
				CreatedAt: now.Add(-26 * time.Hour),
			},
			{
				ID: 4, CaseID: publicID("CASE"), Title: "Seasonal cough",
				Complaint: "Dry cough with chest oppression, mild fever in the evening.",
				PatientID: 2, PatientName: "Pavel Horak", Status: "open",
				CreatedAt: now.Add(-4 * 24 * time.Hour),
			},
			{
				ID: 5, CaseID: publicID("CASE"), Title: "Sleeplessness after travel",
				Complaint: "Cannot fall asleep before 2am, restless, irritable in the morning.",
				PatientID: 1, PatientName: "Anna Keller", Status: "open",
				CreatedAt: now.Add(-15 * 24 * time.Hour),
			},
		}
		s.cases = cases
		for _, c := range cases {
			s.caseOwner[c.ID] = user.ID
		}
		s.nextCaseID = 6
	})

	// Pre-analyze one case so reopening it lands on the ranked view.
	var ai Analyzer
	result := ai.ParseText("Nausea after meals, anxious and restless in the evening, great thirst.")
	if _, err := store.ApplyAnalysis(1, 2, result, ai.RemediesFor(result.Rubrics)); err != nil {
		logging.Warn("Failed to pre-analyze seeded case", "error", err)
	}

	users, patients, cases := store.Counts()
	logging.Info("Demo data seeded", "users", users, "patients", patients, "cases", cases)
}
