package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/reperto/reperto-cli/api"
	"github.com/reperto/reperto-cli/filter"
	"github.com/reperto/reperto-cli/format"
)

var (
	patientsSearch string
	patientName    string
	patientAge     int
	patientGender  string
	patientPhone   string
)

var patientsCmd = &cobra.Command{
	Use:   "patients",
	Short: "List patients",
	RunE:  runPatients,
}

var patientsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new patient",
	RunE:  runPatientsAdd,
}

func init() {
	patientsCmd.Flags().StringVar(&patientsSearch, "search", "", "filter by name, patient id or phone")
	patientsAddCmd.Flags().StringVar(&patientName, "name", "", "patient name (required)")
	patientsAddCmd.Flags().IntVar(&patientAge, "age", 0, "patient age")
	patientsAddCmd.Flags().StringVar(&patientGender, "gender", "", "patient gender")
	patientsAddCmd.Flags().StringVar(&patientPhone, "phone", "", "contact phone")
	patientsAddCmd.MarkFlagRequired("name")
	patientsCmd.AddCommand(patientsAddCmd)
}

func runPatients(cmd *cobra.Command, args []string) error {
	if err := theApp.requireAuth(); err != nil {
		return err
	}

	patients, err := theApp.client.Patients(cmd.Context())
	if err != nil {
		return err
	}
	patients = filter.Patients(patients, patientsSearch)
	if len(patients) == 0 {
		fmt.Println("No patients found.")
		return nil
	}

	now := time.Now()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPATIENT\tNAME\tAGE\tPHONE\tADDED")
	for _, p := range patients {
		phone := p.Phone
		if phone == "" {
			phone = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s %s\t%d\t%s\t%s\n",
			p.ID, p.PatientID, format.Initials(p.Name), p.Name, p.Age, phone,
			format.RelativeAge(p.CreatedAt, now))
	}
	return w.Flush()
}

func runPatientsAdd(cmd *cobra.Command, args []string) error {
	if err := theApp.requireAuth(); err != nil {
		return err
	}

	patient, err := theApp.client.CreatePatient(cmd.Context(), api.PatientCreate{
		Name:   patientName,
		Age:    patientAge,
		Gender: patientGender,
		Phone:  patientPhone,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created %s (%s)\n", patient.Name, patient.PatientID)
	return nil
}
