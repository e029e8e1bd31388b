package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/reperto/reperto-cli/api"
	"github.com/reperto/reperto-cli/filter"
	"github.com/reperto/reperto-cli/format"
	"github.com/reperto/reperto-cli/workflow"
)

var (
	casesLimit   int
	casesSearch  string
	analyzeText  string
	confirmPicks string
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "List cases",
	RunE:  runCases,
}

var caseCmd = &cobra.Command{
	Use:   "case <id>",
	Short: "Show a case with its rubrics and remedies",
	Args:  cobra.ExactArgs(1),
	RunE:  runCase,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <case-id>",
	Short: "Analyze a case complaint and rank remedies",
	Long: `Run the full analysis for a case: the backend extracts rubrics from the
complaint text and ranks remedy candidates. Rubric selection defaults to all
suggestions; pass --rubrics with comma-separated indexes to confirm a subset.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <complaint text>",
	Short: "Get rubric suggestions for a complaint without saving anything",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSuggest,
}

func init() {
	casesCmd.Flags().IntVar(&casesLimit, "limit", 0, "maximum number of cases to fetch")
	casesCmd.Flags().StringVar(&casesSearch, "search", "", "filter by title, patient, status or case id")
	analyzeCmd.Flags().StringVar(&analyzeText, "text", "", "complaint text (defaults to the stored complaint)")
	analyzeCmd.Flags().StringVar(&confirmPicks, "rubrics", "", "comma-separated suggestion indexes to confirm")
}

func runCases(cmd *cobra.Command, args []string) error {
	if err := theApp.requireAuth(); err != nil {
		return err
	}

	cases, err := theApp.client.Cases(cmd.Context(), casesLimit)
	if err != nil {
		return err
	}
	cases = filter.Cases(cases, casesSearch)
	if len(cases) == 0 {
		fmt.Println("No cases found.")
		return nil
	}

	now := time.Now()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPATIENT\tSTATUS\tRISK\tAGE")
	for _, c := range cases {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Title, c.PatientName, c.Status,
			riskLabel(c.RiskLevel), format.RelativeAge(c.CreatedAt, now))
	}
	return w.Flush()
}

// riskLabel renders the risk level with its severity tag for plain output.
func riskLabel(level string) string {
	if level == "" {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", level, format.RiskTag(level))
}

func runCase(cmd *cobra.Command, args []string) error {
	if err := theApp.requireAuth(); err != nil {
		return err
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("case id must be numeric, got %q", args[0])
	}

	analysis, err := theApp.client.Case(cmd.Context(), id)
	if err != nil {
		return err
	}

	orch := theApp.orchestrator()
	orch.LoadAnalysis(analysis)

	c := analysis.Case
	fmt.Printf("%s  %s\n", c.CaseID, c.Title)
	fmt.Printf("Patient: %s  Status: %s  Opened: %s\n",
		c.PatientName, c.Status, format.RelativeAge(c.CreatedAt, time.Now()))
	if c.Summary != "" {
		fmt.Printf("Summary: %s\n", c.Summary)
	}
	if c.RiskLevel != "" {
		fmt.Printf("Risk: %s\n", riskLabel(c.RiskLevel))
	}
	fmt.Printf("Complaint: %s\n", c.Complaint)

	printSuggestions(orch.Suggestions())

	if orch.State() == workflow.Ranked {
		fmt.Println("\nRemedies:")
		printTopRemedies(orch.Remedies())
	}
	return nil
}

func printSuggestions(suggestions []api.RubricSuggestion) {
	if len(suggestions) == 0 {
		return
	}
	fmt.Println("\nRubric suggestions:")
	for i, s := range suggestions {
		origin := ""
		if s.Local {
			origin = "  [offline fallback]"
		}
		fmt.Printf("  [%d] %s  (%.0f%%)%s\n", i, s.Path, s.Confidence*100, origin)
		if s.Evidence != "" {
			fmt.Printf("      %s\n", s.Evidence)
		}
	}
}

func printTopRemedies(remedies []api.RemedyCandidate) {
	top := workflow.TopRemedies(remedies)
	for i, r := range top {
		fmt.Printf("  %d. %s  %d%%\n", i+1, r.Name, r.Percent)
		if r.Details != "" {
			fmt.Printf("     %s\n", r.Details)
		}
	}
	if rest := len(remedies) - len(top); rest > 0 {
		fmt.Printf("  ... and %d more\n", rest)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := theApp.requireAuth(); err != nil {
		return err
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("case id must be numeric, got %q", args[0])
	}

	text := analyzeText
	if text == "" {
		existing, err := theApp.client.Case(cmd.Context(), id)
		if err != nil {
			return err
		}
		text = existing.Case.Complaint
	}

	orch := theApp.orchestrator()
	orch.BindCase(id)
	if err := orch.Analyze(cmd.Context(), text); err != nil {
		return err
	}

	summary, risk := orch.Summary()
	if summary != "" {
		fmt.Println("Summary:", summary)
	}
	if risk != "" {
		fmt.Println("Risk:", riskLabel(risk))
	}
	printSuggestions(orch.Suggestions())

	selection, err := parseSelection(confirmPicks, len(orch.Suggestions()))
	if err != nil {
		return err
	}
	if _, err := orch.Confirm(selection); err != nil {
		return err
	}
	if err := orch.Rank(); err != nil {
		return err
	}

	fmt.Println("\nConfirmed rubrics:")
	for _, r := range orch.Confirmed() {
		fmt.Printf("  - %s\n", r.Path)
	}
	fmt.Println("\nTop remedies:")
	printTopRemedies(orch.Remedies())
	return nil
}

// parseSelection turns "0,2,3" into indexes; empty selects everything.
func parseSelection(raw string, total int) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		all := make([]int, total)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}

	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		idx, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid rubric index %q", p)
		}
		out = append(out, idx)
	}
	return out, nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	if err := theApp.requireAuth(); err != nil {
		return err
	}

	orch := theApp.orchestrator()
	if err := orch.Suggest(cmd.Context(), strings.Join(args, " ")); err != nil {
		return err
	}

	if state := orch.State(); state == workflow.SuggestionFailed {
		fmt.Println("Suggestion service unreachable, showing an offline fallback.")
	}
	summary, risk := orch.Summary()
	if summary != "" {
		fmt.Println("Summary:", summary)
	}
	if risk != "" {
		fmt.Println("Risk:", riskLabel(risk))
	}
	printSuggestions(orch.Suggestions())
	return nil
}
