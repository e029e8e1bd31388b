// Command reperto is the terminal client for the Reperto case-intake
// backend: clinicians enter a complaint, request symptom-to-rubric
// suggestions, confirm rubrics and view ranked remedy candidates.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/reperto/reperto-cli/api"
	"github.com/reperto/reperto-cli/config"
	"github.com/reperto/reperto-cli/logging"
	"github.com/reperto/reperto-cli/session"
	"github.com/reperto/reperto-cli/workflow"
)

// app bundles the wired client-side services the commands share.
type app struct {
	cfg    *config.Client
	client *api.Client
	store  *session.Store
	gate   *session.Gate
}

var theApp *app

// newApp loads configuration, installs logging and wires the client stack.
func newApp() (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadClient()
	if err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	logging.Init(cfg.LogDir(), logging.ParseLevel(cfg.LogLevel), cfg.LogRetentionWeeks, cfg.MaxLogFileSize)

	store := session.NewStore(cfg.StateDir)
	return &app{
		cfg:    cfg,
		client: api.NewClient(cfg.APIURL, cfg.Timeout, store),
		store:  store,
		gate:   session.NewGate(store),
	}, nil
}

// orchestrator builds a fresh workflow state machine over the API client.
func (a *app) orchestrator() *workflow.Orchestrator {
	return workflow.New(a.client)
}

// requireAuth fails fast when no credential is stored, instead of letting
// the first API call return a 401.
func (a *app) requireAuth() error {
	if a.gate.Check() != session.Authenticated {
		return fmt.Errorf("not logged in, run 'reperto login' first")
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "reperto",
	Short: "Homeopathic case analysis from the terminal",
	Long: `reperto is the terminal client for the Reperto case-intake backend.

Enter a patient complaint, get AI-assisted symptom-to-rubric suggestions,
confirm the rubrics that fit and review ranked remedy candidates.

Run without arguments to start the interactive interface.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		theApp, err = newApp()
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(theApp)
	},
}

func main() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(casesCmd)
	rootCmd.AddCommand(caseCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(patientsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
