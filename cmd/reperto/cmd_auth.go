package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reperto/reperto-cli/format"
	"github.com/reperto/reperto-cli/logging"
)

var (
	authEmail    string
	authPassword string
	authName     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the access token",
	Long: `Authenticate against the backend and store the access token under the
state directory. Email and password are read from flags or prompted for.`,
	RunE: runLogin,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and log in",
	RunE:  runSignup,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored credential",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in profile",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVar(&authEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&authPassword, "password", "", "account password (prompted when omitted)")
	signupCmd.Flags().StringVar(&authName, "name", "", "display name")
	signupCmd.Flags().StringVar(&authEmail, "email", "", "account email")
	signupCmd.Flags().StringVar(&authPassword, "password", "", "account password (prompted when omitted)")
}

// prompt reads one line from stdin with a label. Used for values not passed
// as flags.
func prompt(label string) (string, error) {
	fmt.Print(label + ": ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptMissing(value *string, label string) error {
	if *value != "" {
		return nil
	}
	read, err := prompt(label)
	if err != nil {
		return err
	}
	*value = read
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	if err := promptMissing(&authEmail, "Email"); err != nil {
		return err
	}
	if err := promptMissing(&authPassword, "Password"); err != nil {
		return err
	}

	tok, err := theApp.client.Login(cmd.Context(), authEmail, authPassword)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := theApp.store.Save(tok.AccessToken); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}

	logging.Info("Logged in", "email", authEmail)
	fmt.Printf("Logged in as %s (%s)\n", tok.User.Name, tok.User.Email)
	return nil
}

func runSignup(cmd *cobra.Command, args []string) error {
	if err := promptMissing(&authName, "Name"); err != nil {
		return err
	}
	if err := promptMissing(&authEmail, "Email"); err != nil {
		return err
	}
	if err := promptMissing(&authPassword, "Password"); err != nil {
		return err
	}

	tok, err := theApp.client.Signup(cmd.Context(), authName, authEmail, authPassword)
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}
	if err := theApp.store.Save(tok.AccessToken); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}

	fmt.Printf("Account created. Logged in as %s\n", tok.User.Email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	theApp.gate.Logout()
	fmt.Println("Logged out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	if err := theApp.requireAuth(); err != nil {
		return err
	}

	user, err := theApp.client.Me(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("%s  %s <%s>\n", format.Initials(user.Name), user.Name, user.Email)
	fmt.Printf("Member since %s\n", user.CreatedAt.Format("Jan 2, 2006"))
	return nil
}
