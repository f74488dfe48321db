package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/shiksha/pkg/portal"
)

var (
	authEmail    string
	authPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the credential",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := rt.Service().Login(cmd.Context(), portal.Credentials{Email: authEmail, Password: authPassword}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Login successful")
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := rt.Service().Register(cmd.Context(), portal.Credentials{Email: authEmail, Password: authPassword}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Registration successful, please log in")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored credential",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := rt.Service().Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a credential is stored",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := rt.Credentials().Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("read credential status: %w", err)
		}
		out := map[string]any{"logged_in": st.Present}
		if !st.ExpiresAt.IsZero() {
			out["expires_at"] = st.ExpiresAt.UTC().Format(time.RFC3339)
		}
		return writeJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "Account email")
		c.Flags().StringVar(&authPassword, "password", "", "Account password")
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(logoutCmd, statusCmd)
}
