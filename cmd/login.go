package cmd

import (
	"github.com/spf13/cobra"
)

var loginEmail, loginPassword string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and remember the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateLogin(loginEmail, loginPassword); err != nil {
			return err
		}

		ch := application.Users.Login(cmd.Context(), loginEmail, loginPassword)
		resp, err := awaitResult(cmd, ch, "logging in")
		if err != nil {
			return err
		}
		name := loginEmail
		if resp.LoginResult != nil && resp.LoginResult.Name != "" {
			name = resp.LoginResult.Name
		}
		cmd.Printf("Logged in as %s\n", name)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := application.Users.Logout(); err != nil {
			return err
		}
		cmd.Println("Logged out")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "email address")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
