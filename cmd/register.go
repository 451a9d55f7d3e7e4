package cmd

import (
	"github.com/spf13/cobra"
)

var registerName, registerEmail, registerPassword string

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a story account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateRegistration(registerName, registerEmail, registerPassword); err != nil {
			return err
		}

		ch := application.Users.Register(cmd.Context(), registerName, registerEmail, registerPassword)
		resp, err := awaitResult(cmd, ch, "registering")
		if err != nil {
			return err
		}
		cmd.Println(resp.Message)
		cmd.Println("Run 'storyapp login' to sign in.")
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerName, "name", "", "display name")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "email address")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "password (at least 8 characters)")
	_ = registerCmd.MarkFlagRequired("name")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(registerCmd)
}
