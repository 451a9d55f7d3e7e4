package cmd

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := application.Users.Session()
		if !s.IsLogin {
			cmd.Println("not logged in")
		} else {
			cmd.Printf("Logged in as: %s\n", s.Email)
		}
		cmd.Printf("API: %s\n", cfg.BaseURL)
		cmd.Printf("Pictures: %s\n", application.Pictures.Dir())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
