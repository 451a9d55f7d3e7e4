package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/storyapp/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure storyapp (re-run anytime to edit settings)",
	// Bypass the normal PersistentPreRunE so setup works with a broken config.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(cmd)
	},
}

// runSetup runs the interactive setup wizard and writes the global config.
func runSetup(cmd *cobra.Command) error {
	existing := config.Defaults()
	if global, err := config.LoadGlobal(); err == nil {
		existing = *global
	}

	updated, err := config.RunSetup(cmd.InOrStdin(), cmd.OutOrStdout(), existing)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	if err := config.SaveGlobal(updated); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	path, _ := config.GlobalPath()
	fmt.Fprintf(cmd.OutOrStdout(), "  ✓ Config saved to %s\n", path)
	fmt.Fprintln(cmd.OutOrStdout(), "  Setup complete. Run 'storyapp login' to sign in.")
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
