package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/storyapp/internal/api"
	"github.com/fakeyudi/storyapp/internal/feed"
	"github.com/fakeyudi/storyapp/internal/tui"
)

var (
	storiesFormat string
	storiesPlain  bool
)

var storiesCmd = &cobra.Command{
	Use:   "stories",
	Short: "Browse the story feed",
	Long: `Browse the story feed.

On a terminal the feed opens in an interactive viewer. Use --plain or
--format to print it instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLogin(); err != nil {
			return err
		}

		if storiesFormat == "" && !storiesPlain && stdoutIsTerminal(cmd) {
			return runViewer(cmd.Context())
		}

		stories, err := fetchStories(cmd)
		if err != nil {
			return err
		}
		r, err := feed.ForFormat(storiesFormat, stdoutIsTerminal(cmd))
		if err != nil {
			return err
		}
		out, err := r.Render(stories)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var storiesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one story in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLogin(); err != nil {
			return err
		}

		stories, err := fetchStories(cmd)
		if err != nil {
			return err
		}
		st, ok := feed.Find(stories, args[0])
		if !ok {
			return fmt.Errorf("story %q not found", args[0])
		}
		r, err := feed.ForFormat(storiesFormat, stdoutIsTerminal(cmd))
		if err != nil {
			return err
		}
		out, err := r.RenderStory(st)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func fetchStories(cmd *cobra.Command) ([]api.Story, error) {
	resp, err := awaitResult(cmd, application.Stories.ListStories(cmd.Context()), "loading stories")
	if err != nil {
		return nil, err
	}
	return resp.ListStory, nil
}

// runViewer opens the interactive feed. It quits on its own when the
// session is cleared, including by another storyapp process.
func runViewer(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := application.Sessions.Watch(ctx); err != nil {
			application.Log.Warn("session watch stopped", zap.Error(err))
		}
	}()

	err := tui.Run(ctx, application.Stories.ListStories, application.Sessions.Subscribe(ctx))
	if errors.Is(err, tui.ErrLoggedOut) {
		return errNotLoggedIn
	}
	return err
}

// stdoutIsTerminal reports whether the command writes to an interactive
// terminal.
func stdoutIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

func init() {
	storiesCmd.PersistentFlags().StringVar(&storiesFormat, "format", "", "print as plain, markdown or json")
	storiesCmd.Flags().BoolVar(&storiesPlain, "plain", false, "print the feed instead of opening the viewer")
	storiesCmd.AddCommand(storiesShowCmd)
	rootCmd.AddCommand(storiesCmd)
}
