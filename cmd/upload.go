package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/storyapp/internal/picture"
	"github.com/fakeyudi/storyapp/internal/repository"
)

var (
	uploadDescription string
	uploadPhoto       string
	uploadCamera      bool
)

var errBlankDescription = errors.New("description must not be empty")

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Post a new story from a photo file or the camera",
	Example: `  storyapp upload --photo ~/Pictures/beach.jpg --description "Sunset"
  storyapp upload --camera --description "Right now"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLogin(); err != nil {
			return err
		}
		if strings.TrimSpace(uploadDescription) == "" {
			return errBlankDescription
		}
		if uploadPhoto == "" && !uploadCamera {
			return fmt.Errorf("%w: pass --photo <file> or --camera", repository.ErrNoImage)
		}

		pending, err := acquire(cmd)
		if err != nil {
			return err
		}

		err = upload(cmd, pending)
		if err == nil && application.Config.KeepImages {
			cmd.Printf("Kept %s\n", pending.Reduced)
			return nil
		}
		if derr := pending.Discard(); derr != nil {
			application.Log.Warn("discarding upload images", zap.Error(derr))
		}
		return err
	},
}

// acquire copies or captures the source image and reduces it. Any file
// already written is discarded on failure.
func acquire(cmd *cobra.Command) (picture.Pending, error) {
	ctx := cmd.Context()
	pics := application.Pictures

	var raw string
	var err error
	if uploadCamera {
		raw, err = pics.Capture(ctx, application.Config.CaptureCommand)
	} else {
		raw, err = pics.ImportFile(ctx, uploadPhoto)
	}
	if err != nil {
		return picture.Pending{}, fmt.Errorf("%w: %v", repository.ErrNoImage, err)
	}

	pending, err := pics.Prepare(ctx, raw)
	if err != nil {
		_ = pending.Discard()
		if errors.Is(err, picture.ErrDecode) {
			return picture.Pending{}, fmt.Errorf("upload aborted: %w", err)
		}
		return picture.Pending{}, err
	}
	return pending, nil
}

func upload(cmd *cobra.Command, pending picture.Pending) error {
	req, err := repository.NewUploadRequest(pending.Reduced, uploadDescription)
	if err != nil {
		return err
	}
	resp, err := awaitResult(cmd, application.Stories.UploadStory(cmd.Context(), req), "uploading")
	if err != nil {
		return err
	}
	cmd.Println(resp.Message)
	return nil
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadDescription, "description", "d", "", "story caption")
	uploadCmd.Flags().StringVar(&uploadPhoto, "photo", "", "image file to upload")
	uploadCmd.Flags().BoolVar(&uploadCamera, "camera", false, "capture a new photo with the configured capture_command")
	uploadCmd.MarkFlagsMutuallyExclusive("photo", "camera")
	rootCmd.AddCommand(uploadCmd)
}
