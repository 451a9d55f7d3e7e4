package repository

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/fakeyudi/storyapp/internal/api"
	"github.com/fakeyudi/storyapp/internal/output"
)

// ErrNoImage rejects an upload before any network call when no image was
// selected.
var ErrNoImage = errors.New("no image selected")

// UploadRequest is a validated upload: the file exists and is readable.
type UploadRequest struct {
	ImageFile   string
	Description string
}

// NewUploadRequest builds a request for imageFile, rejecting an empty path
// or a missing file with ErrNoImage.
func NewUploadRequest(imageFile, description string) (UploadRequest, error) {
	if imageFile == "" {
		return UploadRequest{}, ErrNoImage
	}
	info, err := os.Stat(imageFile)
	if err != nil || info.IsDir() {
		return UploadRequest{}, ErrNoImage
	}
	return UploadRequest{ImageFile: imageFile, Description: description}, nil
}

// StoryRepository lists and uploads stories. Nothing is cached.
type StoryRepository struct {
	api api.Service
	log *zap.Logger
}

func NewStoryRepository(svc api.Service, log *zap.Logger) *StoryRepository {
	return &StoryRepository{api: svc, log: log.Named("story")}
}

func (r *StoryRepository) ListStories(ctx context.Context) <-chan output.Output[*api.StoryResponse] {
	return run(ctx, r.log, "list_stories", r.api.ListStories)
}

func (r *StoryRepository) UploadStory(ctx context.Context, req UploadRequest) <-chan output.Output[*api.UploadResponse] {
	return run(ctx, r.log, "upload_story", func(ctx context.Context) (*api.UploadResponse, error) {
		return r.api.UploadStory(ctx, req.ImageFile, req.Description)
	})
}
