// Package app is the composition root: it builds every storyapp service
// once and hands them to the commands that need them.
package app

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fakeyudi/storyapp/internal/api"
	"github.com/fakeyudi/storyapp/internal/config"
	"github.com/fakeyudi/storyapp/internal/logging"
	"github.com/fakeyudi/storyapp/internal/picture"
	"github.com/fakeyudi/storyapp/internal/repository"
	"github.com/fakeyudi/storyapp/internal/session"
)

// LogFileName is the rotating log written under the data directory.
const LogFileName = "storyapp.log"

// Options configures New. Zero values fall back to the real environment.
type Options struct {
	Config    config.Config
	DataDir   string            // defaults to session.DataDir()
	Transport http.RoundTripper // defaults to http.DefaultTransport
	Logger    *zap.Logger       // defaults to the rotating file logger
}

// App holds the wired services for one process.
type App struct {
	Config   config.Config
	Log      *zap.Logger
	Sessions *session.Observable
	Users    *repository.UserRepository
	Stories  *repository.StoryRepository
	Pictures *picture.Pipeline
}

// New wires the session store, HTTP client, repositories and image
// pipeline from opts.
func New(opts Options) (*App, error) {
	dataDir := opts.DataDir
	if dataDir == "" {
		d, err := session.DataDir()
		if err != nil {
			return nil, fmt.Errorf("resolving data dir: %w", err)
		}
		dataDir = d
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = logging.New(filepath.Join(dataDir, LogFileName), cfg.Debug)
	}

	sessions, err := session.Open(dataDir, log.Named("session"))
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	client, err := api.NewClient(api.Options{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout(),
		Debug:     cfg.Debug,
		Transport: opts.Transport,
		Logger:    log.Named("api"),
	}, sessions)
	if err != nil {
		return nil, err
	}

	picturesDir := cfg.PicturesDir
	if picturesDir == "" {
		picturesDir = filepath.Join(dataDir, "Pictures")
	}
	pictures, err := picture.New(picturesDir, log)
	if err != nil {
		return nil, err
	}

	repoLog := log.Named("repository")
	return &App{
		Config:   cfg,
		Log:      log,
		Sessions: sessions,
		Users:    repository.NewUserRepository(client, sessions, repoLog),
		Stories:  repository.NewStoryRepository(client, repoLog),
		Pictures: pictures,
	}, nil
}

// Close flushes buffered log entries.
func (a *App) Close() error {
	// Sync on a console core attached to a terminal reports EINVAL; ignore it.
	_ = a.Log.Sync()
	return nil
}
