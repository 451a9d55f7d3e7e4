package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// DefaultBaseURL is the story API used when no config overrides it.
const DefaultBaseURL = "https://story-api.dicoding.dev/v1/"

// Config holds all configurable storyapp settings.
type Config struct {
	BaseURL        string `json:"base_url"`
	Debug          bool   `json:"debug"`           // verbose HTTP diagnostics + console logs
	PicturesDir    string `json:"pictures_dir"`    // where pending images are written
	CaptureCommand string `json:"capture_command"` // e.g. "fswebcam --no-banner {path}"
	KeepImages     bool   `json:"keep_images"`     // keep temp images after a successful upload
	RequestTimeout int    `json:"request_timeout_seconds"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		RequestTimeout: 30,
	}
}

// Timeout returns the HTTP client timeout.
func (c Config) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeout) * time.Second
}

// GlobalPath returns the location of the global config file.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "storyapp", "config.json"), nil
}

// LoadGlobal reads ~/.config/storyapp/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads .storyappconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".storyappconfig", false)
}

// SaveGlobal writes cfg to the global config file, creating its directory.
func SaveGlobal(cfg *Config) error {
	path, err := GlobalPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults. Boolean switches are
// enabled when either layer enables them.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, layer := range []*Config{global, project} {
		if layer == nil {
			continue
		}
		if layer.BaseURL != "" {
			result.BaseURL = layer.BaseURL
		}
		if layer.PicturesDir != "" {
			result.PicturesDir = layer.PicturesDir
		}
		if layer.CaptureCommand != "" {
			result.CaptureCommand = layer.CaptureCommand
		}
		if layer.RequestTimeout > 0 {
			result.RequestTimeout = layer.RequestTimeout
		}
		result.Debug = result.Debug || layer.Debug
		result.KeepImages = result.KeepImages || layer.KeepImages
	}
	return result
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
