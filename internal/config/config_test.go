package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// Config merge precedence: project over global over defaults.
func TestConfigMergePrecedence(t *testing.T) {
	nonEmptyString := rapid.StringMatching(`[a-zA-Z0-9/_.:-]{1,20}`)

	configGen := rapid.Custom(func(t *rapid.T) *Config {
		cfg := &Config{}
		if rapid.Bool().Draw(t, "hasBaseURL") {
			cfg.BaseURL = nonEmptyString.Draw(t, "baseURL")
		}
		if rapid.Bool().Draw(t, "hasPicturesDir") {
			cfg.PicturesDir = nonEmptyString.Draw(t, "picturesDir")
		}
		if rapid.Bool().Draw(t, "hasCaptureCommand") {
			cfg.CaptureCommand = nonEmptyString.Draw(t, "captureCommand")
		}
		cfg.Debug = rapid.Bool().Draw(t, "debug")
		cfg.KeepImages = rapid.Bool().Draw(t, "keepImages")
		return cfg
	})

	rapid.Check(t, func(t *rapid.T) {
		global := configGen.Draw(t, "global")
		project := configGen.Draw(t, "project")

		merged := Merge(global, project)
		defaults := Defaults()

		checkStringField(t, "BaseURL",
			global.BaseURL, project.BaseURL, defaults.BaseURL, merged.BaseURL)
		checkStringField(t, "PicturesDir",
			global.PicturesDir, project.PicturesDir, defaults.PicturesDir, merged.PicturesDir)
		checkStringField(t, "CaptureCommand",
			global.CaptureCommand, project.CaptureCommand, defaults.CaptureCommand, merged.CaptureCommand)

		if merged.Debug != (global.Debug || project.Debug) {
			t.Fatalf("Debug: got %v with global=%v project=%v", merged.Debug, global.Debug, project.Debug)
		}
		if merged.KeepImages != (global.KeepImages || project.KeepImages) {
			t.Fatalf("KeepImages: got %v with global=%v project=%v", merged.KeepImages, global.KeepImages, project.KeepImages)
		}
	})
}

// checkStringField asserts the merge precedence rule for a single string field:
//   - project non-empty  → merged == project
//   - project empty, global non-empty → merged == global
//   - both empty → merged == defaultVal
func checkStringField(t *rapid.T, name, globalVal, projectVal, defaultVal, mergedVal string) {
	t.Helper()
	switch {
	case projectVal != "":
		if mergedVal != projectVal {
			t.Fatalf("%s: both set — expected project value %q, got %q", name, projectVal, mergedVal)
		}
	case globalVal != "":
		if mergedVal != globalVal {
			t.Fatalf("%s: only global set — expected global value %q, got %q", name, globalVal, mergedVal)
		}
	default:
		if mergedVal != defaultVal {
			t.Fatalf("%s: neither set — expected default %q, got %q", name, defaultVal, mergedVal)
		}
	}
}

func TestDefaultsValues(t *testing.T) {
	d := Defaults()
	if d.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL: want %q, got %q", DefaultBaseURL, d.BaseURL)
	}
	if d.Debug {
		t.Error("Debug: want false by default")
	}
	if got := d.Timeout(); got != 30*time.Second {
		t.Errorf("Timeout: want 30s, got %v", got)
	}
}

func TestLoadGlobalMissingFileReturnsDefaults(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config, got nil")
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL: want %q, got %q", DefaultBaseURL, cfg.BaseURL)
	}
}

func TestSaveGlobalThenLoad(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	want := &Config{BaseURL: "http://localhost:9000/", Debug: true, RequestTimeout: 5}
	if err := SaveGlobal(want); err != nil {
		t.Fatalf("SaveGlobal: %v", err)
	}
	got, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if *got != *want {
		t.Errorf("round trip: got %+v, want %+v", *got, *want)
	}
}

func TestLoadProjectMissingFileReturnsNil(t *testing.T) {
	tmp := t.TempDir()
	chdirForTest(t, tmp)

	cfg, err := LoadProject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config, got %+v", cfg)
	}
}

func TestLoadGlobalParseError(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfgDir := filepath.Join(tmp, ".config", "storyapp")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte("{invalid json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadGlobal()
	if err == nil {
		t.Fatal("expected an error for invalid JSON, got nil")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected *ParseError, got %T: %v", err, err)
	}
}

// chdirForTest changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent to testing.T.Chdir from Go 1.24).
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("chdir: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("chdir: %v", err)
		}
	})
}
