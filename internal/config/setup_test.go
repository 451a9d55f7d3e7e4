package config

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSetupKeepsDefaultsOnEmptyAnswers(t *testing.T) {
	existing := Config{
		BaseURL:        "https://story.test/v1/",
		PicturesDir:    "/tmp/pics",
		CaptureCommand: "snap {path}",
		KeepImages:     true,
		RequestTimeout: 12,
	}
	in := strings.NewReader(strings.Repeat("\n", 6))
	var out bytes.Buffer

	got, err := RunSetup(in, &out, existing)
	require.NoError(t, err)
	assert.Equal(t, existing, *got)
	assert.Contains(t, out.String(), "Story API base URL [https://story.test/v1/]")
}

func TestRunSetupAppliesAnswers(t *testing.T) {
	answers := strings.Join([]string{
		"http://localhost:8080/v1/",
		"/data/pics",
		"fswebcam --no-banner {path}",
		"yes",
		"45",
		"n",
	}, "\n") + "\n"
	var out bytes.Buffer

	got, err := RunSetup(strings.NewReader(answers), &out, Config{})
	require.NoError(t, err)
	assert.Equal(t, Config{
		BaseURL:        "http://localhost:8080/v1/",
		PicturesDir:    "/data/pics",
		CaptureCommand: "fswebcam --no-banner {path}",
		KeepImages:     true,
		RequestTimeout: 45,
	}, *got)
}

func TestRunSetupRepromptsRelativeBaseURL(t *testing.T) {
	answers := "story-api/v1\nhttps://story.test/v1/\n\n\n\n\n\n"
	var out bytes.Buffer

	got, err := RunSetup(strings.NewReader(answers), &out, Config{})
	require.NoError(t, err)
	assert.Equal(t, "https://story.test/v1/", got.BaseURL)
	assert.Contains(t, out.String(), "must be absolute")
	assert.Equal(t, Defaults().RequestTimeout, got.RequestTimeout)
}

func TestRunSetupIgnoresBadTimeout(t *testing.T) {
	answers := "\n\n\n\nsoon\n\n"
	got, err := RunSetup(strings.NewReader(answers), &bytes.Buffer{}, Defaults())
	require.NoError(t, err)
	assert.Equal(t, Defaults().RequestTimeout, got.RequestTimeout)
}

func TestRunSetupInputClosedEarly(t *testing.T) {
	_, err := RunSetup(strings.NewReader("https://story.test/v1/\n"), &bytes.Buffer{}, Defaults())
	assert.Error(t, err)
}
