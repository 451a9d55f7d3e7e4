package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

// RunSetup walks through every global setting on in/out and returns the
// edited config. Values from existing are offered as defaults; an empty
// answer keeps them.
func RunSetup(in io.Reader, out io.Writer, existing Config) (*Config, error) {
	r := bufio.NewReader(in)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askBool := func(prompt string, defaultVal bool) (bool, error) {
		def := "n"
		if defaultVal {
			def = "y"
		}
		ans, err := ask(prompt+" (y/n)", def)
		if err != nil {
			return false, err
		}
		return strings.ToLower(ans) == "y" || strings.ToLower(ans) == "yes", nil
	}

	cfg := existing
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = Defaults().RequestTimeout
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(out, "  │        storyapp — setup         │")
	fmt.Fprintln(out, "  └─────────────────────────────────┘")
	fmt.Fprintln(out)

	var err error

	for {
		cfg.BaseURL, err = ask("  Story API base URL", cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		if u, perr := url.Parse(cfg.BaseURL); perr == nil && u.Scheme != "" && u.Host != "" {
			break
		}
		fmt.Fprintln(out, "  ⚠ the base URL must be absolute, e.g. https://story-api.dicoding.dev/v1/")
		cfg.BaseURL = DefaultBaseURL
	}

	cfg.PicturesDir, err = ask("  Pictures directory (empty for the data dir)", cfg.PicturesDir)
	if err != nil {
		return nil, err
	}

	cfg.CaptureCommand, err = ask("  Camera capture command ({path} is the output file)", cfg.CaptureCommand)
	if err != nil {
		return nil, err
	}

	cfg.KeepImages, err = askBool("  Keep images after a successful upload", cfg.KeepImages)
	if err != nil {
		return nil, err
	}

	timeout, err := ask("  Request timeout in seconds", strconv.Itoa(cfg.RequestTimeout))
	if err != nil {
		return nil, err
	}
	if n, perr := strconv.Atoi(timeout); perr == nil && n > 0 {
		cfg.RequestTimeout = n
	}

	cfg.Debug, err = askBool("  Log HTTP traffic to the console", cfg.Debug)
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(out)
	return &cfg, nil
}
