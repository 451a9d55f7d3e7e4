// Package picture acquires images from a camera command or an existing file
// and reduces them to upload-ready JPEGs.
package picture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrNoCapture reports a camera command that left no image behind.
var ErrNoCapture = errors.New("capture produced no image")

// Runner executes an external capture command.
// This abstraction allows mocking in tests.
type Runner func(ctx context.Context, name string, args ...string) error

func defaultRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Pipeline writes IMG_ and REDUCED_ files under a single directory.
type Pipeline struct {
	dir    string
	log    *zap.Logger
	Runner Runner // if nil, runs the command as a real subprocess
	now    func() time.Time
}

// New returns a Pipeline rooted at dir, creating it if needed.
func New(dir string, log *zap.Logger) (*Pipeline, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating pictures dir: %w", err)
	}
	return &Pipeline{dir: dir, log: log.Named("picture"), now: time.Now}, nil
}

// Dir is the directory every pipeline file is written to.
func (p *Pipeline) Dir() string { return p.dir }

// create opens a new, uniquely named JPEG file with the given prefix.
func (p *Pipeline) create(prefix string) (*os.File, error) {
	pattern := fmt.Sprintf("%s_%d*.jpg", prefix, p.now().UnixMilli())
	f, err := os.CreateTemp(p.dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("creating %s file: %w", prefix, err)
	}
	return f, nil
}

// CameraTarget pre-allocates an empty IMG_ file for a capture to write into.
func (p *Pipeline) CameraTarget() (string, error) {
	f, err := p.create("IMG")
	if err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// Capture runs command with its {path} placeholder replaced by a fresh
// camera target. Without a placeholder the path is appended as the last
// argument. A failed or empty capture removes the target.
func (p *Pipeline) Capture(ctx context.Context, command string) (string, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "", errors.New("no capture command configured")
	}

	target, err := p.CameraTarget()
	if err != nil {
		return "", err
	}

	placed := false
	for i, f := range fields {
		if strings.Contains(f, "{path}") {
			fields[i] = strings.ReplaceAll(f, "{path}", target)
			placed = true
		}
	}
	if !placed {
		fields = append(fields, target)
	}

	run := p.Runner
	if run == nil {
		run = defaultRunner
	}
	p.log.Debug("running capture command", zap.Strings("argv", fields))
	if err := run(ctx, fields[0], fields[1:]...); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("%w: %v", ErrNoCapture, err)
	}

	info, err := os.Stat(target)
	if err != nil || info.Size() == 0 {
		os.Remove(target)
		return "", ErrNoCapture
	}
	return target, nil
}

// Import stream-copies src into a new IMG_ file.
func (p *Pipeline) Import(ctx context.Context, src io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := p.create("IMG")
	if err != nil {
		return "", err
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("copying image: %w", err)
	}
	p.log.Debug("imported image", zap.String("path", f.Name()), zap.Int64("bytes", n))
	return f.Name(), nil
}

// ImportFile copies the image at path into the pipeline directory.
func (p *Pipeline) ImportFile(ctx context.Context, path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()
	return p.Import(ctx, src)
}

// Prepare reduces raw and returns both files for the caller to upload and
// later discard.
func (p *Pipeline) Prepare(ctx context.Context, raw string) (Pending, error) {
	reduced, err := p.Reduce(ctx, raw)
	if err != nil {
		return Pending{Raw: raw}, err
	}
	return Pending{Raw: raw, Reduced: reduced}, nil
}

// Pending is the pair of files produced for one upload.
type Pending struct {
	Raw     string
	Reduced string
}

// Discard removes both files. Files that are already gone are ignored.
func (pd Pending) Discard() error {
	var err error
	for _, path := range []string{pd.Raw, pd.Reduced} {
		if path == "" {
			continue
		}
		if rerr := os.Remove(path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			err = multierr.Append(err, rerr)
		}
	}
	return err
}
