package picture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	// registers the WebP decoder alongside the formats imaging already pulls in
	_ "golang.org/x/image/webp"
)

const (
	// TargetSize bounds both dimensions of an upload before subsampling.
	TargetSize = 800
	// Quality is the JPEG quality of every reduced image.
	Quality = 80
)

// ErrDecode reports an image that could not be read. The upload must be
// aborted rather than sending a malformed file.
var ErrDecode = errors.New("image could not be decoded")

// SampleSize returns the power-of-two subsampling factor for an image of
// the given size. Images already within TargetSize×TargetSize get 1.
func SampleSize(width, height int) int {
	factor := 1
	if height > TargetSize || width > TargetSize {
		halfHeight := height / 2
		halfWidth := width / 2
		for halfHeight/factor >= TargetSize && halfWidth/factor >= TargetSize {
			factor *= 2
		}
	}
	return factor
}

// Reduce downsamples the image at path by SampleSize and re-encodes it as a
// JPEG into a new REDUCED_ file in the pipeline directory. The source file
// is left untouched.
func (p *Pipeline) Reduce(ctx context.Context, path string) (string, error) {
	width, height, err := bounds(path)
	if err != nil {
		return "", err
	}
	factor := SampleSize(width, height)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if factor > 1 {
		b := img.Bounds()
		img = imaging.Resize(img, b.Dx()/factor, b.Dy()/factor, imaging.Box)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, err := p.create("REDUCED")
	if err != nil {
		return "", err
	}
	if err := imaging.Encode(out, img, imaging.JPEG, imaging.JPEGQuality(Quality)); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("encoding %s: %w", out.Name(), err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", err
	}

	p.log.Debug("reduced image",
		zap.String("src", path),
		zap.String("dst", out.Name()),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("factor", factor),
	)
	return out.Name(), nil
}

// bounds reads only the image header.
func bounds(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return cfg.Width, cfg.Height, nil
}
