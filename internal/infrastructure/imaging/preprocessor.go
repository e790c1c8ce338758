// Package imaging prepares scanned images for OCR.
package imaging

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// contrastPercent raises contrast by a factor of 1.2.
	contrastPercent = 20
	// threshold is the 0.5 luminance cut on an 8-bit scale.
	threshold = 128
)

type Preprocessor struct {
	tempDir string
}

// New returns a preprocessor writing artifacts to tempDir, or to the OS temp
// dir when tempDir is empty.
func New(tempDir string) *Preprocessor {
	return &Preprocessor{tempDir: tempDir}
}

// Preprocess writes a grayscale, contrast-boosted, binarized PNG copy of the
// image. When any step fails it returns the original path and a no-op
// release, so recognition still runs on the unprocessed input.
func (p *Preprocessor) Preprocess(ctx context.Context, path string) (string, func()) {
	artifact, release, err := p.run(ctx, path)
	if err != nil {
		slog.Warn("preprocess_fallback", "path", path, "error", err)
		return path, func() {}
	}
	return artifact, release
}

func (p *Preprocessor) run(ctx context.Context, path string) (artifact string, release func(), err error) {
	defer func() {
		if rec := recover(); rec != nil {
			artifact, release, err = "", nil, fmt.Errorf("preprocess panic: %v", rec)
		}
	}()

	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return "", nil, fmt.Errorf("decode image: %w", err)
	}
	out := Binarize(src)

	f, err := os.CreateTemp(p.tempDir, "ocr-*.png")
	if err != nil {
		return "", nil, fmt.Errorf("create artifact: %w", err)
	}
	name := f.Name()
	if err := imaging.Encode(f, out, imaging.PNG); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", nil, fmt.Errorf("encode artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", nil, fmt.Errorf("close artifact: %w", err)
	}

	var once sync.Once
	return name, func() {
		once.Do(func() { _ = os.Remove(name) })
	}, nil
}

// Binarize converts img to grayscale, raises contrast and maps every pixel to
// pure black or white.
func Binarize(img image.Image) *image.Gray {
	adjusted := imaging.AdjustContrast(imaging.Grayscale(img), contrastPercent)
	bounds := adjusted.Bounds()
	out := image.NewGray(bounds)

	for y := 0; y < bounds.Dy(); y++ {
		srcRow := adjusted.Pix[y*adjusted.Stride:]
		dstRow := out.Pix[y*out.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			// grayscale: R == G == B
			if srcRow[x*4] >= threshold {
				dstRow[x] = 0xff
			} else {
				dstRow[x] = 0
			}
		}
	}
	return out
}
