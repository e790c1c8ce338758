package tesseract

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ensureTesseractAvailable skips when no tesseract install is on the PATH; the
// engine data ships with it.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func TestPoolRecognizesRenderedText(t *testing.T) {
	ensureTesseractAvailable(t)

	img := image.NewRGBA(image.Rect(0, 0, 160, 40))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 25),
	}
	d.DrawString("INVOICE 42")

	path := filepath.Join(t.TempDir(), "invoice.png")
	scaled := imaging.Resize(img, img.Bounds().Dx()*4, 0, imaging.NearestNeighbor)
	if err := imaging.Save(scaled, path); err != nil {
		t.Fatalf("save image: %v", err)
	}

	p, err := NewPool(Config{Size: 1})
	if err != nil {
		t.Skipf("tesseract engine unavailable: %v", err)
	}
	defer p.Close()

	text, err := p.Recognize(context.Background(), path)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	got := strings.ToUpper(text)
	if !strings.Contains(got, "INVOICE") && !strings.Contains(got, "42") {
		t.Fatalf("unexpected OCR output %q", text)
	}
}
