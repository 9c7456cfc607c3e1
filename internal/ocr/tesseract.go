package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strings"
)

// ErrTesseractNotAvailable is returned when the tesseract binary is not
// installed.
var ErrTesseractNotAvailable = errors.New("tesseract is not available in PATH")

// Extractor recognizes text by piping prepared images through the
// tesseract binary.
type Extractor struct {
	binary string
}

// NewExtractor creates a tesseract adapter. An empty binary falls back to
// "tesseract" resolved via PATH.
func NewExtractor(binary string) *Extractor {
	if binary == "" {
		binary = "tesseract"
	}
	return &Extractor{binary: binary}
}

// Name returns the binary name of the engine.
func (e *Extractor) Name() string {
	return e.binary
}

// Available reports whether the tesseract binary is installed.
func (e *Extractor) Available() bool {
	_, err := exec.LookPath(e.binary)
	return err == nil
}

// runTesseractFn is swapped out in tests.
var runTesseractFn = runTesseract

func runTesseract(binary string, img []byte, modeArgs []string) (string, error) {
	args := append([]string{"stdin", "stdout", "-l", "eng"}, modeArgs...)
	cmd := exec.Command(binary, args...)
	cmd.Stdin = bytes.NewReader(img)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// ExtractText binarizes and enhances img according to spec, then runs the
// engine over the result. The engine output is returned untouched,
// whitespace and all.
func (e *Extractor) ExtractText(img image.Image, spec Spec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return "", fmt.Errorf("cannot extract text from a %dx%d image", b.Dx(), b.Dy())
	}

	prepared := Prepare(img, spec.Range)
	var buf bytes.Buffer
	if err := png.Encode(&buf, prepared); err != nil {
		return "", fmt.Errorf("encode prepared image: %w", err)
	}
	return runTesseractFn(e.binary, buf.Bytes(), spec.Mode.tesseractArgs())
}
