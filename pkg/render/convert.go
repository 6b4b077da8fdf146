package render

import (
	"bytes"
	"fmt"
	"os/exec"

	"github.com/matzehuels/orgchart/pkg/errors"
)

// ToPDF converts a rendered chart from SVG to PDF using rsvg-convert.
func ToPDF(svg []byte) ([]byte, error) {
	return rsvgConvert(svg, "pdf")
}

// ToPNG converts a rendered chart from SVG to PNG. A scale of 2 doubles the
// pixel density; non-positive scales fall back to 1.
func ToPNG(svg []byte, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	return rsvgConvert(svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

// CanConvert reports whether rsvg-convert is on PATH, so PDF and PNG
// output is available.
func CanConvert() bool {
	_, err := exec.LookPath("rsvg-convert")
	return err == nil
}

// rsvgConvert shells out to rsvg-convert for format conversion.
func rsvgConvert(svg []byte, format string, extraArgs ...string) ([]byte, error) {
	if !CanConvert() {
		return nil, errors.New(errors.ErrCodeInvalidFormat,
			"%s output requires rsvg-convert (brew install librsvg, apt install librsvg2-bin)", format)
	}

	args := append([]string{"-f", format}, extraArgs...)
	cmd := exec.Command("rsvg-convert", args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "rsvg-convert %s: %s", format, bytes.TrimSpace(errBuf.Bytes()))
	}
	return out.Bytes(), nil
}
