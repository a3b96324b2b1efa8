// Package testsupport holds fixtures and golden-file helpers shared by tests.
package testsupport

import (
	"bytes"
	"io"
	"net/url"
	"os"
	"strings"
	"testing"
)

// Values builds submitted form values from "name=value" pairs. Repeating a
// name appends another value.
func Values(pairs ...string) url.Values {
	out := url.Values{}
	for _, pair := range pairs {
		name, value, _ := strings.Cut(pair, "=")
		out.Add(name, value)
	}
	return out
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}
