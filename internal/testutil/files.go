// Package testutil holds fixtures shared by package tests: sample files of
// every accepted type and a fake OCR service.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Minimal file bodies whose leading bytes identify their type.
var (
	PDFContent  = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")
	PNGContent  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	JPEGContent = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
	GIFContent  = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!")
	WebPContent = []byte("RIFF\x1a\x00\x00\x00WEBPVP8 \x0e\x00\x00\x00\x30\x01\x00\x9d\x01\x2a")
	TextContent = []byte("just some notes, not a document\n")
)

// WriteFile creates dir/name with content and returns its path.
func WriteFile(t testing.TB, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

// WriteSamples writes one file of every accepted type plus a text file and
// returns the paths keyed by name.
func WriteSamples(t testing.TB, dir string) map[string]string {
	t.Helper()
	files := map[string][]byte{
		"scan.pdf":  PDFContent,
		"photo.png": PNGContent,
		"photo.jpg": JPEGContent,
		"anim.gif":  GIFContent,
		"pic.webp":  WebPContent,
		"notes.txt": TextContent,
	}
	paths := make(map[string]string, len(files))
	for name, content := range files {
		paths[name] = WriteFile(t, dir, name, content)
	}
	return paths
}

// StripANSI removes ANSI escape sequences from a string
func StripANSI(str string) string {
	var result []rune
	inEscape := false
	for _, r := range str {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				inEscape = false
			}
			continue
		}
		result = append(result, r)
	}
	return string(result)
}
