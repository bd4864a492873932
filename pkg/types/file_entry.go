package types

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Status is the lifecycle state of a tracked file.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
)

// Terminal reports whether the simulated upload has resolved.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}

// FileHandle describes a selected file. It is read-only once acquired.
type FileHandle struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	MIMEType string `json:"type"`
}

// Open opens the underlying file for reading.
func (h FileHandle) Open() (io.ReadCloser, error) {
	return os.Open(h.Path)
}

// IsPDF reports whether the file is a PDF document.
func (h FileHandle) IsPDF() bool {
	return h.MIMEType == "application/pdf"
}

// String returns a human-readable representation
func (h FileHandle) String() string {
	return fmt.Sprintf("%s (%s, %d bytes)", filepath.Base(h.Path), h.MIMEType, h.Size)
}

// FileEntry is one tracked file and its upload/OCR lifecycle.
// Error and OCRResult are mutually exclusive.
type FileEntry struct {
	ID        string       `json:"id"`
	File      FileHandle   `json:"file"`
	Status    Status       `json:"status"`
	Progress  float64      `json:"progress"`
	Error     string       `json:"error,omitempty"`
	OCRResult []PageResult `json:"ocrResult,omitempty"`

	// Attempt is bumped on every (re)start; async callbacks carry the
	// attempt they belong to and are ignored once it changes.
	Attempt int       `json:"attempt"`
	AddedAt time.Time `json:"addedAt"`
}

// Clone returns a deep copy safe to hand out to readers.
func (e FileEntry) Clone() FileEntry {
	if e.OCRResult != nil {
		pages := make([]PageResult, len(e.OCRResult))
		for i, p := range e.OCRResult {
			pages[i] = p.Clone()
		}
		e.OCRResult = pages
	}
	return e
}
