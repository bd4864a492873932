package main

import (
	"fmt"
	"io"
	"sync"

	"ocrdrop/pkg/types"
)

// syncWriter serialises writes from the daemon callback and the main loop.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// finished reports whether nothing more will happen to the entry.
func finished(e types.FileEntry) bool {
	return e.Status == types.StatusError || e.OCRResult != nil || (e.Status == types.StatusSuccess && e.Error != "")
}

func printEntry(out io.Writer, e types.FileEntry) {
	if e.Error != "" {
		fmt.Fprintln(out, errorText(e.File.Name+": "+e.Error))
		return
	}
	fmt.Fprintln(out, successText(fmt.Sprintf("%s: %d page(s)", e.File.Name, len(e.OCRResult))))
	printPages(out, e.OCRResult, "  ")
}

func printPages(out io.Writer, pages []types.PageResult, indent string) {
	for _, p := range pages {
		fmt.Fprintln(out, indent+headerText(p.Label))
		for _, line := range p.Lines {
			fmt.Fprintln(out, indent+"  "+line)
		}
	}
}
