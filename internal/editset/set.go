package editset

import (
	"fmt"
	"io"
)

const (
	setOpen  = "<WPEditSet>\n"
	setClose = "</WPEditSet>\n"
)

// SetWriter streams a WPEditSet document. Each dumped WPEdit is written as
// soon as it is added, so arbitrarily large groups never sit in memory.
type SetWriter struct {
	w      io.Writer
	opened bool
	closed bool
	count  int
}

// NewSetWriter returns a writer that emits the document to w.
func NewSetWriter(w io.Writer) *SetWriter {
	return &SetWriter{w: w}
}

// Add writes one dumped WPEdit block followed by a newline, opening the
// document first if needed.
func (s *SetWriter) Add(wpEdit string) error {
	if s.closed {
		return fmt.Errorf("edit set already closed")
	}
	if err := s.open(); err != nil {
		return err
	}
	if _, err := io.WriteString(s.w, wpEdit+"\n"); err != nil {
		return fmt.Errorf("failed to write edit: %w", err)
	}
	s.count++
	return nil
}

// Count returns the number of edits written so far.
func (s *SetWriter) Count() int {
	return s.count
}

// Close writes the closing tag. An empty set is still a complete document.
func (s *SetWriter) Close() error {
	if s.closed {
		return nil
	}
	if err := s.open(); err != nil {
		return err
	}
	s.closed = true
	if _, err := io.WriteString(s.w, setClose); err != nil {
		return fmt.Errorf("failed to close edit set: %w", err)
	}
	return nil
}

func (s *SetWriter) open() error {
	if s.opened {
		return nil
	}
	s.opened = true
	if _, err := io.WriteString(s.w, setOpen); err != nil {
		return fmt.Errorf("failed to open edit set: %w", err)
	}
	return nil
}

// ScoringDocument wraps a single dumped WPEdit in the envelope expected by
// the classifier scoring socket.
func ScoringDocument(wpEdit string) string {
	return `<?xml version="1.0"?>` + "\n" + "<WPEditSet>\n" + wpEdit + "\n</WPEditSet>"
}
