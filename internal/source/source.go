// Package source reads and rewrites byte spans of source files, standing in
// for an editor selection.
package source

import (
	"errors"
	"fmt"
	"os"

	"github.com/oshifier/oshify/internal/atomicfile"
)

var ErrBadSpan = errors.New("span out of range")

// Span is the half-open byte range [Start, End) of a file.
type Span struct {
	Start, End int
}

func (s Span) check(size int) error {
	if s.Start < 0 || s.End < s.Start || s.End > size {
		return fmt.Errorf("%w: [%d, %d) in %d bytes", ErrBadSpan, s.Start, s.End, size)
	}
	return nil
}

// ReadSpan returns the text covered by span.
func ReadSpan(path string, span Span) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if err := span.check(len(data)); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return string(data[span.Start:span.End]), nil
}

// ReplaceSpan replaces the text covered by span with text. The file is
// rewritten in full. If expect is not nil the span must still hold *expect,
// so an edit made since the selection was read is not overwritten.
func ReplaceSpan(path string, span Span, text string, expect *string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := span.check(len(data)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if expect != nil && string(data[span.Start:span.End]) != *expect {
		return fmt.Errorf("%s: selection changed since it was read", path)
	}

	out := make([]byte, 0, len(data)-(span.End-span.Start)+len(text))
	out = append(out, data[:span.Start]...)
	out = append(out, text...)
	out = append(out, data[span.End:]...)
	return atomicfile.WriteFile(path, out, 0o644)
}
