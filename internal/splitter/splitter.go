package splitter

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Package splitter partitions a text document into a fixed number of
// contiguous line-range segments of near-equal size. Segment order matches
// line order, so concatenating all segments reproduces the document.

var (
	// ErrInvalidSplitCount is returned when the requested number of parts
	// is zero or negative.
	ErrInvalidSplitCount = errors.New("splitter: number of parts must be positive")

	// ErrInvalidEncoding is returned when the uploaded bytes are not valid UTF-8.
	ErrInvalidEncoding = errors.New("splitter: content is not valid UTF-8 text")
)

// Segment is one contiguous line range of the source document.
type Segment struct {
	Index int      // zero-based position in the document
	Lines []string // original lines, in order
	Text  string   // lines joined with "\n"
}

// Decode converts uploaded bytes to text, rejecting invalid UTF-8.
func Decode(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrInvalidEncoding
	}
	return string(data), nil
}

// SplitText splits raw text into numParts segments.
// Line breaks are normalized before splitting; a trailing newline does not
// produce a phantom empty line.
func SplitText(text string, numParts int) ([]Segment, error) {
	return Partition(SplitLines(text), numParts)
}

// SplitLines breaks text into lines the way the rest of the pipeline
// expects: "\r\n" counts as a single break and a final newline terminates
// the last line rather than opening an empty one.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// Partition distributes lines across numParts contiguous segments.
// With total = len(lines), avg = total/numParts and remainder =
// total%numParts, segment i receives avg+1 lines when i < remainder and avg
// lines otherwise. When numParts exceeds the line count the trailing
// segments are empty; that is accepted, not an error.
func Partition(lines []string, numParts int) ([]Segment, error) {
	if numParts <= 0 {
		return nil, ErrInvalidSplitCount
	}

	avg := len(lines) / numParts
	remainder := len(lines) % numParts

	segments := make([]Segment, 0, numParts)
	start := 0
	for i := 0; i < numParts; i++ {
		size := avg
		if i < remainder {
			size++
		}
		part := lines[start : start+size]
		segments = append(segments, Segment{
			Index: i,
			Lines: part,
			Text:  strings.Join(part, "\n"),
		})
		start += size
	}

	return segments, nil
}
