// Package outline reads cell outline files produced by segmentation.
//
// Each non-blank line describes one cell as a comma-separated list of
// integers taken pairwise as (x, y) coordinates. Whitespace around tokens is
// trimmed, empty tokens are ignored, and parentheses are accepted as
// decoration, so both "1,2,3,4" and "(1,2),(3,4)" describe the same cell.
package outline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"celldecode/internal/models"
)

var (
	// ErrOddCoordinates is returned when a line holds an odd number of integers.
	ErrOddCoordinates = errors.New("odd number of coordinates in line")

	// ErrNoCoordinates is returned for a non-blank line without any integer,
	// such as ", ,".
	ErrNoCoordinates = errors.New("no coordinates in line")
)

// ParseError reports the line on which reading an outline file failed.
type ParseError struct {
	Path string
	Line int // 1-based
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("outline %s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("outline line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var decoration = strings.NewReplacer("(", "", ")", "")

// ParseLine parses a single outline line into points.
func ParseLine(line string) (models.Outline, error) {
	tokens := strings.Split(decoration.Replace(line), ",")
	numbers := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.ParseInt(tok, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("malformed integer %q: %w", tok, err)
		}
		numbers = append(numbers, int(n))
	}

	if len(numbers)%2 != 0 {
		return nil, fmt.Errorf("%w (%d values)", ErrOddCoordinates, len(numbers))
	}

	points := make(models.Outline, 0, len(numbers)/2)
	for i := 0; i < len(numbers); i += 2 {
		points = append(points, models.Point{X: numbers[i], Y: numbers[i+1]})
	}
	return points, nil
}

// Read parses every cell outline from r. Blank lines are skipped; any other
// line must yield at least one point. The first malformed line aborts the
// read; no partial result is returned.
func Read(r io.Reader) ([]models.Outline, error) {
	scanner := bufio.NewScanner(r)
	// Outline lines for large cells easily exceed the default 64 KiB token
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var outlines []models.Outline
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		points, err := ParseLine(line)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Err: err}
		}
		if len(points) == 0 {
			return nil, &ParseError{Line: lineNo, Err: ErrNoCoordinates}
		}
		outlines = append(outlines, points)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Line: lineNo + 1, Err: err}
	}
	return outlines, nil
}

// ReadFile parses the outline file at path.
func ReadFile(path string) ([]models.Outline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open outline file: %w", err)
	}
	defer f.Close()

	outlines, err := Read(f)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	return outlines, nil
}
