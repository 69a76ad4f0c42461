package annotation

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrParse indicates a malformed annotation line.
var ErrParse = errors.New("malformed annotation line")

// Annotation describes one respiratory event within a recording.
// Times are in seconds relative to the start of the recording; the
// crackle and wheeze flags are 0 or 1.
type Annotation struct {
	Start   float64
	End     float64
	Crackle int
	Wheeze  int
}

// Label maps the (crackle, wheeze) flag pair to the 4-way class index:
// 0 = normal, 1 = crackles, 2 = wheezes, 3 = both.
func (a Annotation) Label() int {
	switch {
	case a.Crackle == 0 && a.Wheeze == 0:
		return 0
	case a.Crackle == 1 && a.Wheeze == 0:
		return 1
	case a.Crackle == 0 && a.Wheeze == 1:
		return 2
	default:
		return 3
	}
}

// ParseFile reads a per-recording annotation file. Each line holds four
// tab-separated numeric fields: start, end, crackle flag, wheeze flag.
func ParseFile(path string) ([]Annotation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open annotation file %s: %w", path, err)
	}
	defer f.Close()

	anns, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("annotation file %s: %w", path, err)
	}
	return anns, nil
}

// Parse reads annotation records from r, one per line, in input order.
// A line that does not split into exactly four numeric fields fails the
// whole parse with an error wrapping ErrParse.
func Parse(r io.Reader) ([]Annotation, error) {
	var anns []Annotation

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			return nil, fmt.Errorf("%w: line %d has %d fields, want 4", ErrParse, lineNo, len(fields))
		}

		values := make([]float64, 4)
		for i, field := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d field %d %q is not numeric", ErrParse, lineNo, i+1, field)
			}
			values[i] = v
		}

		anns = append(anns, Annotation{
			Start:   values[0],
			End:     values[1],
			Crackle: int(values[2]),
			Wheeze:  int(values[3]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}

	return anns, nil
}
