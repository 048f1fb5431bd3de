// Package features provides a streaming reader for feature tables
package features

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/decharger/pkg/core"
)

// Column names accepted in the header, lower case.
var columnAliases = map[string]string{
	"id":             "id",
	"feature_id":     "id",
	"mz":             "mz",
	"m/z":            "mz",
	"rt":             "rt",
	"retention_time": "rt",
	"intensity":      "intensity",
	"charge":         "charge",
	"z":              "charge",
}

// Reader provides streaming access to CSV or TSV feature tables. The first
// non-empty line is the header; it must name the id, mz, rt and intensity
// columns in any order and may name a charge column. Tabs in the header
// select TSV. Lines starting with '#' are skipped.
type Reader struct {
	scanner *bufio.Scanner
	lineNum int
	sep     string
	cols    map[string]int
	width   int
	current core.Feature
	err     error
}

// NewReader creates a new feature table reader
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next advances to the next feature. Returns false when no more features or error.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if r.cols == nil {
			if err := r.parseHeader(line); err != nil {
				r.err = fmt.Errorf("line %d: %w", r.lineNum, err)
				return false
			}
			continue
		}

		f, err := r.parseRow(line)
		if err != nil {
			r.err = fmt.Errorf("line %d: %w", r.lineNum, err)
			return false
		}
		r.current = f
		return true
	}

	if err := r.scanner.Err(); err != nil {
		r.err = err
	}
	return false
}

// Feature returns the current feature
func (r *Reader) Feature() core.Feature {
	return r.current
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int {
	return r.lineNum
}

func (r *Reader) parseHeader(line string) error {
	r.sep = ","
	if strings.Contains(line, "\t") {
		r.sep = "\t"
	}

	cols := make(map[string]int)
	fields := strings.Split(line, r.sep)
	for i, name := range fields {
		key, ok := columnAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, dup := cols[key]; dup {
			return fmt.Errorf("column %q appears twice", key)
		}
		cols[key] = i
	}

	var missing []string
	for _, need := range []string{"id", "mz", "rt", "intensity"} {
		if _, ok := cols[need]; !ok {
			missing = append(missing, need)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("header is missing column(s) %s", strings.Join(missing, ", "))
	}

	r.cols = cols
	for _, i := range cols {
		r.width = max(r.width, i+1)
	}
	return nil
}

func (r *Reader) parseRow(line string) (core.Feature, error) {
	fields := strings.Split(line, r.sep)
	if len(fields) < r.width {
		return core.Feature{}, fmt.Errorf("expected at least %d fields, got %d", r.width, len(fields))
	}
	field := func(name string) string {
		return strings.TrimSpace(fields[r.cols[name]])
	}

	f := core.Feature{ID: field("id")}

	var err error
	if f.MZ, err = strconv.ParseFloat(field("mz"), 64); err != nil {
		return core.Feature{}, fmt.Errorf("invalid m/z: %w", err)
	}
	if f.RT, err = strconv.ParseFloat(field("rt"), 64); err != nil {
		return core.Feature{}, fmt.Errorf("invalid retention time: %w", err)
	}
	if f.Intensity, err = strconv.ParseFloat(field("intensity"), 64); err != nil {
		return core.Feature{}, fmt.Errorf("invalid intensity: %w", err)
	}
	if _, ok := r.cols["charge"]; ok {
		if s := field("charge"); s != "" {
			if f.Charge, err = strconv.Atoi(s); err != nil {
				return core.Feature{}, fmt.Errorf("invalid charge: %w", err)
			}
		}
	}

	return f, nil
}

// ReadAll reads every feature from r.
func ReadAll(r io.Reader) ([]core.Feature, error) {
	reader := NewReader(r)
	var features []core.Feature
	for reader.Next() {
		features = append(features, reader.Feature())
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}
	return features, nil
}
