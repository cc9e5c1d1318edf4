package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeHeader folds a column name to its lookup key: lower-cased,
// diacritics removed, every character outside [a-z0-9] replaced by '_'.
// "Nature de l'opération" becomes "nature_de_l_operation".
func NormalizeHeader(name string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		folded = strings.ToLower(strings.TrimSpace(name))
	}

	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, folded)
}

// headerNormalizingReader feeds gocsv with a normalized header row and
// records padded to the header width, remembering the physical line of each
// record for error reporting.
type headerNormalizingReader struct {
	*csv.Reader
	lineOffset int
	lines      []int
}

func newHeaderNormalizingReader(r io.Reader, delimiter rune, lineOffset int) *headerNormalizingReader {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return &headerNormalizingReader{Reader: reader, lineOffset: lineOffset}
}

// ReadAll implements gocsv.CSVReader.
func (h *headerNormalizingReader) ReadAll() ([][]string, error) {
	var records [][]string
	for {
		record, err := h.Reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading statement: %w", err)
		}
		line, _ := h.Reader.FieldPos(0)
		h.lines = append(h.lines, line+h.lineOffset)
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, ErrNoHeader
	}

	header := records[0]
	for i, name := range header {
		header[i] = NormalizeHeader(name)
	}
	for i := 1; i < len(records); i++ {
		for len(records[i]) < len(header) {
			records[i] = append(records[i], "")
		}
	}
	return records, nil
}

// line returns the physical line of the i-th data record.
func (h *headerNormalizingReader) line(i int) int {
	if i+1 < len(h.lines) {
		return h.lines[i+1]
	}
	return 0
}

func hasColumn(header []string, column string) bool {
	for _, name := range header {
		if name == column {
			return true
		}
	}
	return false
}
