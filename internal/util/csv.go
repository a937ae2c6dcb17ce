package util

import (
	"encoding/csv"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewCSVReader returns a lenient CSV reader that drops a leading UTF-8 byte
// order mark, as written by spreadsheet exports, and keeps bare quotes inside
// unquoted cells.
func NewCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}
