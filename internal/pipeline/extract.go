package pipeline

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"harmonise/internal"
	"harmonise/internal/util"
)

// RecordReader yields input rows in order and io.EOF after the last one.
type RecordReader interface {
	Read() (internal.Record, error)
}

type RecordReadCloser interface {
	RecordReader
	io.Closer
}

// OpenReader picks a reader from the file extension: .csv, .xlsx, .html or .htm.
func OpenReader(path string) (RecordReadCloser, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		r, err := NewCSVReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return readCloser{r, f}, nil
	case ".xlsx", ".html", ".htm":
		blob, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var r RecordReader
		if ext == ".xlsx" {
			r, err = NewXLSXReader(blob)
		} else {
			r, err = NewHTMLTableReader(bytes.NewReader(blob))
		}
		if err != nil {
			return nil, err
		}
		return readCloser{r, io.NopCloser(nil)}, nil
	default:
		return nil, fmt.Errorf("unsupported input type: %s", ext)
	}
}

type readCloser struct {
	RecordReader
	io.Closer
}

// tableReader serves rows already held in memory.
type tableReader struct {
	header []string
	rows   [][]string
}

func (t *tableReader) Read() (internal.Record, error) {
	if len(t.rows) == 0 {
		return nil, io.EOF
	}
	row := t.rows[0]
	t.rows = t.rows[1:]
	return toRecord(t.header, row), nil
}

func toRecord(header, row []string) internal.Record {
	record := make(internal.Record, len(header))
	for i, col := range header {
		if i < len(row) {
			record[col] = row[i]
		}
	}
	return record
}

func normalizeHeader(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// trimTrailingBlank drops the empty rows left after the last populated one.
// Interior blank rows stay so row numbers match the source.
func trimTrailingBlank(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && isBlankRow(rows[end-1]) {
		end--
	}
	return rows[:end]
}

// CSVReader reads a headed CSV stream.
type CSVReader struct {
	r      *csv.Reader
	header []string
}

func NewCSVReader(r io.Reader) (*CSVReader, error) {
	cr := util.NewCSVReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv input has no header row")
	}
	if err != nil {
		return nil, err
	}
	return &CSVReader{r: cr, header: normalizeHeader(header)}, nil
}

func (c *CSVReader) Read() (internal.Record, error) {
	row, err := c.r.Read()
	if err != nil {
		return nil, err
	}
	return toRecord(c.header, row), nil
}

// NewXLSXReader reads the first sheet of a workbook; the first non-blank row
// is the header. Blank rows after the header are kept as empty records.
func NewXLSXReader(content []byte) (RecordReader, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx input has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}

	start := 0
	for start < len(rows) && isBlankRow(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, errors.New("xlsx input has no header row")
	}
	return &tableReader{
		header: normalizeHeader(rows[start]),
		rows:   trimTrailingBlank(rows[start+1:]),
	}, nil
}

// NewHTMLTableReader reads the first table in an HTML document; its first row
// is the header.
func NewHTMLTableReader(r io.Reader) (RecordReader, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	table := doc.Find("table").First()
	rows := table.Find("tr")
	if rows.Length() == 0 {
		return nil, errors.New("html input has no table rows")
	}

	cellsOf := func(row *goquery.Selection) []string {
		cells := []string{}
		row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		return cells
	}

	t := &tableReader{header: normalizeHeader(cellsOf(rows.First()))}
	rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		t.rows = append(t.rows, cellsOf(row))
	})
	t.rows = trimTrailingBlank(t.rows)
	return t, nil
}
