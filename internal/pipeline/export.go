package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"harmonise/internal"
)

// RecordWriter emits canonical records in schema field order.
type RecordWriter interface {
	Write(record internal.Record) error
	Close() error
}

// OpenWriter creates path, choosing the format from its extension.
func OpenWriter(path string, fieldnames []string) (RecordWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		w, err := NewCSVWriter(f, fieldnames)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		w.closer = f
		return w, nil
	case ".xlsx":
		return NewXLSXWriter(path, fieldnames), nil
	default:
		return nil, fmt.Errorf("unsupported output type: %s", ext)
	}
}

type CSVWriter struct {
	w          *csv.Writer
	fieldnames []string
	closer     io.Closer
}

// NewCSVWriter writes the header immediately, so even an empty run yields a
// well-formed file.
func NewCSVWriter(w io.Writer, fieldnames []string) (*CSVWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(fieldnames); err != nil {
		return nil, err
	}
	return &CSVWriter{w: cw, fieldnames: fieldnames}, nil
}

func (c *CSVWriter) Write(record internal.Record) error {
	row := make([]string, len(c.fieldnames))
	for i, name := range c.fieldnames {
		row[i] = record[name]
	}
	return c.w.Write(row)
}

func (c *CSVWriter) Close() error {
	c.w.Flush()
	err := c.w.Error()
	if c.closer != nil {
		if cerr := c.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// XLSXWriter buffers rows in a workbook and saves it on Close.
type XLSXWriter struct {
	f          *excelize.File
	sheet      string
	fieldnames []string
	path       string
	row        int
}

func NewXLSXWriter(path string, fieldnames []string) *XLSXWriter {
	f := excelize.NewFile()
	w := &XLSXWriter{f: f, sheet: f.GetSheetName(0), fieldnames: fieldnames, path: path, row: 1}
	for i, h := range fieldnames {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(w.sheet, cell, h)
	}
	return w
}

func (x *XLSXWriter) Write(record internal.Record) error {
	x.row++
	for i, name := range x.fieldnames {
		value := record[name]
		if value == "" {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, x.row)
		if err != nil {
			return err
		}
		if err := x.f.SetCellStr(x.sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}

func (x *XLSXWriter) Close() error {
	defer x.f.Close()
	return x.f.SaveAs(x.path)
}
