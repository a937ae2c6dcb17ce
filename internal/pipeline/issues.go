package pipeline

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"harmonise/internal"
)

type IssueWriter interface {
	WriteIssue(issue internal.Issue) error
	Close() error
}

// IssueLog holds issues in memory in encounter order. Long runs should write
// to a file or the database instead.
type IssueLog struct {
	issues []internal.Issue
}

func (l *IssueLog) WriteIssue(issue internal.Issue) error {
	l.issues = append(l.issues, issue)
	return nil
}

func (l *IssueLog) Close() error {
	return nil
}

func (l *IssueLog) Issues() []internal.Issue {
	return l.issues
}

func (l *IssueLog) Len() int {
	return len(l.issues)
}

type multiIssueWriter []IssueWriter

// MultiIssueWriter fans each issue out to every non-nil writer in order.
func MultiIssueWriter(writers ...IssueWriter) IssueWriter {
	var m multiIssueWriter
	for _, w := range writers {
		if w != nil {
			m = append(m, w)
		}
	}
	return m
}

func (m multiIssueWriter) WriteIssue(issue internal.Issue) error {
	for _, w := range m {
		if err := w.WriteIssue(issue); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every writer and returns their errors joined.
func (m multiIssueWriter) Close() error {
	var errs []error
	for _, w := range m {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CSVIssueWriter writes issues under the row-number,field,datatype,value header.
type CSVIssueWriter struct {
	w      *csv.Writer
	closer io.Closer
}

func NewCSVIssueWriter(w io.Writer) (*CSVIssueWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(internal.IssueFieldnames); err != nil {
		return nil, err
	}
	return &CSVIssueWriter{w: cw}, nil
}

// CreateIssueFile creates path and its directory and writes the header.
func CreateIssueFile(path string) (*CSVIssueWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewCSVIssueWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

func (w *CSVIssueWriter) WriteIssue(issue internal.Issue) error {
	return w.w.Write([]string{strconv.Itoa(issue.RowNumber), issue.Field, issue.Datatype, issue.Value})
}

func (w *CSVIssueWriter) Close() error {
	w.w.Flush()
	err := w.w.Error()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
