package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harmonise/internal"
)

type failingIssueWriter struct {
	err    error
	closed bool
}

func (f *failingIssueWriter) WriteIssue(internal.Issue) error { return f.err }

func (f *failingIssueWriter) Close() error {
	f.closed = true
	return f.err
}

func TestMultiIssueWriterFansOut(t *testing.T) {
	var a, b IssueLog
	var buf bytes.Buffer
	csvWriter, err := NewCSVIssueWriter(&buf)
	require.NoError(t, err)

	w := MultiIssueWriter(&a, nil, csvWriter, &b)
	issue := internal.Issue{RowNumber: 4, Field: "Hectares", Datatype: internal.DatatypeDecimal, Value: "big"}
	require.NoError(t, w.WriteIssue(issue))
	require.NoError(t, w.Close())

	assert.Equal(t, []internal.Issue{issue}, a.Issues())
	assert.Equal(t, []internal.Issue{issue}, b.Issues())
	assert.Equal(t, "row-number,field,datatype,value\n4,Hectares,decimal,big\n", buf.String())
}

func TestMultiIssueWriterErrors(t *testing.T) {
	boom := errors.New("disk full")
	var log IssueLog
	failing := &failingIssueWriter{err: boom}

	w := MultiIssueWriter(failing, &log)
	assert.ErrorIs(t, w.WriteIssue(internal.Issue{RowNumber: 1}), boom)
	assert.Equal(t, 0, log.Len())

	assert.ErrorIs(t, w.Close(), boom)
	assert.True(t, failing.closed)
}

func TestRunWritesEveryIssueToSink(t *testing.T) {
	h := newHarmoniser(t, runSchema)

	var b strings.Builder
	b.WriteString("SiteReference,Hectares\n")
	for i := 0; i < 500; i++ {
		b.WriteString("A,big\n")
	}
	reader, err := NewCSVReader(strings.NewReader(b.String()))
	require.NoError(t, err)
	writer, err := NewCSVWriter(&bytes.Buffer{}, h.FieldNames())
	require.NoError(t, err)

	var log IssueLog
	result, err := h.Run(context.Background(), reader, writer, MultiIssueWriter(&log))
	require.NoError(t, err)

	assert.Equal(t, 500, result.Issues)
	assert.Equal(t, 500, log.Len())
	assert.Equal(t, 500, log.Issues()[499].RowNumber)
}
