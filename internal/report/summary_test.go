package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harmonise/internal"
)

func TestIssueTallyOrdersByCount(t *testing.T) {
	issues := []internal.Issue{
		{RowNumber: 1, Field: "Hectares", Datatype: "decimal", Value: "x"},
		{RowNumber: 1, Field: "PlanningStatus", Datatype: "enum", Value: "y"},
		{RowNumber: 2, Field: "PlanningStatus", Datatype: "enum", Value: "z"},
		{RowNumber: 3, Field: "GeoX,GeoY", Datatype: "OSGB", Value: "1,2"},
	}

	tally := NewIssueTally()
	for _, issue := range issues {
		require.NoError(t, tally.WriteIssue(issue))
	}

	assert.Equal(t, []internal.IssueCount{
		{Field: "PlanningStatus", Datatype: "enum", Count: 2},
		{Field: "Hectares", Datatype: "decimal", Count: 1},
		{Field: "GeoX,GeoY", Datatype: "OSGB", Count: 1},
	}, tally.Counts())
}

func TestIssueTallyCountsAsIssuesArrive(t *testing.T) {
	tally := NewIssueTally()
	assert.Empty(t, tally.Counts())

	require.NoError(t, tally.WriteIssue(internal.Issue{RowNumber: 1, Field: "Hectares", Datatype: "decimal"}))
	require.NoError(t, tally.WriteIssue(internal.Issue{RowNumber: 2, Field: "PlanningStatus", Datatype: "enum"}))
	assert.Equal(t, []internal.IssueCount{
		{Field: "Hectares", Datatype: "decimal", Count: 1},
		{Field: "PlanningStatus", Datatype: "enum", Count: 1},
	}, tally.Counts())

	require.NoError(t, tally.WriteIssue(internal.Issue{RowNumber: 3, Field: "PlanningStatus", Datatype: "enum"}))
	require.NoError(t, tally.Close())
	assert.Equal(t, []internal.IssueCount{
		{Field: "PlanningStatus", Datatype: "enum", Count: 2},
		{Field: "Hectares", Datatype: "decimal", Count: 1},
	}, tally.Counts())
}

func TestWriteIssueSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteIssueSummary(&buf, []internal.IssueCount{
		{Field: "PlanningStatus", Datatype: "enum", Count: 12},
		{Field: "Adresse née", Datatype: "uri", Count: 1},
	}))

	want := "" +
		"| field          | datatype | count |\n" +
		"| -------------- | -------- | ----- |\n" +
		"| PlanningStatus | enum     | 12    |\n" +
		"| Adresse née    | uri      | 1     |\n" +
		"| total          |          | 13    |\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteIssueSummaryAlignsWideRunes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteIssueSummary(&buf, []internal.IssueCount{
		{Field: "地名", Datatype: "enum", Count: 1},
		{Field: "Name", Datatype: "enum", Count: 1},
	}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	for _, line := range lines[1:] {
		assert.Equal(t, runewidth.StringWidth(lines[0]), runewidth.StringWidth(line), line)
	}
}

func TestWriteIssueSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteIssueSummary(&buf, nil))
	assert.Equal(t, "no issues\n", buf.String())
}
