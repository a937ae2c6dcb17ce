package pipeline

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harmonise/internal"
	"harmonise/internal/catalog"
	"harmonise/internal/metrics"
	"harmonise/internal/schema"
)

const (
	hackneyURI  = "http://opendatacommunities.org/id/london-borough-council/hackney"
	basildonURI = "http://opendatacommunities.org/id/district-council/basildon"
)

const brownfieldSchema = `{
  "fields": [
    {"name": "OrganisationURI", "format": "uri"},
    {"name": "SiteReference"},
    {"name": "SiteNameAddress", "digital-land": {"format": "address"}},
    {"name": "SiteplanURL", "format": "uri"},
    {"name": "GeoX", "type": "number"},
    {"name": "GeoY", "type": "number"},
    {"name": "Hectares", "type": "number", "digital-land": {"strip": ["(?i)\\s*ha$"], "precision": 2}},
    {"name": "MinNetDwelling", "type": "integer"},
    {"name": "FirstAddedDate", "type": "date"},
    {"name": "OwnershipStatus", "constraints": {"enum": ["owned by a public authority", "not owned by a public authority", "mixed ownership"]}}
  ],
  "digital-land": {"duplicate": ["OrganisationURI"]}
}`

func newHarmoniser(t *testing.T, doc string, opts ...Option) *Harmoniser {
	t.Helper()
	s, err := schema.Parse([]byte(doc))
	require.NoError(t, err)

	orgs, err := catalog.BuildOrganisationIndex([]internal.OrganisationRow{
		{Organisation: "local-authority-eng:HCK", OpenDataCommunities: hackneyURI, StatisticalGeography: "E09000012"},
		{Organisation: "local-authority-eng:BAS", OpenDataCommunities: basildonURI, StatisticalGeography: "E07000066"},
	}, nil)
	require.NoError(t, err)

	enums, err := catalog.BuildEnumIndex(s, []internal.EnumPatch{
		{Field: "OwnershipStatus", Enum: "mixed ownership", Value: "Retail / Leisure"},
	})
	require.NoError(t, err)

	return NewHarmoniser(s, orgs, enums, opts...)
}

func parseFloat(t *testing.T, s string) float64 {
	t.Helper()
	f, err := strconv.ParseFloat(s, 64)
	require.NoError(t, err)
	return f
}

func TestHarmoniseRow(t *testing.T) {
	h := newHarmoniser(t, brownfieldSchema)

	out, issues := h.Harmonise(internal.Record{
		"OrganisationURI": "Hackney",
		"SiteReference":   "BR/1",
		"SiteNameAddress": "1 High St\nHackney",
		"SiteplanURL":     "https://example.com/ plan.pdf",
		"GeoX":            "530000",
		"GeoY":            "180000",
		"Hectares":        "1.234 Ha",
		"MinNetDwelling":  "12.0",
		"FirstAddedDate":  "01/02/2020",
		"OwnershipStatus": " Retail / Leisure ",
		"Unknown":         "dropped",
	})

	assert.Empty(t, issues)
	assert.ElementsMatch(t, h.FieldNames(), keys(out))
	assert.Equal(t, hackneyURI, out["OrganisationURI"])
	assert.Equal(t, "BR/1", out["SiteReference"])
	assert.Equal(t, "1 High St, Hackney", out["SiteNameAddress"])
	assert.Equal(t, "https://example.com/plan.pdf", out["SiteplanURL"])
	assert.InDelta(t, -0.129, parseFloat(t, out["GeoX"]), 0.01)
	assert.InDelta(t, 51.505, parseFloat(t, out["GeoY"]), 0.01)
	assert.Equal(t, "1.23", out["Hectares"])
	assert.Equal(t, "12", out["MinNetDwelling"])
	assert.Equal(t, "2020-02-01", out["FirstAddedDate"])
	assert.Equal(t, "mixed ownership", out["OwnershipStatus"])
}

func keys(r internal.Record) []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	return out
}

func TestHarmoniseIssues(t *testing.T) {
	m := metrics.New()
	h := newHarmoniser(t, brownfieldSchema, WithMetrics(m))

	_, issues := h.Harmonise(internal.Record{"OrganisationURI": "local-authority-eng:HCK", "GeoX": "-0.1", "GeoY": "51.5"})
	assert.Empty(t, issues)

	out, issues := h.Harmonise(internal.Record{
		"OrganisationURI": "Gotham City",
		"MinNetDwelling":  "forty-two.00",
		"OwnershipStatus": "maybe",
		"SiteplanURL":     "not a url",
	})

	assert.Equal(t, []internal.Issue{
		{RowNumber: 2, Field: "OrganisationURI", Datatype: "opendatacommunities-uri", Value: "Gotham City"},
		{RowNumber: 2, Field: "SiteplanURL", Datatype: "uri", Value: "not a url"},
		{RowNumber: 2, Field: "MinNetDwelling", Datatype: "integer", Value: "forty-two"},
		{RowNumber: 2, Field: "OwnershipStatus", Datatype: "enum", Value: "maybe"},
	}, issues)
	assert.Equal(t, "", out["MinNetDwelling"])
	assert.Equal(t, "", out["OwnershipStatus"])
	assert.Equal(t, "", out["GeoX"])
	assert.Equal(t, hackneyURI, out["OrganisationURI"], "blank after a failed lookup is carried forward")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RowsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IssuesTotal.WithLabelValues("enum")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CarriedForwardTotal.WithLabelValues("OrganisationURI")))
}

func TestHarmoniseGeometry(t *testing.T) {
	h := newHarmoniser(t, brownfieldSchema)

	out, issues := h.Harmonise(internal.Record{"GeoX": "-0.1", "GeoY": "51.500000"})
	assert.Empty(t, issues)
	assert.Equal(t, "-0.1", out["GeoX"])
	assert.Equal(t, "51.5", out["GeoY"])

	out, issues = h.Harmonise(internal.Record{"GeoX": "51.5", "GeoY": "-0.1"})
	assert.Empty(t, issues)
	assert.Equal(t, "-0.1", out["GeoX"])
	assert.Equal(t, "51.5", out["GeoY"])

	out, issues = h.Harmonise(internal.Record{"GeoX": "-50000", "GeoY": "-50000"})
	assert.Equal(t, []internal.Issue{{RowNumber: 3, Field: "GeoX,GeoY", Datatype: "OSGB", Value: "-50000,-50000"}}, issues)
	assert.Equal(t, "", out["GeoX"])
	assert.Equal(t, "", out["GeoY"])

	out, issues = h.Harmonise(internal.Record{"GeoX": "530000"})
	assert.Empty(t, issues)
	assert.Equal(t, "530000", out["GeoX"])
	assert.Equal(t, "", out["GeoY"])
}

func TestHarmoniseBlankAndStrippedValues(t *testing.T) {
	h := newHarmoniser(t, brownfieldSchema)

	out, issues := h.Harmonise(internal.Record{"Hectares": " ha", "MinNetDwelling": ""})
	assert.Empty(t, issues)
	assert.Equal(t, "", out["Hectares"])
	assert.Equal(t, "", out["MinNetDwelling"])
	assert.Len(t, out, 10)
}

func TestHarmoniseCarryForward(t *testing.T) {
	h := newHarmoniser(t, brownfieldSchema)

	var got []string
	for _, raw := range []string{"local-authority-eng:HCK", "", "", "E07000066", ""} {
		out, _ := h.Harmonise(internal.Record{"OrganisationURI": raw})
		got = append(got, out["OrganisationURI"])
	}
	assert.Equal(t, []string{hackneyURI, hackneyURI, hackneyURI, basildonURI, basildonURI}, got)
}

const runSchema = `{
  "fields": [
    {"name": "OrganisationURI"},
    {"name": "SiteReference"},
    {"name": "Hectares", "type": "number"}
  ],
  "digital-land": {"duplicate": ["OrganisationURI"]}
}`

func TestRun(t *testing.T) {
	h := newHarmoniser(t, runSchema)

	input := "OrganisationURI,SiteReference,Hectares,Extra\n" +
		"local-authority-eng:HCK,A,2.50,x\n" +
		",B,big,y\n" +
		"E07000066,C,,z\n"
	reader, err := NewCSVReader(strings.NewReader(input))
	require.NoError(t, err)

	var out, log bytes.Buffer
	writer, err := NewCSVWriter(&out, h.FieldNames())
	require.NoError(t, err)
	issueWriter, err := NewCSVIssueWriter(&log)
	require.NoError(t, err)

	result, err := h.Run(context.Background(), reader, writer, issueWriter)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	require.NoError(t, issueWriter.Close())

	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, 1, result.Issues)
	assert.Equal(t, "OrganisationURI,SiteReference,Hectares\n"+
		hackneyURI+",A,2.5\n"+
		hackneyURI+",B,\n"+
		basildonURI+",C,\n", out.String())
	assert.Equal(t, "row-number,field,datatype,value\n2,Hectares,decimal,big\n", log.String())
}

func TestRunEmptyInputStillWritesHeader(t *testing.T) {
	h := newHarmoniser(t, runSchema)

	reader, err := NewCSVReader(strings.NewReader("SiteReference\n"))
	require.NoError(t, err)
	var out bytes.Buffer
	writer, err := NewCSVWriter(&out, h.FieldNames())
	require.NoError(t, err)

	result, err := h.Run(context.Background(), reader, writer, nil)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	assert.Equal(t, 0, result.Rows)
	assert.Equal(t, "OrganisationURI,SiteReference,Hectares\n", out.String())
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarmoniser(t, runSchema)
	reader, err := NewCSVReader(strings.NewReader("SiteReference\nA\n"))
	require.NoError(t, err)
	writer, err := NewCSVWriter(&bytes.Buffer{}, h.FieldNames())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := h.Run(ctx, reader, writer, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, result.Rows)
}
