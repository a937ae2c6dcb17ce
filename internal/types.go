package internal

// Record is one tabular row addressed by field name.
type Record map[string]string

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Issue is one value that could not be mapped to a canonical form.
type Issue struct {
	RowNumber int    `json:"rowNumber"`
	Field     string `json:"field"`
	Datatype  string `json:"datatype"`
	Value     string `json:"value"`
}

const (
	DatatypeInteger      = "integer"
	DatatypeDecimal      = "decimal"
	DatatypeDate         = "date"
	DatatypeURI          = "uri"
	DatatypeEnum         = "enum"
	DatatypeOrganisation = "opendatacommunities-uri"
	DatatypeOSGB         = "OSGB"
)

// IssueFieldnames is the header of the anomaly log.
var IssueFieldnames = []string{"row-number", "field", "datatype", "value"}

type OrganisationRow struct {
	Organisation         string
	OpenDataCommunities  string
	StatisticalGeography string
}

type OrganisationPatch struct {
	Value        string
	Organisation string
}

type EnumPatch struct {
	Field string
	Enum  string
	Value string
}

type RunRow struct {
	ID         string
	Resource   string
	Input      string
	Output     string
	StartedAt  string
	FinishedAt string
	Rows       int
	Issues     int
}

type IssueCount struct {
	Field    string
	Datatype string
	Count    int
}
