package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"harmonise/internal"
	"harmonise/internal/catalog"
	"harmonise/internal/geo"
	"harmonise/internal/metrics"
	"harmonise/internal/normalize"
	"harmonise/internal/schema"
)

const (
	GeoXField = "GeoX"
	GeoYField = "GeoY"
)

// geometryIssueField names the joint issue logged for an unresolvable pair.
const geometryIssueField = GeoXField + "," + GeoYField

// Harmoniser turns raw rows into canonical records. It keeps carry-forward
// state and row numbering, so use one per run.
type Harmoniser struct {
	schema        *schema.Schema
	organisations *catalog.OrganisationIndex
	enums         *catalog.EnumIndex
	normalizers   []fieldNormalizer
	geo           *geo.Resolver
	hasGeometry   bool
	state         *DefaultState
	rowNumber     int

	logger       *zap.Logger
	metrics      *metrics.Metrics
	urlValidator normalize.URLValidator
	reprojector  geo.Reprojector
}

type Option func(*Harmoniser)

func WithLogger(logger *zap.Logger) Option {
	return func(h *Harmoniser) { h.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Harmoniser) { h.metrics = m }
}

func WithURLValidator(v normalize.URLValidator) Option {
	return func(h *Harmoniser) { h.urlValidator = v }
}

func WithReprojector(r geo.Reprojector) Option {
	return func(h *Harmoniser) { h.reprojector = r }
}

func NewHarmoniser(s *schema.Schema, organisations *catalog.OrganisationIndex, enums *catalog.EnumIndex, opts ...Option) *Harmoniser {
	h := &Harmoniser{
		schema:        s,
		organisations: organisations,
		enums:         enums,
		logger:        zap.NewNop(),
		urlValidator:  normalize.DefaultURLValidator,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.geo = geo.NewResolver(h.reprojector)
	_, hasX := s.Field(GeoXField)
	_, hasY := s.Field(GeoYField)
	h.hasGeometry = hasX && hasY
	h.state = NewDefaultState(s.Duplicate())

	for _, f := range s.Fields() {
		h.normalizers = append(h.normalizers, h.resolveNormalizer(f))
	}
	return h
}

// Harmonise normalizes one row. Fields missing from row are treated as blank.
func (h *Harmoniser) Harmonise(row internal.Record) (internal.Record, []internal.Issue) {
	h.rowNumber++
	out := make(internal.Record, len(h.normalizers))
	var issues []internal.Issue

	for _, n := range h.normalizers {
		value, issue := n.normalize(row[n.field.Name])
		if issue != nil {
			issues = append(issues, *issue)
		}
		out[n.field.Name] = value
	}

	if h.hasGeometry {
		x, y := out[GeoXField], out[GeoYField]
		lon, lat, ok := h.geo.Resolve(x, y)
		if !ok {
			issues = append(issues, internal.Issue{Field: geometryIssueField, Datatype: internal.DatatypeOSGB, Value: x + "," + y})
		}
		out[GeoXField], out[GeoYField] = lon, lat
	}

	filled := h.state.Apply(out)

	for i := range issues {
		issues[i].RowNumber = h.rowNumber
		h.logger.Debug("issue",
			zap.Int("row", h.rowNumber),
			zap.String("field", issues[i].Field),
			zap.String("datatype", issues[i].Datatype),
			zap.String("value", issues[i].Value),
		)
	}

	if h.metrics != nil {
		h.metrics.RecordRow()
		for _, issue := range issues {
			h.metrics.RecordIssue(issue.Datatype)
		}
		for _, field := range filled {
			h.metrics.RecordCarryForward(field)
		}
	}

	return out, issues
}

// FieldNames is the output column order.
func (h *Harmoniser) FieldNames() []string {
	return h.schema.FieldNames()
}

type RunResult struct {
	Rows     int
	Issues   int
	Duration time.Duration
}

// Run streams every record from r through the harmoniser into w, writing
// issues to iw when it is not nil. Issues are not retained; pass a
// MultiIssueWriter to feed several sinks. Cancelling ctx stops between rows.
func (h *Harmoniser) Run(ctx context.Context, r RecordReader, w RecordWriter, iw IssueWriter) (RunResult, error) {
	start := time.Now()
	result := RunResult{}
	h.logger.Info("run started", zap.Int("fields", len(h.normalizers)))

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, err
		}

		record, issues := h.Harmonise(row)
		if err := w.Write(record); err != nil {
			return result, err
		}
		if iw != nil {
			for _, issue := range issues {
				if err := iw.WriteIssue(issue); err != nil {
					return result, err
				}
			}
		}
		result.Rows++
		result.Issues += len(issues)
	}

	result.Duration = time.Since(start)
	h.logger.Info("run finished",
		zap.Int("rows", result.Rows),
		zap.Int("issues", result.Issues),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}
