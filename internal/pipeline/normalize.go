package pipeline

import (
	"harmonise/internal"
	"harmonise/internal/normalize"
	"harmonise/internal/schema"
)

// fieldNormalizer is the coercion chosen for one schema field at construction.
type fieldNormalizer struct {
	field    *schema.Field
	datatype string
	apply    func(value string) (string, bool)
	// logged rewrites the value recorded on failure; nil keeps it.
	logged func(value string) string
}

func (h *Harmoniser) resolveNormalizer(f *schema.Field) fieldNormalizer {
	n := fieldNormalizer{field: f}
	switch f.Kind {
	case schema.KindOrganisationURI:
		n.datatype = internal.DatatypeOrganisation
		n.apply = h.organisations.Resolve
	case schema.KindInteger:
		n.datatype = internal.DatatypeInteger
		n.apply = normalize.Integer
		n.logged = normalize.TrimZeroFraction
	case schema.KindDecimal:
		n.datatype = internal.DatatypeDecimal
		precision := f.Precision
		n.apply = func(v string) (string, bool) { return normalize.Decimal(v, precision) }
	case schema.KindDate:
		n.datatype = internal.DatatypeDate
		n.apply = normalize.Date
	case schema.KindURI:
		n.datatype = internal.DatatypeURI
		validator := h.urlValidator
		n.apply = func(v string) (string, bool) { return normalize.URI(v, validator) }
	case schema.KindAddress:
		n.apply = func(v string) (string, bool) { return normalize.Address(v), true }
	case schema.KindEnum:
		n.datatype = internal.DatatypeEnum
		name := f.Name
		n.apply = func(v string) (string, bool) { return h.enums.Resolve(name, v) }
	default:
		n.apply = func(v string) (string, bool) { return v, true }
	}
	return n
}

// normalize returns the canonical value, or an issue carrying the value that
// failed once strip patterns were applied.
func (n fieldNormalizer) normalize(raw string) (string, *internal.Issue) {
	if raw == "" {
		return "", nil
	}
	value := normalize.Strip(raw, n.field.Strip)
	if value == "" {
		return "", nil
	}
	out, ok := n.apply(value)
	if !ok {
		if n.logged != nil {
			value = n.logged(value)
		}
		return "", &internal.Issue{Field: n.field.Name, Datatype: n.datatype, Value: value}
	}
	return out, nil
}
