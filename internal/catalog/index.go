package catalog

import (
	"errors"
	"fmt"
	"strings"

	"harmonise/internal"
	"harmonise/internal/schema"
	"harmonise/internal/util"
)

var (
	ErrUnknownEnum         = errors.New("enum patch names an undeclared enum")
	ErrUnknownOrganisation = errors.New("organisation patch names an unknown organisation")
)

const digitalLandOrganisationURL = "https://digital-land.github.io/organisation/%s/"

// OrganisationIndex maps lower-cased identifier variants to a canonical URI.
type OrganisationIndex struct {
	byKey map[string]string
}

func BuildOrganisationIndex(registry []internal.OrganisationRow, patches []internal.OrganisationPatch) (*OrganisationIndex, error) {
	idx := &OrganisationIndex{byKey: map[string]string{}}
	uriByOrganisation := map[string]string{}

	add := func(key, uri string) {
		if key == "" {
			return
		}
		idx.byKey[key] = uri
	}

	for _, row := range registry {
		uri := strings.ToLower(strings.TrimSpace(row.OpenDataCommunities))
		if row.Organisation == "" || uri == "" {
			continue
		}
		uriByOrganisation[row.Organisation] = uri

		add(strings.ToLower(row.Organisation), uri)
		add(uri, uri)
		add(util.EndOfURI(uri), uri)
		add(strings.ToLower(strings.TrimSpace(row.StatisticalGeography)), uri)
		if strings.Contains(row.Organisation, "local-authority-eng") {
			url := strings.ToLower(fmt.Sprintf(digitalLandOrganisationURL, row.Organisation))
			add(strings.Replace(url, "-eng:", "-eng/", 1), uri)
		}
	}

	for _, patch := range patches {
		if patch.Organisation == "" {
			continue
		}
		uri, ok := uriByOrganisation[patch.Organisation]
		if !ok {
			return nil, fmt.Errorf("%w: %q for value %q", ErrUnknownOrganisation, patch.Organisation, patch.Value)
		}
		add(util.LowerURI(patch.Value), uri)
	}

	return idx, nil
}

// Resolve looks raw up directly, then by its last path segment.
func (idx *OrganisationIndex) Resolve(raw string) (string, bool) {
	value := util.LowerURI(raw)
	if uri, ok := idx.byKey[value]; ok {
		return uri, true
	}
	if uri, ok := idx.byKey[util.EndOfURI(value)]; ok {
		return uri, true
	}
	return "", false
}

func (idx *OrganisationIndex) Len() int {
	return len(idx.byKey)
}

// EnumIndex maps normalized values to canonical enum tokens, per field.
type EnumIndex struct {
	byField map[string]map[string]string
}

func BuildEnumIndex(s *schema.Schema, patches []internal.EnumPatch) (*EnumIndex, error) {
	idx := &EnumIndex{byField: map[string]map[string]string{}}
	declared := map[string]map[string]struct{}{}

	for _, f := range s.Fields() {
		if !f.HasEnum() {
			continue
		}
		values := map[string]string{}
		tokens := map[string]struct{}{}
		for _, enum := range f.Enum {
			values[util.NormalizeEnumValue(enum)] = enum
			tokens[enum] = struct{}{}
		}
		idx.byField[f.Name] = values
		declared[f.Name] = tokens
	}

	for _, patch := range patches {
		tokens, ok := declared[patch.Field]
		if !ok {
			return nil, fmt.Errorf("%w: field %q has no enum constraint (enum %q)", ErrUnknownEnum, patch.Field, patch.Enum)
		}
		if _, ok := tokens[patch.Enum]; !ok {
			return nil, fmt.Errorf("%w: invalid %q enum %q", ErrUnknownEnum, patch.Field, patch.Enum)
		}
		idx.byField[patch.Field][util.NormalizeEnumValue(patch.Value)] = patch.Enum
	}

	return idx, nil
}

func (idx *EnumIndex) Resolve(field, raw string) (string, bool) {
	values, ok := idx.byField[field]
	if !ok {
		return "", false
	}
	enum, ok := values[util.NormalizeEnumValue(raw)]
	return enum, ok
}
