package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"harmonise/internal"
	"harmonise/internal/schema"
	"harmonise/internal/util"
)

// csvTable reads a headed CSV stream into column-addressed rows.
func csvTable(r io.Reader, required ...string) ([]map[string]string, error) {
	reader := util.NewCSVReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	for _, col := range required {
		if !contains(header, col) {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var out []map[string]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		m := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				m[col] = row[i]
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func ReadOrganisations(r io.Reader) ([]internal.OrganisationRow, error) {
	rows, err := csvTable(r, "organisation", "opendatacommunities")
	if err != nil {
		return nil, fmt.Errorf("organisations: %w", err)
	}
	out := make([]internal.OrganisationRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, internal.OrganisationRow{
			Organisation:         strings.TrimSpace(row["organisation"]),
			OpenDataCommunities:  strings.TrimSpace(row["opendatacommunities"]),
			StatisticalGeography: strings.TrimSpace(row["statistical-geography"]),
		})
	}
	return out, nil
}

func ReadOrganisationPatches(r io.Reader) ([]internal.OrganisationPatch, error) {
	rows, err := csvTable(r, "value", "organisation")
	if err != nil {
		return nil, fmt.Errorf("organisation patch: %w", err)
	}
	out := make([]internal.OrganisationPatch, 0, len(rows))
	for _, row := range rows {
		out = append(out, internal.OrganisationPatch{
			Value:        row["value"],
			Organisation: strings.TrimSpace(row["organisation"]),
		})
	}
	return out, nil
}

func ReadEnumPatches(r io.Reader) ([]internal.EnumPatch, error) {
	rows, err := csvTable(r, "field", "enum", "value")
	if err != nil {
		return nil, fmt.Errorf("enum patch: %w", err)
	}
	out := make([]internal.EnumPatch, 0, len(rows))
	for _, row := range rows {
		out = append(out, internal.EnumPatch{
			Field: strings.TrimSpace(row["field"]),
			Enum:  row["enum"],
			Value: row["value"],
		})
	}
	return out, nil
}

// readFile opens path and decodes it with read. A missing optional file
// yields no rows.
func readFile[T any](path string, optional bool, read func(io.Reader) ([]T, error)) ([]T, error) {
	if path == "" && optional {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return read(f)
}

// References bundles both indices built from files on disk.
type References struct {
	Organisations *OrganisationIndex
	Enums         *EnumIndex
}

// LoadReferences builds both indices. The organisation register is required;
// patch files are optional.
func LoadReferences(s *schema.Schema, organisationsPath, organisationPatchPath, enumPatchPath string) (*References, error) {
	registry, err := readFile(organisationsPath, false, ReadOrganisations)
	if err != nil {
		return nil, err
	}
	orgPatches, err := readFile(organisationPatchPath, true, ReadOrganisationPatches)
	if err != nil {
		return nil, err
	}
	enumPatches, err := readFile(enumPatchPath, true, ReadEnumPatches)
	if err != nil {
		return nil, err
	}

	orgs, err := BuildOrganisationIndex(registry, orgPatches)
	if err != nil {
		return nil, err
	}
	enums, err := BuildEnumIndex(s, enumPatches)
	if err != nil {
		return nil, err
	}
	return &References{Organisations: orgs, Enums: enums}, nil
}
