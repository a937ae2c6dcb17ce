// Package schema loads the field schema that drives harmonisation.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSchema wraps every schema load failure.
var ErrInvalidSchema = errors.New("invalid schema")

const (
	DefaultPrecision = 6

	// OrganisationField is the field resolved against the organisation index
	// regardless of its declared type.
	OrganisationField = "OrganisationURI"
)

// Kind selects the normalizer applied to a field.
type Kind int

const (
	KindVerbatim Kind = iota
	KindOrganisationURI
	KindInteger
	KindDecimal
	KindDate
	KindURI
	KindAddress
	KindEnum
)

var kindNames = [...]string{"verbatim", "organisation-uri", "integer", "decimal", "date", "uri", "address", "enum"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

type document struct {
	Fields      []fieldDocument `json:"fields" yaml:"fields"`
	DigitalLand struct {
		Duplicate []string `json:"duplicate" yaml:"duplicate"`
	} `json:"digital-land" yaml:"digital-land"`
}

type fieldDocument struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Format      string `json:"format" yaml:"format"`
	Constraints struct {
		Enum *[]string `json:"enum" yaml:"enum"`
	} `json:"constraints" yaml:"constraints"`
	DigitalLand struct {
		Strip     []string `json:"strip" yaml:"strip"`
		Precision *int     `json:"precision" yaml:"precision"`
		Format    string   `json:"format" yaml:"format"`
	} `json:"digital-land" yaml:"digital-land"`
}

// Field is one immutable schema field.
type Field struct {
	Name      string
	Type      string
	Format    string
	Enum      []string
	Strip     []*regexp.Regexp
	Precision int
	Extension string
	Kind      Kind

	// EnumDeclared is set when the document carries an enum key, even an
	// empty one.
	EnumDeclared bool
}

// HasEnum reports whether the field declares a controlled vocabulary. An
// empty vocabulary still counts and accepts no values.
func (f *Field) HasEnum() bool {
	return f.EnumDeclared || len(f.Enum) > 0
}

// Schema is the ordered field list plus the carry-forward field list.
type Schema struct {
	fields    []*Field
	byName    map[string]*Field
	duplicate []string
}

func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse reads a JSON or YAML schema document.
func Parse(data []byte) (*Schema, error) {
	var doc document
	unmarshal := yaml.Unmarshal
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		unmarshal = json.Unmarshal
	}
	if err := unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if len(doc.Fields) == 0 {
		return nil, fmt.Errorf("%w: no fields", ErrInvalidSchema)
	}

	s := &Schema{byName: map[string]*Field{}}
	for _, fd := range doc.Fields {
		name := strings.TrimSpace(fd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: field without a name", ErrInvalidSchema)
		}
		if _, dup := s.byName[name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrInvalidSchema, name)
		}

		f := &Field{
			Name:      name,
			Type:      fd.Type,
			Format:    fd.Format,
			Precision: DefaultPrecision,
			Extension: fd.DigitalLand.Format,
		}
		if enum := fd.Constraints.Enum; enum != nil {
			f.Enum = *enum
			f.EnumDeclared = true
		}
		if p := fd.DigitalLand.Precision; p != nil {
			if *p < 0 {
				return nil, fmt.Errorf("%w: field %q has negative precision", ErrInvalidSchema, name)
			}
			f.Precision = *p
		}
		for _, pattern := range fd.DigitalLand.Strip {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("%w: field %q strip %q: %v", ErrInvalidSchema, name, pattern, err)
			}
			f.Strip = append(f.Strip, re)
		}
		f.Kind = resolveKind(f)

		s.fields = append(s.fields, f)
		s.byName[name] = f
	}

	for _, name := range doc.DigitalLand.Duplicate {
		if _, ok := s.byName[name]; !ok {
			return nil, fmt.Errorf("%w: duplicate list names unknown field %q", ErrInvalidSchema, name)
		}
		s.duplicate = append(s.duplicate, name)
	}

	return s, nil
}

// resolveKind applies the dispatch precedence once per field.
func resolveKind(f *Field) Kind {
	switch {
	case f.Name == OrganisationField || f.Extension == "organisation-uri":
		return KindOrganisationURI
	case f.Type == "integer":
		return KindInteger
	case f.Type == "number":
		return KindDecimal
	case f.Type == "date":
		return KindDate
	case f.Format == "uri":
		return KindURI
	case f.Extension == "address":
		return KindAddress
	case f.HasEnum():
		return KindEnum
	default:
		return KindVerbatim
	}
}

// FieldNames returns field names in declaration order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

func (s *Schema) Fields() []*Field {
	return s.fields
}

func (s *Schema) Field(name string) (*Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Duplicate lists the fields eligible for carry-forward.
func (s *Schema) Duplicate() []string {
	return s.duplicate
}
