// Package schema holds the static catalog of document type schemas.
package schema

import (
	"fmt"

	"github.com/liliang-cn/docflow/internal/domain"
)

// Field describes one placeholder of a document template
type Field struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Question    string `json:"question,omitempty"`
}

// Schema is the immutable shape of one document type
type Schema struct {
	DocumentType   domain.DocumentType `json:"document_type"`
	DisplayName    string              `json:"display_name"`
	Fields         []Field             `json:"fields"`
	CriticalFields []string            `json:"critical_fields"`
}

// FieldNames returns the schema fields in declaration order
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Has reports whether the schema declares the field
func (s *Schema) Has(name string) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Registry is a read-only lookup over the built-in schemas
type Registry struct {
	schemas map[domain.DocumentType]*Schema
}

// NewRegistry builds the registry from the built-in catalog
func NewRegistry() *Registry {
	r := &Registry{schemas: make(map[domain.DocumentType]*Schema, len(catalog))}
	for _, s := range catalog {
		s := s
		r.schemas[s.DocumentType] = &s
	}
	return r
}

// Schema returns the schema for a document type
func (r *Registry) Schema(t domain.DocumentType) (*Schema, error) {
	s, ok := r.schemas[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDocumentType, t)
	}
	return s, nil
}

// CriticalFields returns the fields that must be filled before generation
func (r *Registry) CriticalFields(t domain.DocumentType) ([]string, error) {
	s, err := r.Schema(t)
	if err != nil {
		return nil, err
	}
	return append([]string{}, s.CriticalFields...), nil
}

// Question returns the prompt for a field, or a generic one when none is registered
func (r *Registry) Question(t domain.DocumentType, field string) string {
	if s, ok := r.schemas[t]; ok {
		for _, f := range s.Fields {
			if f.Name == field && f.Question != "" {
				return f.Question
			}
		}
	}
	return fmt.Sprintf("What is the value for %s?", field)
}

// Schemas returns every schema in enumeration order
func (r *Registry) Schemas() []*Schema {
	out := make([]*Schema, 0, len(domain.DocumentTypes))
	for _, t := range domain.DocumentTypes {
		if s, ok := r.schemas[t]; ok {
			out = append(out, s)
		}
	}
	return out
}
