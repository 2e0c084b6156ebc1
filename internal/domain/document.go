package domain

import (
	"strings"
	"time"
)

// DocumentType is one of the fixed document shapes the service can produce
type DocumentType string

// Document types
const (
	DocumentTypeBaseContract  DocumentType = "base_contract"
	DocumentTypeSetupSpec     DocumentType = "setup_spec"
	DocumentTypeRenderThemes  DocumentType = "render_themes"
	DocumentTypeChangeControl DocumentType = "change_control"
	DocumentTypeFinalDelivery DocumentType = "final_delivery"
)

// DocumentTypes lists every document type in declaration order
var DocumentTypes = []DocumentType{
	DocumentTypeBaseContract,
	DocumentTypeSetupSpec,
	DocumentTypeRenderThemes,
	DocumentTypeChangeControl,
	DocumentTypeFinalDelivery,
}

// Valid reports whether t belongs to the enumeration
func (t DocumentType) Valid() bool {
	for _, dt := range DocumentTypes {
		if dt == t {
			return true
		}
	}
	return false
}

// ParseDocumentType normalises free text into a document type.
// Quotes, trailing punctuation, case and spaces/dashes are tolerated.
func ParseDocumentType(raw string) (DocumentType, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Trim(s, "\"'`.,;:!*[]() \n\t")
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	t := DocumentType(s)
	if !t.Valid() {
		return "", false
	}
	return t, true
}

// Record maps field names to extracted values.
// Absent keys and empty values both mean "not yet known".
type Record map[string]string

// Clone returns an independent copy of the record
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Filled counts the fields holding a non-empty value
func (r Record) Filled() int {
	n := 0
	for _, v := range r {
		if v != "" {
			n++
		}
	}
	return n
}

// Artifact is a generated document stored by the artifact store
type Artifact struct {
	ID           string       `json:"id"`
	SessionID    string       `json:"session_id,omitempty"`
	DocumentType DocumentType `json:"document_type"`
	FileName     string       `json:"file_name"`
	Content      string       `json:"content,omitempty"`
	Data         Record       `json:"data"`
	Size         int          `json:"size"`
	CreatedAt    time.Time    `json:"created_at"`
}

// ArtifactListResponse is a page of artifact summaries
type ArtifactListResponse struct {
	Artifacts []*Artifact `json:"artifacts"`
	Total     int         `json:"total"`
	Page      int         `json:"page"`
	PageSize  int         `json:"page_size"`
}
