// Package oracle defines the narrow contracts to the external text-understanding
// capabilities and an OpenAI-backed implementation of them.
//
// Oracle output is never trusted to be well typed. Classification and extraction
// return a Result that is either Ok (parsed) or Malformed (raw text kept), and a
// non-nil error only when the oracle could not be reached at all.
package oracle

import (
	"context"

	"github.com/liliang-cn/docflow/internal/domain"
)

// FieldSpec is the per-field hint sent to the extraction oracle
type FieldSpec struct {
	Name        string
	Description string
}

// Verdict is the answer of the moderation oracle
type Verdict struct {
	Flagged    bool
	Categories []string
}

// Classifier maps free text to a document type tag
type Classifier interface {
	Classify(ctx context.Context, text string) (Result[domain.DocumentType], error)
}

// Extractor maps free text to values for the requested fields.
// simplified asks for a shorter prompt, used on retry.
type Extractor interface {
	Extract(ctx context.Context, text string, fields []FieldSpec, simplified bool) (Result[domain.Record], error)
}

// Moderator flags inappropriate content
type Moderator interface {
	Moderate(ctx context.Context, text string) (Verdict, error)
}

// Result is either a parsed value or the raw text that failed to parse
type Result[T any] struct {
	value T
	raw   string
	ok    bool
}

// Ok wraps a successfully parsed value
func Ok[T any](v T, raw string) Result[T] {
	return Result[T]{value: v, raw: raw, ok: true}
}

// Malformed wraps raw oracle output that could not be parsed
func Malformed[T any](raw string) Result[T] {
	return Result[T]{raw: raw}
}

// Value returns the parsed value and whether the result is Ok
func (r Result[T]) Value() (T, bool) {
	return r.value, r.ok
}

// Raw returns the oracle's raw text
func (r Result[T]) Raw() string {
	return r.raw
}
