package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/liliang-cn/docflow/internal/domain"
	"github.com/liliang-cn/docflow/internal/oracle"
	"github.com/liliang-cn/docflow/internal/schema"
)

// Extractor turns free text into a record shaped by a schema
type Extractor struct {
	oracle  oracle.Extractor
	timeout time.Duration
	logger  *zap.Logger
}

// NewExtractor creates an extractor. A nil oracle always yields empty records.
func NewExtractor(o oracle.Extractor, timeout time.Duration, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{oracle: o, timeout: timeout, logger: logger.Named("extractor")}
}

// Extract returns the schema fields found in text. On oracle failure, after one
// retry with a simplified prompt, it returns an empty record.
func (e *Extractor) Extract(ctx context.Context, text string, s *schema.Schema) domain.Record {
	if e.oracle == nil {
		return domain.Record{}
	}

	fields := make([]oracle.FieldSpec, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = oracle.FieldSpec{Name: f.Name, Description: f.Description}
	}

	for _, simplified := range []bool{false, true} {
		rec, ok := e.attempt(ctx, text, fields, simplified)
		if ok {
			return Normalize(rec, s)
		}
	}
	e.logger.Warn("extraction failed after retry, returning empty record",
		zap.String("document_type", string(s.DocumentType)))
	return domain.Record{}
}

func (e *Extractor) attempt(ctx context.Context, text string, fields []oracle.FieldSpec, simplified bool) (domain.Record, bool) {
	ctx, cancel := withTimeout(ctx, e.timeout)
	defer cancel()

	res, err := e.oracle.Extract(ctx, text, fields, simplified)
	if err != nil {
		e.logger.Warn("extraction oracle unavailable", zap.Bool("simplified", simplified), zap.Error(err))
		return nil, false
	}
	rec, ok := res.Value()
	if !ok {
		e.logger.Info("extraction output malformed", zap.Bool("simplified", simplified), zap.String("raw", truncate(res.Raw(), 80)))
		return nil, false
	}
	return rec, true
}

// Normalize keeps only schema fields, defaults missing ones to "" and trims values
func Normalize(rec domain.Record, s *schema.Schema) domain.Record {
	out := make(domain.Record, len(s.Fields))
	for _, f := range s.Fields {
		out[f.Name] = strings.TrimSpace(rec[f.Name])
	}
	return out
}

// Merge combines incoming values into existing ones. A non-empty incoming value
// wins; an empty one keeps what was there. Neither argument is modified.
func Merge(existing, incoming domain.Record) domain.Record {
	out := existing.Clone()
	for k, v := range incoming {
		if v == "" {
			if _, ok := out[k]; !ok {
				out[k] = ""
			}
			continue
		}
		out[k] = v
	}
	return out
}
