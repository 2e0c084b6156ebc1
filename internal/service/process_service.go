package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/liliang-cn/docflow/internal/domain"
	"github.com/liliang-cn/docflow/internal/safety"
	"github.com/liliang-cn/docflow/internal/schema"
)

// ProcessService handles one-shot transcript processing without a session
type ProcessService struct {
	registry   *schema.Registry
	gate       *safety.Gate
	classifier *Classifier
	extractor  *Extractor
	logger     *zap.Logger
}

// NewProcessService creates a new process service
func NewProcessService(
	registry *schema.Registry,
	gate *safety.Gate,
	classifier *Classifier,
	extractor *Extractor,
	logger *zap.Logger,
) *ProcessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessService{
		registry:   registry,
		gate:       gate,
		classifier: classifier,
		extractor:  extractor,
		logger:     logger.Named("process"),
	}
}

// Process classifies a full transcript, extracts its fields and reports the gaps
func (s *ProcessService) Process(ctx context.Context, req domain.ProcessRequest) (*domain.ProcessResult, error) {
	text := strings.TrimSpace(req.Transcript)
	if text == "" {
		return nil, fmt.Errorf("%w: transcript is empty", domain.ErrInvalidRequest)
	}
	if req.DocumentType != "" && !req.DocumentType.Valid() {
		return nil, fmt.Errorf("%w: document type %q", domain.ErrInvalidRequest, req.DocumentType)
	}

	verdict := s.gate.Check(ctx, text)
	if verdict.Blocked {
		return nil, fmt.Errorf("%w: %s", domain.ErrContentBlocked, strings.Join(verdict.Warnings, "; "))
	}

	t := req.DocumentType
	if t == "" {
		t = s.classifier.Classify(ctx, text)
	}
	sch, err := s.registry.Schema(t)
	if err != nil {
		return nil, err
	}

	data := s.extractor.Extract(ctx, text, sch)
	missing := MissingFields(data, sch.CriticalFields)

	s.logger.Info("transcript processed",
		zap.String("document_type", string(t)),
		zap.Int("filled", data.Filled()),
		zap.Int("missing", len(missing)),
	)

	return &domain.ProcessResult{
		DocumentType:  t,
		Data:          data,
		MissingFields: missing,
		Questions:     FollowUpQuestions(s.registry, t, missing),
		Warnings:      verdict.Warnings,
	}, nil
}
