package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/liliang-cn/docflow/internal/domain"
)

// GenerationRequest carries a complete record to the artifact generator
type GenerationRequest struct {
	SessionID    string
	DocumentType domain.DocumentType
	Data         domain.Record
}

// ArtifactGenerator renders and stores a document, returning its reference
type ArtifactGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// Handoff is the seam between the conversation engine and document generation
type Handoff struct {
	generator ArtifactGenerator
	logger    *zap.Logger
}

// NewHandoff creates a handoff over generator
func NewHandoff(generator ArtifactGenerator, logger *zap.Logger) *Handoff {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handoff{generator: generator, logger: logger.Named("handoff")}
}

// Generate returns the artifact reference or an error wrapping ErrGenerationFailed
func (h *Handoff) Generate(ctx context.Context, sessionID string, t domain.DocumentType, data domain.Record) (string, error) {
	if h.generator == nil {
		return "", fmt.Errorf("%w: no generator configured", domain.ErrGenerationFailed)
	}
	ref, err := h.generator.Generate(ctx, GenerationRequest{
		SessionID:    sessionID,
		DocumentType: t,
		Data:         data.Clone(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	if ref == "" {
		return "", fmt.Errorf("%w: generator returned no reference", domain.ErrGenerationFailed)
	}
	h.logger.Info("artifact generated",
		zap.String("session_id", sessionID),
		zap.String("document_type", string(t)),
		zap.String("artifact_ref", ref),
	)
	return ref, nil
}
