package service

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/liliang-cn/docflow/internal/domain"
	"github.com/liliang-cn/docflow/internal/schema"
)

// ArtifactRepository persists generated documents
type ArtifactRepository interface {
	Create(artifact *domain.Artifact) error
	Get(id string) (*domain.Artifact, error)
	List(limit, offset int) ([]*domain.Artifact, error)
	Count() (int, error)
}

var documentTemplate = template.Must(template.New("document").Parse(`# {{.Title}}

Generated: {{.GeneratedAt}}
{{- if .SessionID}}
Session: {{.SessionID}}
{{- end}}

{{range .Lines -}}
- **{{.Label}}**: {{.Value}}
{{end -}}
`))

type documentLine struct {
	Label string
	Value string
}

type documentView struct {
	Title       string
	GeneratedAt string
	SessionID   string
	Lines       []documentLine
}

// ArtifactService renders complete records as Markdown and stores them
type ArtifactService struct {
	registry *schema.Registry
	repo     ArtifactRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewArtifactService creates a new artifact service
func NewArtifactService(registry *schema.Registry, repo ArtifactRepository, logger *zap.Logger) *ArtifactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArtifactService{
		registry: registry,
		repo:     repo,
		logger:   logger.Named("artifacts"),
		now:      time.Now,
	}
}

// Generate renders and stores the document, returning the artifact id
func (s *ArtifactService) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	content, err := s.Render(req)
	if err != nil {
		return "", err
	}

	artifact := &domain.Artifact{
		SessionID:    req.SessionID,
		DocumentType: req.DocumentType,
		FileName:     fmt.Sprintf("%s_%s.md", req.DocumentType, s.now().UTC().Format("20060102_150405")),
		Content:      content,
		Data:         req.Data.Clone(),
	}
	if err := s.repo.Create(artifact); err != nil {
		return "", fmt.Errorf("failed to store artifact: %w", err)
	}

	s.logger.Info("artifact stored",
		zap.String("artifact_id", artifact.ID),
		zap.String("document_type", string(artifact.DocumentType)),
		zap.Int("size", artifact.Size),
	)
	return artifact.ID, nil
}

// Render produces the Markdown body for a record, one line per schema field
func (s *ArtifactService) Render(req GenerationRequest) (string, error) {
	sch, err := s.registry.Schema(req.DocumentType)
	if err != nil {
		return "", err
	}

	view := documentView{
		Title:       sch.DisplayName,
		GeneratedAt: s.now().UTC().Format(time.RFC3339),
		SessionID:   req.SessionID,
		Lines:       make([]documentLine, 0, len(sch.Fields)),
	}
	for _, f := range sch.Fields {
		value := req.Data[f.Name]
		if value == "" {
			value = "-"
		}
		view.Lines = append(view.Lines, documentLine{Label: f.Name, Value: value})
	}

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}
	return buf.String(), nil
}

// Get returns a stored artifact with its content
func (s *ArtifactService) Get(ctx context.Context, id string) (*domain.Artifact, error) {
	return s.repo.Get(id)
}

// List returns a page of artifact summaries
func (s *ArtifactService) List(ctx context.Context, page, pageSize int) (*domain.ArtifactListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	artifacts, err := s.repo.List(pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count()
	if err != nil {
		return nil, err
	}

	return &domain.ArtifactListResponse{
		Artifacts: artifacts,
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
	}, nil
}

// Count returns the number of stored artifacts
func (s *ArtifactService) Count(ctx context.Context) (int, error) {
	return s.repo.Count()
}
