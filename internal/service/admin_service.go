package service

import (
	"context"

	"github.com/liliang-cn/docflow/internal/domain"
)

// AdminService handles admin operations
type AdminService struct {
	engine    *Engine
	artifacts *ArtifactService
}

// NewAdminService creates a new admin service
func NewAdminService(engine *Engine, artifacts *ArtifactService) *AdminService {
	return &AdminService{
		engine:    engine,
		artifacts: artifacts,
	}
}

func (s *AdminService) ListArtifacts(ctx context.Context, page, pageSize int) (*domain.ArtifactListResponse, error) {
	return s.artifacts.List(ctx, page, pageSize)
}

// EvictSessions runs an eviction sweep immediately
func (s *AdminService) EvictSessions(ctx context.Context) int {
	return s.engine.EvictExpired()
}

// Stats

func (s *AdminService) GetStats(ctx context.Context) (*domain.Stats, error) {
	total, err := s.artifacts.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.Stats{
		ActiveSessions: s.engine.ActiveSessions(),
		TotalArtifacts: total,
	}, nil
}
