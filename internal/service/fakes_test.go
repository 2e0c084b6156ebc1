package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/liliang-cn/docflow/internal/domain"
	"github.com/liliang-cn/docflow/internal/oracle"
)

var errUnreachable = errors.New("connection refused")

type fakeClassifier struct {
	result oracle.Result[domain.DocumentType]
	err    error
	calls  int
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (oracle.Result[domain.DocumentType], error) {
	f.calls++
	return f.result, f.err
}

// fakeExtractor answers each call with the next scripted step; the last step repeats
type extractStep struct {
	result oracle.Result[domain.Record]
	err    error
}

type fakeExtractor struct {
	mu         sync.Mutex
	steps      []extractStep
	calls      int
	simplified []bool
}

func (f *fakeExtractor) Extract(ctx context.Context, text string, fields []oracle.FieldSpec, simplified bool) (oracle.Result[domain.Record], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.simplified = append(f.simplified, simplified)
	i := f.calls
	if i >= len(f.steps) {
		i = len(f.steps) - 1
	}
	f.calls++
	s := f.steps[i]
	return s.result, s.err
}

func okRecord(rec domain.Record) extractStep {
	return extractStep{result: oracle.Ok(rec, "{}")}
}

type fakeGenerator struct {
	mu    sync.Mutex
	err   error
	calls []GenerationRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("artifact-%d", len(f.calls)), nil
}

type memoryArtifactRepo struct {
	mu        sync.Mutex
	artifacts []*domain.Artifact
	err       error
}

func (r *memoryArtifactRepo) Create(a *domain.Artifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	a.ID = fmt.Sprintf("a-%d", len(r.artifacts)+1)
	a.Size = len(a.Content)
	r.artifacts = append(r.artifacts, a)
	return nil
}

func (r *memoryArtifactRepo) Get(id string) (*domain.Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.artifacts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryArtifactRepo) List(limit, offset int) ([]*domain.Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if offset >= len(r.artifacts) {
		return []*domain.Artifact{}, nil
	}
	end := offset + limit
	if end > len(r.artifacts) {
		end = len(r.artifacts)
	}
	return r.artifacts[offset:end], nil
}

func (r *memoryArtifactRepo) Count() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.artifacts), nil
}

// stalledClassifier never answers; it returns when ctx is done
type stalledClassifier struct{}

func (stalledClassifier) Classify(ctx context.Context, text string) (oracle.Result[domain.DocumentType], error) {
	<-ctx.Done()
	return oracle.Result[domain.DocumentType]{}, ctx.Err()
}

// gatedExtractor blocks every call until release is closed or ctx is done.
// A nil release blocks until ctx is done.
type gatedExtractor struct {
	started chan struct{}
	release chan struct{}

	mu         sync.Mutex
	simplified []bool
}

func (g *gatedExtractor) Extract(ctx context.Context, text string, fields []oracle.FieldSpec, simplified bool) (oracle.Result[domain.Record], error) {
	g.mu.Lock()
	g.simplified = append(g.simplified, simplified)
	g.mu.Unlock()

	if g.started != nil {
		select {
		case g.started <- struct{}{}:
		default:
		}
	}
	select {
	case <-g.release:
		return oracle.Ok(domain.Record{}, "{}"), nil
	case <-ctx.Done():
		return oracle.Result[domain.Record]{}, ctx.Err()
	}
}

func (g *gatedExtractor) attempts() []bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]bool{}, g.simplified...)
}
