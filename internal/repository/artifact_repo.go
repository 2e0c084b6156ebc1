package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/liliang-cn/docflow/internal/domain"
)

// ArtifactRepository handles generated document persistence
type ArtifactRepository struct {
	db *DB
}

// NewArtifactRepository creates a new artifact repository
func NewArtifactRepository(db *DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// Create stores a new artifact, assigning its id and creation time
func (r *ArtifactRepository) Create(artifact *domain.Artifact) error {
	if artifact.ID == "" {
		artifact.ID = uuid.New().String()
	}
	artifact.CreatedAt = time.Now().UTC()
	artifact.Size = len(artifact.Content)

	dataJSON, err := json.Marshal(artifact.Data)
	if err != nil {
		return fmt.Errorf("failed to encode artifact data: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO artifacts (id, session_id, document_type, file_name, content, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, artifact.ID, artifact.SessionID, string(artifact.DocumentType), artifact.FileName,
		artifact.Content, string(dataJSON), artifact.CreatedAt)

	return err
}

// Get retrieves an artifact with its content
func (r *ArtifactRepository) Get(id string) (*domain.Artifact, error) {
	artifact := &domain.Artifact{}
	var sessionID, dataJSON sql.NullString
	var docType string

	err := r.db.QueryRow(`
		SELECT id, session_id, document_type, file_name, content, data, created_at
		FROM artifacts WHERE id = ?
	`, id).Scan(&artifact.ID, &sessionID, &docType, &artifact.FileName,
		&artifact.Content, &dataJSON, &artifact.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	artifact.SessionID = sessionID.String
	artifact.DocumentType = domain.DocumentType(docType)
	artifact.Size = len(artifact.Content)
	artifact.Data = domain.Record{}
	if dataJSON.Valid && dataJSON.String != "" {
		if err := json.Unmarshal([]byte(dataJSON.String), &artifact.Data); err != nil {
			return nil, fmt.Errorf("failed to decode artifact data: %w", err)
		}
	}

	return artifact, nil
}

// List returns artifact summaries, newest first, without content
func (r *ArtifactRepository) List(limit, offset int) ([]*domain.Artifact, error) {
	rows, err := r.db.Query(`
		SELECT id, session_id, document_type, file_name, length(content), created_at
		FROM artifacts
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	artifacts := []*domain.Artifact{}
	for rows.Next() {
		artifact := &domain.Artifact{}
		var sessionID sql.NullString
		var docType string

		if err := rows.Scan(&artifact.ID, &sessionID, &docType, &artifact.FileName,
			&artifact.Size, &artifact.CreatedAt); err != nil {
			return nil, err
		}
		artifact.SessionID = sessionID.String
		artifact.DocumentType = domain.DocumentType(docType)
		artifacts = append(artifacts, artifact)
	}

	return artifacts, rows.Err()
}

// Count returns the total number of stored artifacts
func (r *ArtifactRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM artifacts`).Scan(&count)
	return count, err
}
