package domain

import "errors"

var (
	// ErrNotFound indicates resource not found
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidRequest indicates invalid request
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnknownDocumentType indicates a tag outside the document type enumeration
	ErrUnknownDocumentType = errors.New("unknown document type")
	// ErrOracleUnavailable indicates an external oracle could not be reached
	ErrOracleUnavailable = errors.New("oracle unavailable")
	// ErrContentBlocked indicates the safety gate rejected the text
	ErrContentBlocked = errors.New("content blocked")
	// ErrGenerationFailed indicates the artifact generator did not produce a document
	ErrGenerationFailed = errors.New("document generation failed")
)
