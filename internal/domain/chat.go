package domain

// ChatRequest is the request to send a conversational turn
type ChatRequest struct {
	SessionID    string       `json:"session_id,omitempty"`
	Message      string       `json:"message" binding:"required"`
	DocumentType DocumentType `json:"document_type,omitempty"`
}

// Progress summarises how far a session is from generation
type Progress struct {
	Step           string `json:"step"`
	CompletionRate int    `json:"completion_rate"`
	MissingFields  int    `json:"missing_fields"`
}

// ChatResponse is the response to a conversational turn
type ChatResponse struct {
	SessionID     string       `json:"session_id"`
	Message       string       `json:"message"`
	Step          Step         `json:"step"`
	DocumentType  DocumentType `json:"document_type,omitempty"`
	Questions     []string     `json:"questions,omitempty"`
	Warnings      []string     `json:"warnings,omitempty"`
	Blocked       bool         `json:"blocked,omitempty"`
	ExtractedData Record       `json:"extracted_data,omitempty"`
	MissingFields []string     `json:"missing_fields"`
	Progress      Progress     `json:"progress"`
	Complete      bool         `json:"complete"`
	ArtifactRef   string       `json:"artifact_ref,omitempty"`
}

// ProcessRequest is the request for one-shot transcript processing
type ProcessRequest struct {
	Transcript   string       `json:"transcript" binding:"required"`
	DocumentType DocumentType `json:"document_type,omitempty"`
}

// ProcessResult is the outcome of one-shot transcript processing
type ProcessResult struct {
	DocumentType  DocumentType `json:"document_type"`
	Data          Record       `json:"data"`
	MissingFields []string     `json:"missing_fields"`
	Questions     []string     `json:"questions,omitempty"`
	Warnings      []string     `json:"warnings,omitempty"`
}

// Stats represents system statistics
type Stats struct {
	ActiveSessions int `json:"active_sessions"`
	TotalArtifacts int `json:"total_artifacts"`
}
