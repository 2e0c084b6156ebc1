package domain

import "time"

// Step is the conversation state machine value
type Step string

// Conversation steps
const (
	StepSelectingType   Step = "selecting_type"
	StepGatheringData   Step = "gathering_data"
	StepAskingFollowUp  Step = "asking_follow_up"
	StepReadyToGenerate Step = "ready_to_generate"
	StepGenerated       Step = "generated"
)

// Label returns a human readable name for the step
func (s Step) Label() string {
	switch s {
	case StepSelectingType:
		return "Identifying document type"
	case StepGatheringData:
		return "Gathering information"
	case StepAskingFollowUp:
		return "Requesting missing information"
	case StepReadyToGenerate:
		return "Ready to generate document"
	case StepGenerated:
		return "Document generated"
	default:
		return "Processing"
	}
}

// History roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// HistoryEntry is one line of the conversation log
type HistoryEntry struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the state of one conversation
type Session struct {
	ID            string         `json:"id"`
	Step          Step           `json:"step"`
	DocumentType  DocumentType   `json:"document_type,omitempty"`
	ExtractedData Record         `json:"extracted_data"`
	MissingFields []string       `json:"missing_fields"`
	History       []HistoryEntry `json:"history"`
	IsComplete    bool           `json:"is_complete"`
	ArtifactRef   string         `json:"artifact_ref,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NewSession returns a session in the selecting_type step
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:            id,
		Step:          StepSelectingType,
		ExtractedData: Record{},
		MissingFields: []string{},
		History:       []HistoryEntry{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Append adds an entry to the history
func (s *Session) Append(role, text string, at time.Time) {
	s.History = append(s.History, HistoryEntry{Role: role, Text: text, Timestamp: at})
}

// Clone returns a deep copy safe to hand out of the engine
func (s *Session) Clone() *Session {
	c := *s
	c.ExtractedData = s.ExtractedData.Clone()
	c.MissingFields = append([]string{}, s.MissingFields...)
	c.History = append([]HistoryEntry{}, s.History...)
	return &c
}
