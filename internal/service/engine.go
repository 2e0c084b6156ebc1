package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/liliang-cn/docflow/internal/domain"
	"github.com/liliang-cn/docflow/internal/safety"
	"github.com/liliang-cn/docflow/internal/schema"
)

// SessionStore keeps conversation sessions in memory
type SessionStore interface {
	Get(id string) (*domain.Session, bool)
	Put(session *domain.Session)
	Delete(id string)
	OlderThan(maxAge time.Duration) []string
	DeleteIfOlderThan(id string, maxAge time.Duration) bool
	Count() int
}

var newDocumentPhrases = []string{
	"new document", "another document", "start over",
	"nuevo", "otro documento",
}

// Engine is the conversation state machine. It owns every session mutation:
// turns for one session run one at a time, and evicting a session waits for
// that session's in-flight turn.
type Engine struct {
	registry   *schema.Registry
	gate       *safety.Gate
	classifier *Classifier
	extractor  *Extractor
	handoff    *Handoff
	store      SessionStore
	ttl        time.Duration
	logger     *zap.Logger
	now        func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewEngine wires the conversation engine
func NewEngine(
	registry *schema.Registry,
	gate *safety.Gate,
	classifier *Classifier,
	extractor *Extractor,
	handoff *Handoff,
	store SessionStore,
	ttl time.Duration,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		registry:   registry,
		gate:       gate,
		classifier: classifier,
		extractor:  extractor,
		handoff:    handoff,
		store:      store,
		ttl:        ttl,
		logger:     logger.Named("engine"),
		now:        time.Now,
		locks:      make(map[string]*sessionLock),
	}
}

// HandleTurn processes one user message and returns the reply.
// Oracle and generation failures never surface as errors; only invalid requests do.
func (e *Engine) HandleTurn(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, fmt.Errorf("%w: message is empty", domain.ErrInvalidRequest)
	}
	if req.DocumentType != "" && !req.DocumentType.Valid() {
		return nil, fmt.Errorf("%w: document type %q", domain.ErrInvalidRequest, req.DocumentType)
	}

	id := req.SessionID
	if id == "" {
		id = uuid.New().String()
	}

	unlock := e.lockSession(id)
	defer unlock()

	sess, ok := e.store.Get(id)
	if !ok {
		sess = domain.NewSession(id, e.now())
		e.logger.Info("session created", zap.String("session_id", id))
	}

	verdict := e.gate.Check(ctx, text)
	if verdict.Blocked {
		e.store.Put(sess)
		reply := "Sorry, I can't process this message for safety reasons: " + strings.Join(verdict.Warnings, "; ")
		resp := e.response(sess, reply, nil, verdict.Warnings)
		resp.Blocked = true
		return resp, nil
	}

	now := e.now()
	sess.Append(domain.RoleUser, text, now)

	from := sess.Step
	var reply string
	var questions []string
	switch sess.Step {
	case domain.StepSelectingType:
		reply = e.selectType(ctx, sess, text, req.DocumentType)
	case domain.StepGatheringData, domain.StepAskingFollowUp:
		reply, questions = e.gather(ctx, sess, text)
	case domain.StepReadyToGenerate:
		reply, questions = e.generate(ctx, sess)
	case domain.StepGenerated:
		reply = e.afterCompletion(sess, text)
	default:
		e.logger.Error("session in unknown step, restarting", zap.String("session_id", id), zap.String("step", string(sess.Step)))
		e.restart(sess)
		reply = "Something went wrong. Let's start again: which document do you need for your event?"
	}

	sess.Append(domain.RoleAssistant, reply, e.now())
	sess.UpdatedAt = now
	e.store.Put(sess)

	if from != sess.Step {
		e.logger.Debug("step transition",
			zap.String("session_id", id),
			zap.String("from", string(from)),
			zap.String("to", string(sess.Step)),
		)
	}
	return e.response(sess, reply, questions, verdict.Warnings), nil
}

// Session returns a copy of the session state
func (e *Engine) Session(id string) (*domain.Session, error) {
	unlock := e.lockSession(id)
	defer unlock()

	sess, ok := e.store.Get(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sess.Clone(), nil
}

// Reset discards a session so its id starts a fresh conversation
func (e *Engine) Reset(id string) error {
	unlock := e.lockSession(id)
	defer unlock()

	if _, ok := e.store.Get(id); !ok {
		return domain.ErrNotFound
	}
	e.store.Delete(id)
	e.logger.Info("session reset", zap.String("session_id", id))
	return nil
}

// EvictExpired drops sessions older than the configured TTL and returns how many.
// Each session is locked on its own, so a slow turn only delays its own eviction.
func (e *Engine) EvictExpired() int {
	if e.ttl <= 0 {
		return 0
	}

	evicted := 0
	for _, id := range e.store.OlderThan(e.ttl) {
		unlock := e.lockSession(id)
		if e.store.DeleteIfOlderThan(id, e.ttl) {
			evicted++
		}
		unlock()
	}
	if evicted > 0 {
		e.logger.Info("sessions evicted", zap.Int("count", evicted))
	}
	return evicted
}

// ActiveSessions returns the number of sessions held in the store
func (e *Engine) ActiveSessions() int {
	return e.store.Count()
}

func (e *Engine) selectType(ctx context.Context, sess *domain.Session, text string, explicit domain.DocumentType) string {
	t := explicit
	if t == "" {
		t = e.classifier.Classify(ctx, text)
	}
	s := e.schemaFor(t)

	sess.DocumentType = s.DocumentType
	sess.MissingFields = MissingFields(sess.ExtractedData, s.CriticalFields)
	sess.Step = domain.StepGatheringData

	var b strings.Builder
	fmt.Fprintf(&b, "I identified that you need a %s for your event.\n\n", s.DisplayName)
	b.WriteString("Please share all the information you have, in particular:\n")
	for _, f := range s.CriticalFields {
		fmt.Fprintf(&b, "- %s\n", e.registry.Question(s.DocumentType, f))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (e *Engine) gather(ctx context.Context, sess *domain.Session, text string) (string, []string) {
	s := e.schemaFor(sess.DocumentType)
	first := sess.Step == domain.StepGatheringData

	extracted := e.extractor.Extract(ctx, text, s)
	sess.ExtractedData = Merge(sess.ExtractedData, extracted)
	sess.MissingFields = MissingFields(sess.ExtractedData, s.CriticalFields)

	if len(sess.MissingFields) == 0 {
		sess.Step = domain.StepReadyToGenerate
		return fmt.Sprintf("I have all the information needed for your %s. Send any message to generate the document.", s.DisplayName), nil
	}

	sess.Step = domain.StepAskingFollowUp
	questions := FollowUpQuestions(e.registry, s.DocumentType, sess.MissingFields)

	var b strings.Builder
	if first {
		fmt.Fprintf(&b, "Thanks, I recorded %d field(s). I still need some details to complete the document:\n", extracted.Filled())
	} else {
		b.WriteString("Information updated. I just need a few more details:\n")
	}
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n"), questions
}

func (e *Engine) generate(ctx context.Context, sess *domain.Session) (string, []string) {
	s := e.schemaFor(sess.DocumentType)
	sess.MissingFields = MissingFields(sess.ExtractedData, s.CriticalFields)
	if len(sess.MissingFields) > 0 {
		e.logger.Error("ready session has missing fields", zap.String("session_id", sess.ID), zap.Strings("missing", sess.MissingFields))
		sess.Step = domain.StepAskingFollowUp
		questions := FollowUpQuestions(e.registry, s.DocumentType, sess.MissingFields)
		return "Before generating I still need:\n" + numbered(questions), questions
	}

	ref, err := e.handoff.Generate(ctx, sess.ID, sess.DocumentType, sess.ExtractedData)
	if err != nil {
		e.logger.Warn("generation failed, returning to follow-up", zap.String("session_id", sess.ID), zap.Error(err))
		sess.Step = domain.StepAskingFollowUp
		return "There was a problem generating the document. Please confirm the information is correct, or send any correction, and I will try again.", nil
	}

	sess.Step = domain.StepGenerated
	sess.IsComplete = true
	sess.ArtifactRef = ref
	return fmt.Sprintf("Your %s has been generated (reference %s). Say \"new document\" if you need another one.", s.DisplayName, ref), nil
}

func (e *Engine) afterCompletion(sess *domain.Session, text string) string {
	if isNewDocumentRequest(text) {
		e.restart(sess)
		return "Let's create a new document. Which document do you need this time?"
	}
	return "Your document was already generated. Say \"new document\" to create another one."
}

// restart returns the session to selecting_type keeping id, creation time and history
func (e *Engine) restart(sess *domain.Session) {
	sess.Step = domain.StepSelectingType
	sess.DocumentType = ""
	sess.ExtractedData = domain.Record{}
	sess.MissingFields = []string{}
	sess.IsComplete = false
	sess.ArtifactRef = ""
}

// schemaFor resolves t, treating an unknown type as an assertion failure
func (e *Engine) schemaFor(t domain.DocumentType) *schema.Schema {
	s, err := e.registry.Schema(t)
	if err == nil {
		return s
	}
	e.logger.Error("document type outside registry, using base contract", zap.Error(err))
	s, err = e.registry.Schema(domain.DocumentTypeBaseContract)
	if err != nil {
		panic(err)
	}
	return s
}

func (e *Engine) response(sess *domain.Session, reply string, questions, warnings []string) *domain.ChatResponse {
	return &domain.ChatResponse{
		SessionID:     sess.ID,
		Message:       reply,
		Step:          sess.Step,
		DocumentType:  sess.DocumentType,
		Questions:     questions,
		Warnings:      warnings,
		ExtractedData: sess.ExtractedData.Clone(),
		MissingFields: append([]string{}, sess.MissingFields...),
		Progress:      e.progress(sess),
		Complete:      sess.IsComplete,
		ArtifactRef:   sess.ArtifactRef,
	}
}

func (e *Engine) progress(sess *domain.Session) domain.Progress {
	p := domain.Progress{
		Step:          sess.Step.Label(),
		MissingFields: len(sess.MissingFields),
	}
	if sess.DocumentType == "" {
		return p
	}
	critical, err := e.registry.CriticalFields(sess.DocumentType)
	if err != nil || len(critical) == 0 {
		return p
	}
	p.CompletionRate = (len(critical) - len(MissingFields(sess.ExtractedData, critical))) * 100 / len(critical)
	return p
}

func (e *Engine) lockSession(id string) func() {
	e.locksMu.Lock()
	l, ok := e.locks[id]
	if !ok {
		l = &sessionLock{}
		e.locks[id] = l
	}
	l.refs++
	e.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		e.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.locks, id)
		}
		e.locksMu.Unlock()
	}
}

func isNewDocumentRequest(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range newDocumentPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func numbered(items []string) string {
	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, it)
	}
	return strings.TrimRight(b.String(), "\n")
}
