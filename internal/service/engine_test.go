package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/docflow/internal/domain"
	"github.com/liliang-cn/docflow/internal/oracle"
	"github.com/liliang-cn/docflow/internal/repository"
	"github.com/liliang-cn/docflow/internal/safety"
	"github.com/liliang-cn/docflow/internal/schema"
)

const threeSensitiveItems = "CURP GODE561231HDFRRN09, card 4111 1111 1111 1111, CLABE 012345678901234567"

type engineFixture struct {
	engine     *Engine
	classifier *fakeClassifier
	extractor  *fakeExtractor
	generator  *fakeGenerator
	store      *repository.SessionStore
}

func newEngineFixture(t *testing.T, steps ...extractStep) *engineFixture {
	t.Helper()
	if len(steps) == 0 {
		steps = []extractStep{okRecord(domain.Record{})}
	}
	f := &engineFixture{
		classifier: &fakeClassifier{result: oracle.Ok(domain.DocumentTypeBaseContract, "base_contract")},
		extractor:  &fakeExtractor{steps: steps},
		generator:  &fakeGenerator{},
		store:      repository.NewSessionStore(time.Hour),
	}
	reg := schema.NewRegistry()
	gate := safety.NewGate(safety.NewScanner(0), nil, time.Second, nil)
	f.engine = NewEngine(
		reg,
		gate,
		NewClassifier(f.classifier, time.Second, nil),
		NewExtractor(f.extractor, time.Second, nil),
		NewHandoff(f.generator, nil),
		f.store,
		time.Hour,
		nil,
	)
	return f
}

func (f *engineFixture) turn(t *testing.T, sessionID, message string) *domain.ChatResponse {
	t.Helper()
	resp, err := f.engine.HandleTurn(context.Background(), domain.ChatRequest{SessionID: sessionID, Message: message})
	require.NoError(t, err)
	return resp
}

func TestEngine_BaseContractConversation(t *testing.T) {
	f := newEngineFixture(t,
		okRecord(domain.Record{"name": "Wedding of Ana", "date": "12/05/2025", "location": "Salon Real"}),
		okRecord(domain.Record{"type": "wedding"}),
	)

	resp := f.turn(t, "s1", "Hello, I want to organize an event")
	assert.Equal(t, domain.StepGatheringData, resp.Step)
	assert.Equal(t, domain.DocumentTypeBaseContract, resp.DocumentType)
	assert.Equal(t, []string{"name", "date", "location", "type"}, resp.MissingFields)
	assert.Equal(t, 0, f.extractor.calls, "classification turn does not extract")

	resp = f.turn(t, "s1", "Wedding of Ana, 12/05/2025 at Salon Real")
	assert.Equal(t, domain.StepAskingFollowUp, resp.Step)
	assert.Equal(t, []string{"type"}, resp.MissingFields)
	assert.Len(t, resp.Questions, 1)
	assert.Equal(t, 75, resp.Progress.CompletionRate)
	assert.Equal(t, "Salon Real", resp.ExtractedData["location"])

	resp = f.turn(t, "s1", "It is a wedding")
	assert.Equal(t, domain.StepReadyToGenerate, resp.Step)
	assert.Empty(t, resp.MissingFields)
	assert.Equal(t, 100, resp.Progress.CompletionRate)
	assert.Empty(t, f.generator.calls, "generation waits for the next turn")

	resp = f.turn(t, "s1", "go ahead")
	assert.Equal(t, domain.StepGenerated, resp.Step)
	assert.True(t, resp.Complete)
	assert.Equal(t, "artifact-1", resp.ArtifactRef)
	require.Len(t, f.generator.calls, 1)
	assert.Equal(t, "wedding", f.generator.calls[0].Data["type"])

	resp = f.turn(t, "s1", "thanks!")
	assert.Equal(t, domain.StepGenerated, resp.Step)
	assert.Len(t, f.generator.calls, 1)

	resp = f.turn(t, "s1", "I need a new document")
	assert.Equal(t, domain.StepSelectingType, resp.Step)
	assert.False(t, resp.Complete)
	assert.Empty(t, resp.ArtifactRef)
	assert.Empty(t, resp.ExtractedData)

	sess, err := f.engine.Session("s1")
	require.NoError(t, err)
	assert.Len(t, sess.History, 12)
	assert.Equal(t, domain.RoleUser, sess.History[0].Role)
	assert.Equal(t, domain.RoleAssistant, sess.History[1].Role)
}

func TestEngine_BlockedTurnLeavesSessionUnchanged(t *testing.T) {
	f := newEngineFixture(t)
	f.turn(t, "s1", "Hello, I want to organize an event")

	before, err := f.engine.Session("s1")
	require.NoError(t, err)

	resp := f.turn(t, "s1", threeSensitiveItems)
	assert.True(t, resp.Blocked)
	assert.GreaterOrEqual(t, len(resp.Warnings), 3)
	assert.Equal(t, domain.StepGatheringData, resp.Step)

	after, err := f.engine.Session("s1")
	require.NoError(t, err)
	assert.Equal(t, before.Step, after.Step)
	assert.Equal(t, before.ExtractedData, after.ExtractedData)
	assert.Len(t, after.History, len(before.History))
	assert.Equal(t, 0, f.extractor.calls)
}

func TestEngine_BlockedFirstTurnCreatesEmptySession(t *testing.T) {
	f := newEngineFixture(t)

	resp := f.turn(t, "", threeSensitiveItems)
	assert.True(t, resp.Blocked)
	assert.Equal(t, domain.StepSelectingType, resp.Step)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, 0, f.classifier.calls)
}

func TestEngine_ExtractionFailureKeepsData(t *testing.T) {
	f := newEngineFixture(t,
		okRecord(domain.Record{"name": "Wedding of Ana"}),
		extractStep{err: errUnreachable},
	)
	f.turn(t, "s1", "event please")
	f.turn(t, "s1", "Wedding of Ana")

	resp := f.turn(t, "s1", "the rest later")
	assert.Equal(t, domain.StepAskingFollowUp, resp.Step)
	assert.Equal(t, "Wedding of Ana", resp.ExtractedData["name"])
	assert.Equal(t, []string{"date", "location", "type"}, resp.MissingFields)
}

func TestEngine_GenerationFailureReturnsToFollowUp(t *testing.T) {
	complete := domain.Record{"name": "Wedding of Ana", "date": "12/05/2025", "location": "Salon Real", "type": "wedding"}
	f := newEngineFixture(t, okRecord(complete))
	f.generator.err = errors.New("disk full")

	f.turn(t, "s1", "event please")
	resp := f.turn(t, "s1", "all the details")
	require.Equal(t, domain.StepReadyToGenerate, resp.Step)

	resp = f.turn(t, "s1", "generate it")
	assert.Equal(t, domain.StepAskingFollowUp, resp.Step)
	assert.False(t, resp.Complete)
	assert.Empty(t, resp.ArtifactRef)
	for k, v := range complete {
		assert.Equal(t, v, resp.ExtractedData[k])
	}

	f.generator.err = nil
	resp = f.turn(t, "s1", "yes, everything is right")
	assert.Equal(t, domain.StepReadyToGenerate, resp.Step)
	resp = f.turn(t, "s1", "generate it")
	assert.Equal(t, domain.StepGenerated, resp.Step)
	assert.NotEmpty(t, resp.ArtifactRef)
}

func TestEngine_ExplicitDocumentTypeSkipsClassification(t *testing.T) {
	f := newEngineFixture(t)

	resp, err := f.engine.HandleTurn(context.Background(), domain.ChatRequest{
		SessionID:    "s1",
		Message:      "hi",
		DocumentType: domain.DocumentTypeSetupSpec,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentTypeSetupSpec, resp.DocumentType)
	assert.Equal(t, 0, f.classifier.calls)
}

func TestEngine_InvalidRequests(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.HandleTurn(context.Background(), domain.ChatRequest{Message: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = f.engine.HandleTurn(context.Background(), domain.ChatRequest{Message: "hi", DocumentType: "annex_z"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Equal(t, 0, f.engine.ActiveSessions())
}

func TestEngine_AssignsSessionID(t *testing.T) {
	f := newEngineFixture(t)

	resp := f.turn(t, "", "hello")
	require.NotEmpty(t, resp.SessionID)

	sess, err := f.engine.Session(resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepGatheringData, sess.Step)
}

func TestEngine_SessionAndReset(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Session("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.engine.Reset("missing"), domain.ErrNotFound)

	f.turn(t, "s1", "hello")
	require.NoError(t, f.engine.Reset("s1"))
	_, err = f.engine.Session("s1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	resp := f.turn(t, "s1", "hello again")
	assert.Equal(t, domain.StepGatheringData, resp.Step)
}

func TestEngine_SessionViewIsACopy(t *testing.T) {
	f := newEngineFixture(t)
	f.turn(t, "s1", "hello")

	sess, err := f.engine.Session("s1")
	require.NoError(t, err)
	sess.Step = domain.StepGenerated
	sess.History = nil

	again, err := f.engine.Session("s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepGatheringData, again.Step)
	assert.Len(t, again.History, 2)
}

func TestEngine_ConcurrentTurnsOnOneSession(t *testing.T) {
	f := newEngineFixture(t)
	const n = 20

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.engine.HandleTurn(context.Background(), domain.ChatRequest{
				SessionID: "shared",
				Message:   fmt.Sprintf("message %d", i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	sess, err := f.engine.Session("shared")
	require.NoError(t, err)
	assert.Len(t, sess.History, 2*n)
	for i := 0; i < len(sess.History); i += 2 {
		assert.Equal(t, domain.RoleUser, sess.History[i].Role)
		assert.Equal(t, domain.RoleAssistant, sess.History[i+1].Role)
	}
	assert.Equal(t, 1, f.classifier.calls)
}

func TestEngine_EvictExpired(t *testing.T) {
	f := newEngineFixture(t)

	f.engine.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	f.turn(t, "old", "hello")
	f.engine.now = time.Now
	f.turn(t, "fresh", "hello")

	assert.Equal(t, 1, f.engine.EvictExpired())
	assert.Equal(t, 1, f.engine.ActiveSessions())

	_, err := f.engine.Session("old")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.engine.Session("fresh")
	assert.NoError(t, err)
}

func TestIsNewDocumentRequest(t *testing.T) {
	assert.True(t, isNewDocumentRequest("Can we START OVER?"))
	assert.True(t, isNewDocumentRequest("quiero otro documento"))
	assert.False(t, isNewDocumentRequest("thank you"))
	assert.False(t, isNewDocumentRequest("could you add a new one-page summary"))
}

func TestEngine_ReadySessionWithGapsDoesNotGenerate(t *testing.T) {
	f := newEngineFixture(t)

	sess := domain.NewSession("s1", time.Now())
	sess.Step = domain.StepReadyToGenerate
	sess.DocumentType = domain.DocumentTypeBaseContract
	sess.ExtractedData = domain.Record{"name": "Wedding of Ana", "date": "12/05/2025", "location": "Salon Real", "type": ""}
	f.store.Put(sess)

	resp := f.turn(t, "s1", "generate it")
	assert.Equal(t, domain.StepAskingFollowUp, resp.Step)
	assert.Equal(t, []string{"type"}, resp.MissingFields)
	assert.Len(t, resp.Questions, 1)
	assert.False(t, resp.Complete)
	assert.Empty(t, f.generator.calls)
}

func TestEngine_EvictionDoesNotStallOtherSessions(t *testing.T) {
	extractor := &gatedExtractor{started: make(chan struct{}, 1), release: make(chan struct{})}
	store := repository.NewSessionStore(0)
	e := NewEngine(
		schema.NewRegistry(),
		safety.NewGate(safety.NewScanner(0), nil, time.Second, nil),
		NewClassifier(nil, 0, nil),
		NewExtractor(extractor, 0, nil),
		NewHandoff(&fakeGenerator{}, nil),
		store,
		time.Hour,
		nil,
	)
	ctx := context.Background()

	e.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	_, err := e.HandleTurn(ctx, domain.ChatRequest{SessionID: "slow", Message: "hello"})
	require.NoError(t, err)
	e.now = time.Now
	_, err = e.HandleTurn(ctx, domain.ChatRequest{SessionID: "other", Message: "hello"})
	require.NoError(t, err)

	turnDone := make(chan struct{})
	go func() {
		defer close(turnDone)
		_, err := e.HandleTurn(ctx, domain.ChatRequest{SessionID: "slow", Message: "details"})
		assert.NoError(t, err)
	}()
	<-extractor.started

	evicted := make(chan int, 1)
	go func() { evicted <- e.EvictExpired() }()
	time.Sleep(20 * time.Millisecond)

	read := make(chan error, 1)
	go func() {
		_, err := e.Session("other")
		read <- err
	}()
	select {
	case err := <-read:
		assert.NoError(t, err)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("reading an unrelated session waited for the sweep")
	}

	select {
	case <-evicted:
		t.Fatal("eviction finished while the session's turn was in flight")
	default:
	}

	close(extractor.release)
	<-turnDone
	assert.Equal(t, 1, <-evicted)

	_, err = e.Session("slow")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.Session("other")
	assert.NoError(t, err)
}
