package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sight-gateway/internal/config"
	"sight-gateway/internal/dto"
	"sight-gateway/internal/pkg/logger"
	"sight-gateway/internal/repository/memory"
	"sight-gateway/pkg/completion"
	"sight-gateway/pkg/rag/conversation"
	"sight-gateway/pkg/retrieval"
)

type fakeSearcher struct {
	hits        []retrieval.Hit
	err         error
	gotQuestion string
}

func (f *fakeSearcher) Search(ctx context.Context, question string) ([]retrieval.Hit, error) {
	f.gotQuestion = question
	return f.hits, f.err
}

type fakeCompletion struct {
	answer     string
	createErr  error
	chunks     []completion.StreamChunk
	streamErr  error
	convId     string
	gotRequest *completion.Request
}

func (f *fakeCompletion) Create(ctx context.Context, req *completion.Request) (string, error) {
	f.gotRequest = req
	return f.answer, f.createErr
}

func (f *fakeCompletion) Stream(ctx context.Context, req *completion.Request) (<-chan completion.StreamChunk, error) {
	f.gotRequest = req
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	ch := make(chan completion.StreamChunk)
	go func() {
		defer close(ch)
		for _, c := range f.chunks {
			ch <- c
		}
	}()
	return ch, nil
}

func (f *fakeCompletion) CreateConversation(ctx context.Context, items []completion.Message) (string, error) {
	return f.convId, nil
}

type fakePublisher struct {
	published [][]byte
}

func (f *fakePublisher) Publish(ctx context.Context, payload []byte) error {
	f.published = append(f.published, payload)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Model: config.ModelConfig{
			Model:              "gpt-test",
			MaxTokens:          256,
			ReasoningEffort:    "low",
			SystemInstructions: "be helpful",
		},
		Search: config.SearchConfig{
			TopK:               5,
			MaxCharsPerContent: 100,
		},
	}
}

func newTestService(searcher retrieval.Searcher, comp *fakeCompletion, pub *fakePublisher) IGatewayService {
	log := logger.NewNopLogger()
	mgr := conversation.NewManager(comp, memory.NewConversationRepository(), "be helpful", log)
	return NewGatewayService(testConfig(), searcher, comp, mgr, pub, log)
}

func TestAnswerNewConversation(t *testing.T) {
	searcher := &fakeSearcher{hits: []retrieval.Hit{{Filename: "a.txt", Text: "alpha"}}}
	comp := &fakeCompletion{answer: "the answer", convId: "conv_new"}
	pub := &fakePublisher{}
	svc := newTestService(searcher, comp, pub)

	res, err := svc.Answer(context.Background(), &dto.QueryRequest{Question: "what is alpha?"})
	require.NoError(t, err)

	assert.Equal(t, "the answer", res.Answer)
	assert.Equal(t, "conv_new", res.ConversationId)
	assert.Equal(t, "what is alpha?", searcher.gotQuestion)

	require.NotNil(t, comp.gotRequest)
	assert.Equal(t, "gpt-test", comp.gotRequest.Model)
	assert.Equal(t, "conv_new", comp.gotRequest.Conversation)
	assert.Equal(t, 256, comp.gotRequest.MaxOutputTokens)
	require.Len(t, comp.gotRequest.Input, 1)
	assert.Equal(t, "user", comp.gotRequest.Input[0].Role)
	assert.Contains(t, comp.gotRequest.Input[0].Content, "Sources: <sources>")
	assert.Contains(t, comp.gotRequest.Input[0].Content, "Query: 'what is alpha?'")
	assert.False(t, comp.gotRequest.Store)

	assert.Len(t, pub.published, 1)
}

func TestAnswerReusesSuppliedConversation(t *testing.T) {
	searcher := &fakeSearcher{}
	comp := &fakeCompletion{answer: "ok", convId: "conv_should_not_be_used"}
	svc := newTestService(searcher, comp, &fakePublisher{})

	res, err := svc.Answer(context.Background(), &dto.QueryRequest{
		Question:       "follow up",
		ConversationId: "conv_123",
	})
	require.NoError(t, err)
	assert.Equal(t, "conv_123", res.ConversationId)
	assert.Equal(t, "conv_123", comp.gotRequest.Conversation)
}

func TestAnswerRetrievalError(t *testing.T) {
	wantErr := errors.New("retrieval down")
	searcher := &fakeSearcher{err: wantErr}
	svc := newTestService(searcher, &fakeCompletion{convId: "conv_x"}, &fakePublisher{})

	_, err := svc.Answer(context.Background(), &dto.QueryRequest{Question: "q"})
	assert.ErrorIs(t, err, wantErr)
}

func TestStreamEmitsTokensThenDone(t *testing.T) {
	searcher := &fakeSearcher{}
	comp := &fakeCompletion{
		convId: "conv_stream",
		chunks: []completion.StreamChunk{{Delta: "Hel"}, {Delta: "lo"}},
	}
	pub := &fakePublisher{}
	svc := newTestService(searcher, comp, pub)

	handle, err := svc.Stream(context.Background(), &dto.QueryRequest{Question: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "conv_stream", handle.ConversationId)
	assert.True(t, comp.gotRequest.Store)

	var events []interface{}
	for event := range handle.Events {
		events = append(events, event)
	}
	require.Len(t, events, 3)

	token, ok := events[0].(dto.TokenEvent)
	require.True(t, ok)
	assert.Equal(t, dto.StreamEventToken, token.Type)
	assert.Equal(t, "Hel", token.Token)

	done, ok := events[2].(dto.DoneEvent)
	require.True(t, ok)
	assert.Equal(t, dto.StreamEventDone, done.Type)
	assert.Equal(t, "Hello", done.Answer)
	assert.Equal(t, "conv_stream", done.ConversationId)

	assert.Len(t, pub.published, 1)
}

func TestStreamMidflightErrorEndsWithoutDone(t *testing.T) {
	searcher := &fakeSearcher{}
	comp := &fakeCompletion{
		convId: "conv_err",
		chunks: []completion.StreamChunk{
			{Delta: "par"},
			{Err: errors.New("backend dropped")},
		},
	}
	pub := &fakePublisher{}
	svc := newTestService(searcher, comp, pub)

	handle, err := svc.Stream(context.Background(), &dto.QueryRequest{Question: "hi"})
	require.NoError(t, err)

	var events []interface{}
	for event := range handle.Events {
		events = append(events, event)
	}
	require.Len(t, events, 2)

	errEvent, ok := events[1].(dto.ErrorEvent)
	require.True(t, ok)
	assert.Equal(t, dto.StreamEventError, errEvent.Type)
	assert.Contains(t, errEvent.Message, "backend dropped")

	// No done event, no audit entry for a failed stream.
	assert.Empty(t, pub.published)
}

func TestStreamOpenErrorReturnsBeforeHandle(t *testing.T) {
	wantErr := errors.New("cannot open stream")
	searcher := &fakeSearcher{}
	comp := &fakeCompletion{convId: "conv_x", streamErr: wantErr}
	svc := newTestService(searcher, comp, &fakePublisher{})

	_, err := svc.Stream(context.Background(), &dto.QueryRequest{Question: "q"})
	assert.ErrorIs(t, err, wantErr)
}
