package orchestrator

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Cyclone1070/lumen/internal/attachment"
	"github.com/Cyclone1070/lumen/internal/provider/model"
	"github.com/Cyclone1070/lumen/internal/store"
	"github.com/Cyclone1070/lumen/internal/store/sqlite"
	"github.com/Cyclone1070/lumen/internal/tool"
	"github.com/Cyclone1070/lumen/internal/workflow"
	"github.com/Cyclone1070/lumen/internal/workflow/loop"
	"github.com/Cyclone1070/lumen/internal/workflow/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockModel implements the agent loop's model client.
type MockModel struct {
	mu           sync.Mutex
	Requests     []model.Request
	GenerateFunc func(ctx context.Context, req *model.Request) (*model.Response, error)
}

func (m *MockModel) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	m.mu.Lock()
	snapshot := *req
	snapshot.Messages = append([]model.Message(nil), req.Messages...)
	m.Requests = append(m.Requests, snapshot)
	m.mu.Unlock()
	return m.GenerateFunc(ctx, req)
}

// MockTools implements the agent loop's tool registry.
type MockTools struct {
	ExecuteFunc func(ctx context.Context, name, arguments string) (string, error)
}

func (m *MockTools) Declarations() []tool.Declaration {
	return []tool.Declaration{{Name: "web_search"}}
}

func (m *MockTools) Execute(ctx context.Context, name, arguments string) (string, error) {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, name, arguments)
	}
	return "search results", nil
}

type fixture struct {
	svc         *Service
	db          *sqlite.Store
	attachments *attachment.Store
	model       *MockModel
	tools       *MockTools
}

func newFixture(t *testing.T, generate func(ctx context.Context, req *model.Request) (*model.Response, error)) *fixture {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlite.New(filepath.Join(dir, "lumen.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mm := &MockModel{GenerateFunc: generate}
	mt := &MockTools{}
	sessions := session.NewRegistry(func(id string) *loop.Loop {
		return loop.NewLoop(mm, mt, nil, nil, loop.Config{
			ConversationID: id,
			MaxToolCalls:   3,
			ModelID:        "primary",
			TitleModelID:   "title",
		}, nil)
	}, nil)

	atts := attachment.NewStore(filepath.Join(dir, "attachments"), 0, nil)
	return &fixture{
		svc:         New(db, db, atts, sessions, 30*time.Minute, nil),
		db:          db,
		attachments: atts,
		model:       mm,
		tools:       mt,
	}
}

// answerThenTitle replies with text on the primary model and a fixed title on the title model.
func answerThenTitle(answer, title string) func(ctx context.Context, req *model.Request) (*model.Response, error) {
	return func(ctx context.Context, req *model.Request) (*model.Response, error) {
		if req.Model == "title" {
			return &model.Response{Text: title}, nil
		}
		return &model.Response{Text: answer}, nil
	}
}

func TestSend_NewConversation(t *testing.T) {
	f := newFixture(t, answerThenTitle("15 * 8 = 120", "Simple Multiplication"))
	ctx := context.Background()

	reply, err := f.svc.Send(ctx, "", "What is 15 * 8?", nil)
	require.NoError(t, err)

	assert.NotEmpty(t, reply.ConversationID)
	assert.Equal(t, "15 * 8 = 120", reply.Message.Content)
	assert.Equal(t, "Simple Multiplication", reply.Title)
	assert.False(t, reply.Failed)

	msgs, err := f.svc.Messages(ctx, reply.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "What is 15 * 8?", msgs[0].Content)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)

	conv, err := f.db.GetConversation(ctx, reply.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "Simple Multiplication", conv.Title)
}

func TestSend_TitleGeneratedOnce(t *testing.T) {
	f := newFixture(t, answerThenTitle("ok", "First Title"))
	ctx := context.Background()

	first, err := f.svc.Send(ctx, "conv", "hello", nil)
	require.NoError(t, err)
	f.model.GenerateFunc = answerThenTitle("ok again", "Second Title")
	second, err := f.svc.Send(ctx, "conv", "and again", nil)
	require.NoError(t, err)

	assert.Equal(t, "First Title", first.Title)
	assert.Equal(t, "First Title", second.Title)

	var titleCalls int
	for _, r := range f.model.Requests {
		if r.Model == "title" {
			titleCalls++
		}
	}
	assert.Equal(t, 1, titleCalls)
}

func TestSend_ToolRoundNotReplayed(t *testing.T) {
	var calls int
	f := newFixture(t, func(ctx context.Context, req *model.Request) (*model.Response, error) {
		if req.Model == "title" {
			return &model.Response{Text: "Search"}, nil
		}
		calls++
		if calls == 1 {
			return &model.Response{ToolCalls: []model.ToolCall{{ID: "t1", Name: "web_search", Arguments: `{"query":"go"}`}}}, nil
		}
		return &model.Response{Text: "answer"}, nil
	})
	ctx := context.Background()

	reply, err := f.svc.Send(ctx, "conv", "search go", nil)
	require.NoError(t, err)
	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, "Used web_search", reply.Message.ToolSummary)

	_, err = f.svc.Send(ctx, "conv", "follow up", nil)
	require.NoError(t, err)

	var last model.Request
	for _, r := range f.model.Requests {
		if r.Model == "primary" {
			last = r
		}
	}
	require.Len(t, last.Messages, 3)
	for _, m := range last.Messages {
		assert.Empty(t, m.ToolCalls)
	}
	assert.Equal(t, "answer", last.Messages[1].Content)
}

func TestSend_FailurePersistedWithoutTitle(t *testing.T) {
	f := newFixture(t, func(ctx context.Context, req *model.Request) (*model.Response, error) {
		if req.Model == "title" {
			t.Error("no title for failed turns")
		}
		return nil, model.ErrTimedOut
	})

	reply, err := f.svc.Send(context.Background(), "conv", "think hard", nil)
	require.NoError(t, err)

	assert.True(t, reply.Failed)
	assert.Equal(t, model.TimeoutMessage, reply.Message.Content)
	assert.Empty(t, reply.Title)
}

func TestSend_CancelledPersistsOnlyUserMessage(t *testing.T) {
	entered := make(chan struct{})
	f := newFixture(t, func(ctx context.Context, req *model.Request) (*model.Response, error) {
		close(entered)
		<-ctx.Done()
		return nil, model.ErrCancelled
	})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Send(ctx, "conv", "slow question", nil)
		done <- err
	}()
	<-entered
	assert.True(t, f.svc.State("conv").Busy())

	_, err := f.svc.Send(ctx, "conv", "second", nil)
	assert.ErrorIs(t, err, loop.ErrBusy)

	f.svc.Cancel("conv")
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrCancelled)
	case <-time.After(2 * time.Second):
		t.Fatal("send was not cancelled")
	}

	msgs, err := f.svc.Messages(ctx, "conv")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, workflow.StateCancelled, f.svc.State("conv").Kind)
}

func TestSend_ConcurrentSendsPersistOneTurn(t *testing.T) {
	const senders = 5
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f := newFixture(t, func(ctx context.Context, req *model.Request) (*model.Response, error) {
		if req.Model == "title" {
			return &model.Response{Text: "Race"}, nil
		}
		once.Do(func() { close(entered) })
		<-release
		return &model.Response{Text: "answer"}, nil
	})
	ctx := context.Background()

	results := make(chan error, senders)
	for i := 0; i < senders; i++ {
		go func() {
			_, err := f.svc.Send(ctx, "conv", "question", nil)
			results <- err
		}()
	}

	<-entered
	for i := 0; i < senders-1; i++ {
		select {
		case err := <-results:
			assert.ErrorIs(t, err, loop.ErrBusy)
		case <-time.After(2 * time.Second):
			t.Fatal("rejected send did not return")
		}
	}
	close(release)
	select {
	case err := <-results:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("accepted send did not finish")
	}

	msgs, err := f.svc.Messages(ctx, "conv")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
}

func TestSend_BusyUntilCancelledToolReturns(t *testing.T) {
	toolEntered := make(chan struct{})
	toolRelease := make(chan struct{})
	calls := 0
	f := newFixture(t, func(ctx context.Context, req *model.Request) (*model.Response, error) {
		if req.Model == "title" {
			return &model.Response{Text: "Title"}, nil
		}
		calls++
		if calls == 1 {
			return &model.Response{ToolCalls: []model.ToolCall{{ID: "t1", Name: "web_search", Arguments: `{}`}}}, nil
		}
		return &model.Response{Text: "fresh answer"}, nil
	})
	f.tools.ExecuteFunc = func(ctx context.Context, name, arguments string) (string, error) {
		close(toolEntered)
		<-toolRelease
		return "late results", nil
	}
	ctx := context.Background()

	first := make(chan error, 1)
	go func() {
		_, err := f.svc.Send(ctx, "conv", "first", nil)
		first <- err
	}()
	<-toolEntered
	f.svc.Cancel("conv")

	_, err := f.svc.Send(ctx, "conv", "second", nil)
	assert.ErrorIs(t, err, loop.ErrBusy)

	close(toolRelease)
	select {
	case err := <-first:
		assert.ErrorIs(t, err, ErrCancelled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled send did not return")
	}

	reply, err := f.svc.Send(ctx, "conv", "second", nil)
	require.NoError(t, err)
	assert.Equal(t, "fresh answer", reply.Message.Content)
	assert.Equal(t, workflow.StateIdle, f.svc.State("conv").Kind)

	msgs, err := f.svc.Messages(ctx, "conv")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
	assert.Equal(t, "fresh answer", msgs[2].Content)
}

func TestSend_WithImage(t *testing.T) {
	f := newFixture(t, answerThenTitle("a red square", "Red Square"))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))

	reply, err := f.svc.Send(context.Background(), "conv", "what is this?", []Image{{Filename: "sq.png", Data: buf.Bytes()}})
	require.NoError(t, err)

	msgs, err := f.svc.Messages(context.Background(), reply.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs[0].Attachments, 1)
	att := msgs[0].Attachments[0]
	assert.Equal(t, "sq.png", att.Filename)

	_, err = f.attachments.Load(att)
	assert.NoError(t, err)

	first := f.model.Requests[0].Messages[0]
	require.Len(t, first.Attachments, 1)
	assert.Equal(t, att.ID, first.Attachments[0].ID)
}

func TestSend_RejectsEmpty(t *testing.T) {
	f := newFixture(t, answerThenTitle("x", "y"))
	_, err := f.svc.Send(context.Background(), "conv", "   ", nil)
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, answerThenTitle("ok", "Title"))
	ctx := context.Background()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	_, err := f.svc.Send(ctx, "conv", "hi", []Image{{Filename: "a.png", Data: buf.Bytes()}})
	require.NoError(t, err)
	before, err := f.svc.Messages(ctx, "conv")
	require.NoError(t, err)
	att := before[0].Attachments[0]

	require.NoError(t, f.svc.Delete(ctx, "conv"))

	_, err = f.db.GetConversation(ctx, "conv")
	var nf *store.NotFoundError
	assert.ErrorAs(t, err, &nf)
	msgs, err := f.svc.Messages(ctx, "conv")
	require.NoError(t, err)
	assert.Empty(t, msgs)
	_, err = f.attachments.Load(att)
	assert.Error(t, err)
	assert.Equal(t, workflow.Idle(), f.svc.State("conv"))
}

func TestResume(t *testing.T) {
	f := newFixture(t, answerThenTitle("ok", "Title"))
	ctx := context.Background()

	conv, msgs, err := f.svc.Resume(ctx)
	require.NoError(t, err)
	assert.Nil(t, conv)
	assert.Nil(t, msgs)

	_, err = f.svc.Send(ctx, "conv", "hi", nil)
	require.NoError(t, err)

	conv, msgs, err = f.svc.Resume(ctx)
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.Equal(t, "conv", conv.ID)
	assert.Len(t, msgs, 2)

	f.svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	conv, _, err = f.svc.Resume(ctx)
	require.NoError(t, err)
	assert.Nil(t, conv, "stale conversations are not resumed")
}

func TestListAndSearch(t *testing.T) {
	f := newFixture(t, answerThenTitle("Paris is the capital of France", "Capitals"))
	ctx := context.Background()
	_, err := f.svc.Send(ctx, "geo", "capital of France?", nil)
	require.NoError(t, err)

	all, err := f.svc.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	found, err := f.svc.Search(ctx, "paris")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "geo", found[0].ID)
}

func TestBuildHistory(t *testing.T) {
	stored := []model.Message{
		{Role: model.RoleUser, Content: "q"},
		{Role: model.RoleAssistant, Content: "a", ToolCalls: []model.ToolCall{{ID: "x"}}, Reasoning: []model.ReasoningBlock{{Kind: model.ReasoningThinking}}},
		{Role: model.RoleAssistant},
		{Role: model.RoleUser, Attachments: []model.Attachment{{ID: "img"}}},
	}

	got := BuildHistory(stored)

	require.Len(t, got, 3)
	assert.Nil(t, got[1].ToolCalls)
	assert.Nil(t, got[1].Reasoning)
	assert.Equal(t, "img", got[2].Attachments[0].ID)
	assert.Len(t, stored[1].ToolCalls, 1, "input is not modified")
}

func TestToolSummary(t *testing.T) {
	assert.Empty(t, ToolSummary(nil))
	assert.Equal(t, "Used web_search ×2, reddit_read", ToolSummary([]model.ToolCall{
		{Name: "web_search"}, {Name: "reddit_read"}, {Name: "web_search"},
	}))
}
