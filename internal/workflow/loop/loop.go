// Package loop drives a multi-turn tool-calling conversation with a model.
package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Cyclone1070/lumen/internal/provider/model"
	"github.com/Cyclone1070/lumen/internal/tool"
	"github.com/Cyclone1070/lumen/internal/workflow"
)

var (
	// ErrCancelled is returned by Run when the run was cancelled. Callers
	// must show and persist nothing.
	ErrCancelled = model.ErrCancelled

	// ErrBusy is returned by Run when another run is in flight on the same loop.
	ErrBusy = errors.New("agent loop is already running")
)

const (
	// CapFallbackMessage is returned when the forced final answer after the
	// tool-call cap fails.
	CapFallbackMessage = "I'm sorry, I gathered some information but couldn't put together a final answer. Please try asking again, perhaps more specifically."

	capPrompt = "You have reached the maximum number of tool calls for this request. " +
		"Using only the information gathered so far, write the best complete answer you can. Do not request any more tools."
	capDisclaimer = "\n\n*Note: this answer may be incomplete because the tool-call limit (%d) was reached.*"

	titlePrompt = "Write a short title (at most six words) for the conversation above. Reply with the title only, no quotes or punctuation at the end."
	titleSystem = "You write concise, descriptive conversation titles."

	maxTitleRunes = 50
)

// Config tunes a Loop.
type Config struct {
	ConversationID       string
	MaxToolCalls         int
	SystemPrompt         string
	ModelID              string // empty means the client's default
	TitleModelID         string
	TitleMaxTokens       int
	TitleContextMessages int
}

// Completion is the outcome of a finished (non-cancelled) run.
type Completion struct {
	Text       string
	History    []model.Message  // input history plus every appended round
	ToolCalls  []model.ToolCall // completed calls across all rounds
	Iterations int
	CapReached bool
	Failed     bool // Text is a failure message rather than an answer
}

// Loop is the agent state machine for one conversation. At most one run is in
// flight at a time; Cancel and State are safe from any goroutine.
type Loop struct {
	client modelClient
	tools  toolRegistry
	usage  usageRecorder
	events chan<- workflow.Event
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	state    workflow.State
	active   bool // reserved or running, cleared only when the run returns
	stopping bool // Cancel was called for the active run
	cancel   context.CancelFunc
	runID    uint64
}

// Reservation claims a Loop for exactly one run. Obtain one with Reserve,
// then either Run it or Release it.
type Reservation struct {
	loop *Loop
	id   uint64

	mu   sync.Mutex
	done bool
}

// NewLoop creates a Loop. usage, events and logger may be nil.
func NewLoop(client modelClient, tools toolRegistry, usage usageRecorder, events chan<- workflow.Event, cfg Config, logger *slog.Logger) *Loop {
	if cfg.MaxToolCalls <= 0 {
		cfg.MaxToolCalls = 10
	}
	if cfg.TitleContextMessages <= 0 {
		cfg.TitleContextMessages = 4
	}
	if cfg.TitleMaxTokens <= 0 {
		cfg.TitleMaxTokens = 100
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loop{
		client: client,
		tools:  tools,
		usage:  usage,
		events: events,
		cfg:    cfg,
		logger: logger.With("component", "agent", "conversation", cfg.ConversationID),
		state:  workflow.Idle(),
	}
}

// State returns the current agent state.
func (l *Loop) State() workflow.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Active reports whether a run is reserved or still in flight. It stays true
// after Cancel until the cancelled run has actually returned.
func (l *Loop) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Cancel stops the active run at its next checkpoint. The state switches to
// cancelled at once, which is idle for every purpose except display: it is
// not Busy and it holds no partial response. A tool call that already
// started runs to completion but its result is discarded, and the loop only
// accepts a new run once that call has returned. Cancel with no run active
// does nothing.
func (l *Loop) Cancel() {
	l.mu.Lock()
	if !l.active || l.stopping {
		l.mu.Unlock()
		return
	}
	l.stopping = true
	cancel := l.cancel
	l.state = workflow.Cancelled()
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	l.emit(workflow.StateEvent{ConversationID: l.cfg.ConversationID, State: workflow.Cancelled()})
	l.logger.Info("run cancelled")
}

// Reserve claims the loop for one run, failing with ErrBusy while another
// run is reserved or in flight. Cancel applies to a reservation that has not
// started yet: its Run returns ErrCancelled immediately.
func (l *Loop) Reserve() (*Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active {
		return nil, ErrBusy
	}
	l.active = true
	l.stopping = false
	l.runID++
	return &Reservation{loop: l, id: l.runID}, nil
}

// Release gives back a reservation that was never run. It is a no-op after
// Run.
func (r *Reservation) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	r.done = true
	r.loop.release(r.id)
}

// Run executes the reserved run. A reservation runs at most once; later
// calls return ErrBusy.
func (r *Reservation) Run(ctx context.Context, history []model.Message) (*Completion, error) {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return nil, ErrBusy
	}
	r.done = true
	r.mu.Unlock()

	defer r.loop.release(r.id)
	return r.loop.run(ctx, r.id, history)
}

func (l *Loop) release(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.runID != id {
		return
	}
	l.active = false
	l.stopping = false
	l.cancel = nil
}

// Run reserves the loop and executes the agent algorithm over a private copy
// of history. The only errors are ErrCancelled and ErrBusy; every other
// failure is reported as a Completion with Failed set.
func (l *Loop) Run(ctx context.Context, history []model.Message) (*Completion, error) {
	res, err := l.Reserve()
	if err != nil {
		return nil, err
	}
	return res.Run(ctx, history)
}

func (l *Loop) run(ctx context.Context, id uint64, history []model.Message) (*Completion, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	stopping := l.stopping
	if l.runID == id {
		l.cancel = cancel
	}
	l.mu.Unlock()
	if stopping {
		cancel()
	}

	working := slices.Clone(history)
	decls := l.tools.Declarations()
	var completed []model.ToolCall

	for iteration := 0; iteration < l.cfg.MaxToolCalls; iteration++ {
		if runCtx.Err() != nil {
			return l.cancelled()
		}

		l.setState(workflow.Thinking())
		resp, err := l.generate(runCtx, &model.Request{
			Model:    l.cfg.ModelID,
			System:   l.cfg.SystemPrompt,
			Messages: working,
			Tools:    decls,
		})
		if err != nil {
			return l.failed(runCtx, err, working, completed, iteration)
		}
		if runCtx.Err() != nil {
			return l.cancelled()
		}

		if !resp.HasToolCalls() {
			l.setState(workflow.Responding())
			working = append(working, model.Message{Role: model.RoleAssistant, Content: resp.Text, Reasoning: nonEmpty(resp.Reasoning)})
			return l.finish(&Completion{
				Text:       resp.Text,
				History:    working,
				ToolCalls:  completed,
				Iterations: iteration + 1,
			})
		}

		results := make([]model.ToolCall, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			if runCtx.Err() != nil {
				return l.cancelled()
			}
			l.setState(workflow.ExecutingTool(call.Name))
			results = append(results, l.dispatch(runCtx, call, decls))
		}

		// The assistant turn keeps the requested calls; results travel in the
		// following user turn.
		working = append(working,
			model.Message{
				Role:      model.RoleAssistant,
				Content:   resp.Text,
				ToolCalls: slices.Clone(resp.ToolCalls),
				Reasoning: nonEmpty(resp.Reasoning),
			},
			model.Message{
				Role:      model.RoleUser,
				ToolCalls: results,
			},
		)
		completed = append(completed, results...)
	}

	return l.synthesize(runCtx, working, completed)
}

// synthesize forces a text-only answer once the tool-call cap is reached.
func (l *Loop) synthesize(ctx context.Context, working []model.Message, completed []model.ToolCall) (*Completion, error) {
	l.logger.Warn("tool call cap reached", "max_tool_calls", l.cfg.MaxToolCalls, "tool_calls", len(completed))
	working = append(working, model.Message{Role: model.RoleUser, Content: capPrompt})

	if ctx.Err() != nil {
		return l.cancelled()
	}
	l.setState(workflow.Thinking())
	resp, err := l.generate(ctx, &model.Request{
		Model:    l.cfg.ModelID,
		System:   l.cfg.SystemPrompt,
		Messages: working,
	})
	if err != nil {
		if errors.Is(err, model.ErrCancelled) || ctx.Err() != nil {
			return l.cancelled()
		}
		l.logger.Error("final synthesis failed", "error", err)
		l.setState(workflow.Failed(err))
		return l.finish(&Completion{
			Text:       CapFallbackMessage,
			History:    working,
			ToolCalls:  completed,
			Iterations: l.cfg.MaxToolCalls,
			CapReached: true,
			Failed:     true,
		})
	}

	if ctx.Err() != nil {
		return l.cancelled()
	}
	l.setState(workflow.Responding())
	text := resp.Text + fmt.Sprintf(capDisclaimer, l.cfg.MaxToolCalls)
	working = append(working, model.Message{Role: model.RoleAssistant, Content: text})
	return l.finish(&Completion{
		Text:       text,
		History:    working,
		ToolCalls:  completed,
		Iterations: l.cfg.MaxToolCalls,
		CapReached: true,
	})
}

// dispatch runs one tool call. A started call is never preempted by
// cancellation; failures are recorded on the call for the model to see.
func (l *Loop) dispatch(ctx context.Context, call model.ToolCall, decls []tool.Declaration) model.ToolCall {
	start := time.Now()
	result, err := l.tools.Execute(context.WithoutCancel(ctx), call.Name, call.Arguments)
	if err != nil {
		call.Result = toolErrorText(err, decls)
		call.IsError = true
	} else {
		call.Result = result
	}
	duration := time.Since(start)

	l.logger.Info("tool executed", "tool", call.Name, "duration", duration, "is_error", call.IsError)
	if ctx.Err() != nil {
		return call
	}
	l.emit(workflow.ToolEvent{ConversationID: l.cfg.ConversationID, Call: call, Duration: duration})
	return call
}

func toolErrorText(err error, decls []tool.Declaration) string {
	var unknown *tool.UnknownToolError
	if errors.As(err, &unknown) {
		names := make([]string, len(decls))
		for i, d := range decls {
			names[i] = d.Name
		}
		return fmt.Sprintf("Error: %v. Available tools: %s", err, strings.Join(names, ", "))
	}
	return "Error: " + err.Error()
}

func (l *Loop) generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	resp, err := l.client.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	l.recordUsage(req, resp)
	return resp, nil
}

func (l *Loop) recordUsage(req *model.Request, resp *model.Response) {
	if l.usage == nil {
		return
	}
	modelID := resp.Model
	if modelID == "" {
		modelID = req.Model
	}
	l.usage.Record(modelID, resp.Usage)
}

// failed maps a model-call error onto the terminal outcome of the run.
func (l *Loop) failed(ctx context.Context, err error, working []model.Message, completed []model.ToolCall, iteration int) (*Completion, error) {
	if errors.Is(err, model.ErrCancelled) || ctx.Err() != nil {
		return l.cancelled()
	}

	l.setState(workflow.Failed(err))
	text := "Error: " + err.Error()
	if errors.Is(err, model.ErrTimedOut) {
		text = model.TimeoutMessage
		l.logger.Warn("model call timed out", "iteration", iteration)
	} else {
		l.logger.Error("model call failed", "iteration", iteration, "error", err)
	}
	return l.finish(&Completion{
		Text:       text,
		History:    working,
		ToolCalls:  completed,
		Iterations: iteration,
		Failed:     true,
	})
}

func (l *Loop) cancelled() (*Completion, error) {
	l.mu.Lock()
	announced := l.stopping
	l.state = workflow.Cancelled()
	l.mu.Unlock()
	if !announced {
		l.emit(workflow.StateEvent{ConversationID: l.cfg.ConversationID, State: workflow.Cancelled()})
	}
	return nil, ErrCancelled
}

// finish publishes c unless the run was cancelled in the meantime.
func (l *Loop) finish(c *Completion) (*Completion, error) {
	l.mu.Lock()
	stopping := l.stopping
	l.mu.Unlock()
	if stopping {
		return l.cancelled()
	}
	if !c.Failed {
		l.setState(workflow.Idle())
	}
	l.emit(workflow.DoneEvent{ConversationID: l.cfg.ConversationID, Text: c.Text})
	return c, nil
}

// setState records s for the active run. Once Cancel was called the state
// stays cancelled.
func (l *Loop) setState(s workflow.State) {
	l.mu.Lock()
	if l.stopping {
		l.mu.Unlock()
		return
	}
	l.state = s
	l.mu.Unlock()
	l.emit(workflow.StateEvent{ConversationID: l.cfg.ConversationID, State: s})
}

// emit delivers an event without blocking the run. Events are dropped when
// the channel is full.
func (l *Loop) emit(e workflow.Event) {
	if l.events == nil {
		return
	}
	select {
	case l.events <- e:
	default:
		l.logger.Debug("event dropped", "event", fmt.Sprintf("%T", e))
	}
}

func nonEmpty(blocks []model.ReasoningBlock) []model.ReasoningBlock {
	if len(blocks) == 0 {
		return nil
	}
	return slices.Clone(blocks)
}

// GenerateTitle asks the title model for a short title of messages. It
// returns false on any failure; failures are never user-visible.
func (l *Loop) GenerateTitle(ctx context.Context, messages []model.Message) (string, bool) {
	var convo []model.Message
	for _, m := range messages {
		if m.Role == model.RoleSystem || strings.TrimSpace(m.Content) == "" || model.IsErrorText(m.Content) {
			continue
		}
		convo = append(convo, model.Message{Role: m.Role, Content: m.Content})
	}
	if len(convo) == 0 {
		return "", false
	}
	if len(convo) > l.cfg.TitleContextMessages {
		convo = convo[len(convo)-l.cfg.TitleContextMessages:]
	}
	convo = append(convo, model.Message{Role: model.RoleUser, Content: titlePrompt})

	resp, err := l.generate(ctx, &model.Request{
		Model:           l.cfg.TitleModelID,
		System:          titleSystem,
		Messages:        convo,
		MaxTokens:       l.cfg.TitleMaxTokens,
		DisableThinking: true,
	})
	if err != nil {
		l.logger.Debug("title generation failed", "error", err)
		return "", false
	}

	title := cleanTitle(resp.Text)
	if title == "" {
		return "", false
	}
	return title, true
}

func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	title = strings.Trim(title, "\"'`*# ")
	title = strings.TrimPrefix(title, "Title: ")
	if utf8.RuneCountInString(title) > maxTitleRunes {
		runes := []rune(title)
		title = strings.TrimSpace(string(runes[:maxTitleRunes-3])) + "..."
	}
	return title
}
