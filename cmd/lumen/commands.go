package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"

	"github.com/Cyclone1070/lumen/internal/orchestrator"
	"github.com/Cyclone1070/lumen/internal/provider/exa"
	"github.com/Cyclone1070/lumen/internal/provider/model"
	"github.com/Cyclone1070/lumen/internal/tool/web"
	"github.com/Cyclone1070/lumen/internal/ui"
	"github.com/Cyclone1070/lumen/internal/ui/services"
	"github.com/Cyclone1070/lumen/internal/workflow"
	"github.com/Cyclone1070/lumen/internal/workflow/loop"
	"github.com/Cyclone1070/lumen/internal/workflow/session"
)

const usageText = `Usage: lumen <command> [arguments]

Commands:
  bedrock        Send a one-line ping to the configured model
  exa            Run a sample web search
  agent [text]   Run the tool-using agent once, without saving anything
  eval           Run the built-in agent scenarios and report pass/fail
  ask "<text>"   Ask a question in the most recent conversation and save it
  quick          bedrock + exa
  all            bedrock + exa + agent + eval
  chat           Interactive chat
  help           Show this help
`

const defaultAgentPrompt = "What is 15 * 8? Answer with just the number."

// run dispatches one subcommand. Errors are for printing only.
func run(ctx context.Context, args []string, out io.Writer, deps *Dependencies) error {
	if len(args) == 0 {
		fmt.Fprint(out, usageText)
		return nil
	}

	rest := strings.TrimSpace(strings.Join(args[1:], " "))
	switch args[0] {
	case "help", "-h", "--help":
		fmt.Fprint(out, usageText)
		return nil
	case "bedrock":
		return runPing(ctx, out, deps)
	case "exa":
		return runSearch(ctx, out, deps)
	case "agent":
		return runAgent(ctx, out, deps, rest)
	case "eval":
		return runEval(ctx, out, deps)
	case "ask":
		return runAsk(ctx, out, deps, rest)
	case "quick":
		return runSteps(ctx, out, deps, step{"bedrock", runPing}, step{"exa", runSearch})
	case "all":
		return runSteps(ctx, out, deps,
			step{"bedrock", runPing},
			step{"exa", runSearch},
			step{"agent", func(ctx context.Context, out io.Writer, deps *Dependencies) error {
				return runAgent(ctx, out, deps, "")
			}},
			step{"eval", runEval},
		)
	case "chat":
		return runChat(ctx, deps)
	default:
		fmt.Fprint(out, usageText)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

type step struct {
	name string
	fn   func(ctx context.Context, out io.Writer, deps *Dependencies) error
}

// runSteps runs every step even when an earlier one fails.
func runSteps(ctx context.Context, out io.Writer, deps *Dependencies, steps ...step) error {
	var errs []error
	for _, s := range steps {
		fmt.Fprintf(out, "== %s ==\n", s.name)
		if err := s.fn(ctx, out, deps); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
		fmt.Fprintln(out)
	}
	return errors.Join(errs...)
}

func runPing(ctx context.Context, out io.Writer, deps *Dependencies) error {
	start := time.Now()
	resp, err := deps.Model.Generate(ctx, &model.Request{
		Messages:        []model.Message{{Role: model.RoleUser, Content: "Reply with the single word: pong"}},
		MaxTokens:       50,
		DisableThinking: true,
	})
	if err != nil {
		return err
	}
	deps.Usage.Record(resp.Model, resp.Usage)
	fmt.Fprintf(out, "%s (%s, %d in / %d out tokens, %s)\n",
		strings.TrimSpace(resp.Text), deps.ModelName, resp.Usage.InputTokens, resp.Usage.OutputTokens, time.Since(start).Round(time.Millisecond))
	return nil
}

func runSearch(ctx context.Context, out io.Writer, deps *Dependencies) error {
	chars := 300
	results, err := deps.Search.Search(ctx, exa.SearchRequest{
		Query:         "latest Go programming language release notes",
		NumResults:    3,
		MaxCharacters: &chars,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, web.FormatResults("Search results", results))
	return nil
}

// newAgent builds a standalone loop that is not tied to any conversation.
func newAgent(deps *Dependencies, events chan<- workflow.Event, conversationID string) *loop.Loop {
	cfg := deps.Config
	return loop.NewLoop(deps.Model, deps.Tools, deps.Usage, events, loop.Config{
		ConversationID:       conversationID,
		MaxToolCalls:         cfg.Agent.MaxToolCalls,
		SystemPrompt:         cfg.Agent.SystemPrompt,
		TitleModelID:         titleModel(deps),
		TitleMaxTokens:       cfg.Provider.TitleMaxTokens,
		TitleContextMessages: cfg.Agent.TitleContextMessages,
	}, deps.Logger)
}

// titleModel returns the cheaper title model for bedrock; gemini uses its one model.
func titleModel(deps *Dependencies) string {
	if deps.Config.Provider.Name == "gemini" {
		return deps.Config.Provider.GeminiModel
	}
	return deps.Config.Provider.TitleModelID
}

func runAgent(ctx context.Context, out io.Writer, deps *Dependencies, prompt string) error {
	if prompt == "" {
		prompt = defaultAgentPrompt
	}
	fmt.Fprintf(out, "> %s\n", prompt)

	completion, err := newAgent(deps, nil, "agent").Run(ctx, []model.Message{{Role: model.RoleUser, Content: prompt}})
	if err != nil {
		return err
	}
	for _, call := range completion.ToolCalls {
		status := "ok"
		if call.IsError {
			status = "error"
		}
		fmt.Fprintf(out, "  [%s] %s %s\n", status, call.Name, call.Arguments)
	}
	fmt.Fprintln(out, render(deps.Renderer, completion.Text))
	printUsage(out, deps)
	return nil
}

func runAsk(ctx context.Context, out io.Writer, deps *Dependencies, question string) error {
	if question == "" {
		return errors.New(`ask needs a question, e.g. lumen ask "What is 15 * 8?"`)
	}
	svc, err := newService(deps, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	conv, _, err := svc.Resume(ctx)
	if err != nil {
		return err
	}
	conversationID := ""
	if conv != nil {
		conversationID = conv.ID
	}

	reply, err := svc.Send(ctx, conversationID, question, nil)
	if err != nil {
		return err
	}
	if reply.Title != "" {
		fmt.Fprintf(out, "# %s\n\n", reply.Title)
	}
	if reply.Message.ToolSummary != "" {
		fmt.Fprintf(out, "(%s)\n", reply.Message.ToolSummary)
	}
	fmt.Fprintln(out, render(deps.Renderer, reply.Message.Content))
	return nil
}

func runChat(ctx context.Context, deps *Dependencies) error {
	events := make(chan workflow.Event, 64)
	svc, err := newService(deps, events)
	if err != nil {
		return err
	}
	defer svc.Close()

	opts := ui.Options{Model: deps.ModelName}
	conv, history, err := svc.Resume(ctx)
	if err != nil {
		return err
	}
	if conv != nil {
		opts.ConversationID = conv.ID
		opts.Title = conv.Title
		opts.History = history
	}

	spinnerFactory := func() spinner.Model {
		return spinner.New(spinner.WithSpinner(spinner.Dot))
	}
	return ui.NewUI(svc, events, deps.Renderer, spinnerFactory, opts).Start()
}

// newService wires the persistent conversation service.
func newService(deps *Dependencies, events chan<- workflow.Event) (*orchestrator.Service, error) {
	if deps.Store == nil {
		return nil, errors.New("conversation store is unavailable; see the log for details")
	}
	sessions := session.NewRegistry(func(id string) *loop.Loop {
		return newAgent(deps, events, id)
	}, deps.Logger)
	return orchestrator.New(deps.Store, deps.Store, deps.Attachments, sessions, deps.Config.StaleAfter(), deps.Logger), nil
}

func render(renderer services.MarkdownRenderer, text string) string {
	return services.RenderMarkdown(text, 100, renderer)
}

func printUsage(out io.Writer, deps *Dependencies) {
	for _, t := range deps.Usage.All() {
		fmt.Fprintf(out, "usage: %s %d in / %d out tokens over %d calls\n", t.ModelID, t.InputTokens, t.OutputTokens, t.Calls)
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
