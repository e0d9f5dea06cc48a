package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/Cyclone1070/lumen/internal/provider/model"
	"github.com/Cyclone1070/lumen/internal/tool/forum"
	"github.com/Cyclone1070/lumen/internal/tool/web"
	"github.com/Cyclone1070/lumen/internal/workflow/loop"
)

// scenario is one end-to-end agent check.
type scenario struct {
	name   string
	prompt string
	check  func(c *loop.Completion) error
}

var scenarios = []scenario{
	{
		name:   "arithmetic without tools",
		prompt: "What is 15 * 8? Answer with just the number.",
		check: func(c *loop.Completion) error {
			if err := answered(c); err != nil {
				return err
			}
			if !strings.Contains(c.Text, "120") {
				return fmt.Errorf("expected 120 in answer, got %q", c.Text)
			}
			return nil
		},
	},
	{
		name:   "current events use web search",
		prompt: "Search the web for the most recent stable Go release and tell me its version number.",
		check: func(c *loop.Completion) error {
			if err := answered(c); err != nil {
				return err
			}
			return usedAny(c, web.SearchToolName, web.ContentsToolName)
		},
	},
	{
		name:   "community opinion uses reddit",
		prompt: "What do people on Reddit think about mechanical keyboards for programming? Read at least one thread.",
		check: func(c *loop.Completion) error {
			if err := answered(c); err != nil {
				return err
			}
			return usedAny(c, forum.SearchToolName, forum.ReadToolName)
		},
	},
}

func answered(c *loop.Completion) error {
	if c.Failed {
		return fmt.Errorf("run failed: %s", c.Text)
	}
	if strings.TrimSpace(c.Text) == "" || model.IsErrorText(c.Text) {
		return fmt.Errorf("no answer")
	}
	return nil
}

func usedAny(c *loop.Completion, names ...string) error {
	for _, call := range c.ToolCalls {
		if slices.Contains(names, call.Name) {
			return nil
		}
	}
	return fmt.Errorf("expected one of %s to be called", strings.Join(names, ", "))
}

// runEval runs every scenario and reports a pass/fail line for each.
func runEval(ctx context.Context, out io.Writer, deps *Dependencies) error {
	return evalScenarios(ctx, out, deps, scenarios)
}

func evalScenarios(ctx context.Context, out io.Writer, deps *Dependencies, list []scenario) error {
	passed := 0
	for i, sc := range list {
		start := time.Now()
		completion, err := newAgent(deps, nil, fmt.Sprintf("eval-%d", i)).Run(ctx, []model.Message{{Role: model.RoleUser, Content: sc.prompt}})
		if err == nil {
			err = sc.check(completion)
		}
		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil {
			fmt.Fprintf(out, "FAIL  %s (%s): %v\n", sc.name, elapsed, err)
			continue
		}
		passed++
		fmt.Fprintf(out, "PASS  %s (%s, %d tool calls)\n", sc.name, elapsed, len(completion.ToolCalls))
	}
	fmt.Fprintf(out, "%d/%d scenarios passed\n", passed, len(list))
	if passed != len(list) {
		return fmt.Errorf("%d scenario(s) failed", len(list)-passed)
	}
	return nil
}
