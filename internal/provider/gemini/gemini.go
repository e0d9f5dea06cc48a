// Package gemini is an alternate model backend on Google's Gemini API. It
// implements the same Generate contract as the bedrock client.
package gemini

import (
	"context"
	"log/slog"
	"time"

	"github.com/Cyclone1070/lumen/internal/provider/model"
)

// Config tunes the provider.
type Config struct {
	Model          string
	MaxTokens      int
	ThinkingBudget int // zero leaves the model's default
	Timeout        time.Duration
}

// GeminiProvider is safe for concurrent use.
type GeminiProvider struct {
	client GeminiClient
	cfg    Config
	logger *slog.Logger
}

// New creates a GeminiProvider with the specified client.
func New(client GeminiClient, cfg Config, logger *slog.Logger) *GeminiProvider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GeminiProvider{
		client: client,
		cfg:    cfg,
		logger: logger.With("component", "gemini"),
	}
}

// Generate sends one request to the Gemini API.
func (p *GeminiProvider) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = p.cfg.Model
	}

	callCtx := ctx
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	contents := toGeminiContents(req.Messages)
	config := p.toGeminiConfig(req)

	start := time.Now()
	resp, err := p.client.GenerateContent(callCtx, modelName, contents, config)
	if err != nil {
		mapped := mapGeminiError(ctx, err)
		p.logger.Warn("model call failed", "model", modelName, "error", mapped)
		return nil, mapped
	}

	out, err := fromGeminiResponse(resp, modelName)
	if err != nil {
		return nil, err
	}
	p.logger.Info("model call finished",
		"model", modelName,
		"stop_reason", out.StopReason,
		"input_tokens", out.Usage.InputTokens,
		"output_tokens", out.Usage.OutputTokens,
		"tool_calls", len(out.ToolCalls),
		"duration", time.Since(start))
	return out, nil
}
