// Package bedrock is the model client for Anthropic models hosted on AWS
// Bedrock's InvokeModel API.
package bedrock

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Cyclone1070/lumen/internal/provider/model"
)

const (
	defaultMaxTokens  = 16000
	minThinkingTokens = 1024
	maxErrorBody      = 8192
)

// Config configures the client.
type Config struct {
	Region         string
	ModelID        string
	Endpoint       string // empty means https://bedrock-runtime.{region}.amazonaws.com
	MaxTokens      int
	ThinkingBudget int // zero disables extended reasoning
	Timeout        time.Duration
}

// Client is safe for concurrent use.
type Client struct {
	cfg         Config
	endpoint    string
	httpClient  *http.Client
	signer      requestSigner
	attachments attachmentLoader
	logger      *slog.Logger
}

// NewClient creates a client. attachments may be nil when no images are sent.
func NewClient(cfg Config, signer requestSigner, attachments attachmentLoader, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", cfg.Region)
	}
	return &Client{
		cfg:         cfg,
		endpoint:    endpoint,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		signer:      signer,
		attachments: attachments,
		logger:      logger.With("component", "bedrock"),
	}
}

// Generate performs one InvokeModel call.
func (c *Client) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	modelID := req.Model
	if modelID == "" {
		modelID = c.cfg.ModelID
	}

	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.invokeURL(modelID), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.signer != nil {
		if err := c.signer.Sign(ctx, httpReq, body); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	c.logger.Debug("model call started", "model", modelID, "messages", len(req.Messages), "tools", len(req.Tools))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(ctx, modelID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, modelID, err)
	}

	if resp.StatusCode != http.StatusOK {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		c.logger.Warn("model call failed", "model", modelID, "status", resp.StatusCode)
		return nil, &model.APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var wire invokeResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &model.InvalidResponseError{Reason: "decode body", Cause: err}
	}
	if wire.Content == nil {
		return nil, &model.InvalidResponseError{Reason: "missing content array"}
	}

	out := fromWireResponse(&wire)
	if out.Model == "" {
		out.Model = modelID
	}
	c.logger.Info("model call finished",
		"model", modelID,
		"stop_reason", out.StopReason,
		"input_tokens", out.Usage.InputTokens,
		"output_tokens", out.Usage.OutputTokens,
		"tool_calls", len(out.ToolCalls),
		"duration", time.Since(start))
	return out, nil
}

func (c *Client) transportError(ctx context.Context, modelID string, err error) error {
	mapped := model.ClassifyTransportError(ctx, err)
	switch mapped {
	case model.ErrCancelled:
		c.logger.Debug("model call cancelled", "model", modelID)
	case model.ErrTimedOut:
		c.logger.Warn("model call timed out", "model", modelID, "timeout", c.cfg.Timeout)
	default:
		c.logger.Warn("model call transport failure", "model", modelID, "error", err)
	}
	return mapped
}

// invokeURL escapes the model id so that ':' and '/' survive as a single segment.
func (c *Client) invokeURL(modelID string) string {
	escaped := strings.ReplaceAll(url.PathEscape(modelID), ":", "%3A")
	return c.endpoint + "/model/" + escaped + "/invoke"
}

func (c *Client) buildRequest(req *model.Request) *invokeRequest {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}

	out := &invokeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		System:           req.System,
		Messages:         c.normalizeMessages(req.Messages),
	}

	forced := false
	if len(req.Tools) > 0 {
		out.Tools = req.Tools
		choice := wireToolChoice{Type: string(model.ToolChoiceAuto)}
		if req.ToolChoice != nil {
			choice.Type = string(req.ToolChoice.Kind)
			if req.ToolChoice.Kind == model.ToolChoiceTool {
				choice.Name = req.ToolChoice.Name
			}
			forced = req.ToolChoice.Kind != model.ToolChoiceAuto
		}
		out.ToolChoice = &choice
	} else {
		out.Messages = flattenToolBlocks(out.Messages)
	}

	// Extended reasoning cannot be combined with a forced tool choice and
	// needs room inside max_tokens.
	budget := c.cfg.ThinkingBudget
	if !req.DisableThinking && !forced && budget >= minThinkingTokens && budget < maxTokens {
		out.Thinking = &thinkingConfig{Type: "enabled", BudgetTokens: budget}
	}
	return out
}
