package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Cyclone1070/lumen/internal/provider/model"
	"github.com/Cyclone1070/lumen/internal/tool"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

const (
	roleUser  = "user"
	roleModel = "model"
)

// toGeminiContents converts history to alternating Gemini contents. System
// messages travel as SystemInstruction; failure texts are never replayed.
func toGeminiContents(messages []model.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			continue
		}
		if model.IsErrorText(msg.Content) && !msg.HasToolCalls() {
			continue
		}
		content := messageToGeminiContent(msg)
		if content == nil {
			continue
		}
		if n := len(contents); n > 0 && contents[n-1].Role == content.Role {
			contents[n-1].Parts = append(contents[n-1].Parts, content.Parts...)
			continue
		}
		contents = append(contents, content)
	}
	return contents
}

// messageToGeminiContent converts a single message to Gemini Content format.
func messageToGeminiContent(msg model.Message) *genai.Content {
	role := roleUser
	if msg.Role == model.RoleAssistant {
		role = roleModel
	}

	parts := make([]*genai.Part, 0)
	text := msg.Content
	if model.IsErrorText(text) {
		text = ""
	}

	if role == roleModel {
		for _, r := range msg.Reasoning {
			if r.Kind != model.ReasoningThinking || r.Thinking == "" {
				continue
			}
			parts = append(parts, &genai.Part{
				Text:             r.Thinking,
				Thought:          true,
				ThoughtSignature: decodeSignature(r.Signature),
			})
		}
		if strings.TrimSpace(text) != "" {
			parts = append(parts, genai.NewPartFromText(text))
		}
		for _, call := range msg.ToolCalls {
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					ID:   call.ID,
					Name: call.Name,
					Args: argsMap(call.Arguments),
				},
				ThoughtSignature: decodeSignature(call.Signature),
			})
		}
	} else {
		for _, call := range msg.ToolCalls {
			response := map[string]any{"output": call.Result}
			if call.IsError {
				response = map[string]any{"error": call.Result}
			}
			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       call.ID,
					Name:     call.Name,
					Response: response,
				},
			})
		}
		if strings.TrimSpace(text) != "" {
			parts = append(parts, genai.NewPartFromText(text))
		}
	}

	if len(parts) == 0 {
		return nil
	}
	return &genai.Content{Role: role, Parts: parts}
}

func argsMap(arguments string) map[string]any {
	args := map[string]any{}
	if strings.TrimSpace(arguments) == "" {
		return args
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return map[string]any{}
	}
	return args
}

func decodeSignature(sig string) []byte {
	if sig == "" {
		return nil
	}
	b, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		return nil
	}
	return b
}

func encodeSignature(sig []byte) string {
	if len(sig) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(sig)
}

// toGeminiConfig builds the request config for req.
func (p *GeminiProvider) toGeminiConfig(req *model.Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		SafetySettings: defaultSafetySettings(),
	}

	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(req.System)}}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.cfg.MaxTokens
	}
	if maxTokens > 0 {
		config.MaxOutputTokens = int32(maxTokens)
	}

	if req.DisableThinking {
		config.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)}
	} else if p.cfg.ThinkingBudget > 0 {
		config.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  genai.Ptr(int32(p.cfg.ThinkingBudget)),
		}
	}

	if len(req.Tools) > 0 {
		config.Tools = toGeminiTools(req.Tools)
		config.ToolConfig = toGeminiToolConfig(req.ToolChoice)
	}
	return config
}

// defaultSafetySettings returns safety settings with BLOCK_NONE for all categories.
func defaultSafetySettings() []*genai.SafetySetting {
	return []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdOff},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdOff},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdOff},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdOff},
	}
}

func toGeminiToolConfig(choice *model.ToolChoice) *genai.ToolConfig {
	fc := &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAuto}
	if choice != nil {
		switch choice.Kind {
		case model.ToolChoiceAny:
			fc.Mode = genai.FunctionCallingConfigModeAny
		case model.ToolChoiceTool:
			fc.Mode = genai.FunctionCallingConfigModeAny
			fc.AllowedFunctionNames = []string{choice.Name}
		}
	}
	return &genai.ToolConfig{FunctionCallingConfig: fc}
}

// toGeminiTools converts tool declarations to Gemini tools.
func toGeminiTools(decls []tool.Declaration) []*genai.Tool {
	functionDeclarations := make([]*genai.FunctionDeclaration, 0, len(decls))
	for _, d := range decls {
		fd := &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
		}
		if d.InputSchema != nil {
			fd.Parameters = toGeminiSchema(d.InputSchema)
		}
		functionDeclarations = append(functionDeclarations, fd)
	}
	return []*genai.Tool{{FunctionDeclarations: functionDeclarations}}
}

// toGeminiSchema converts a JSON schema recursively. additionalProperties
// has no Gemini equivalent and is dropped.
func toGeminiSchema(s *tool.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        toGeminiType(s.Type),
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGeminiSchema(prop)
		}
	}
	if s.Items != nil {
		out.Items = toGeminiSchema(s.Items)
	}
	return out
}

// toGeminiType converts string type to Gemini Type.
func toGeminiType(t tool.Type) genai.Type {
	switch t {
	case tool.TypeString:
		return genai.TypeString
	case tool.TypeNumber:
		return genai.TypeNumber
	case tool.TypeInteger:
		return genai.TypeInteger
	case tool.TypeBoolean:
		return genai.TypeBoolean
	case tool.TypeArray:
		return genai.TypeArray
	case tool.TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// fromGeminiResponse converts a Gemini response to the shared shape.
func fromGeminiResponse(resp *genai.GenerateContentResponse, modelUsed string) (*model.Response, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &model.InvalidResponseError{Reason: "no candidates in response"}
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, &model.InvalidResponseError{Reason: "content blocked by safety filters"}
	}

	out := &model.Response{
		Model:      modelUsed,
		StopReason: stopReason(candidate.FinishReason),
	}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}

	var text strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			switch {
			case part.FunctionCall != nil:
				id := part.FunctionCall.ID
				if id == "" {
					id = "call-" + uuid.NewString()
				}
				args, err := json.Marshal(part.FunctionCall.Args)
				if err != nil || part.FunctionCall.Args == nil {
					args = []byte("{}")
				}
				out.ToolCalls = append(out.ToolCalls, model.ToolCall{
					ID:        id,
					Name:      part.FunctionCall.Name,
					Arguments: string(args),
					Signature: encodeSignature(part.ThoughtSignature),
				})
			case part.Thought:
				out.Reasoning = append(out.Reasoning, model.ReasoningBlock{
					Kind:      model.ReasoningThinking,
					Thinking:  part.Text,
					Signature: encodeSignature(part.ThoughtSignature),
				})
			case part.Text != "":
				text.WriteString(part.Text)
			}
		}
	}
	out.Text = text.String()
	if len(out.ToolCalls) > 0 {
		out.StopReason = "tool_use"
	}

	if usage := resp.UsageMetadata; usage != nil {
		out.Usage = model.Usage{
			InputTokens:  int(usage.PromptTokenCount),
			OutputTokens: int(usage.CandidatesTokenCount + usage.ThoughtsTokenCount),
		}
	}
	return out, nil
}

func stopReason(r genai.FinishReason) string {
	switch r {
	case genai.FinishReasonStop, "":
		return "end_turn"
	case genai.FinishReasonMaxTokens:
		return "max_tokens"
	default:
		return strings.ToLower(string(r))
	}
}

// mapGeminiError maps SDK errors onto the shared transport taxonomy. ctx is
// the caller's context, used to tell cancellation from the request timeout.
func mapGeminiError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &model.APIError{StatusCode: apiErr.Code, Body: apiErrorBody(apiErr)}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &model.APIError{StatusCode: apiErrPtr.Code, Body: apiErrorBody(*apiErrPtr)}
	}

	return model.ClassifyTransportError(ctx, err)
}

func apiErrorBody(e genai.APIError) string {
	if e.Status != "" {
		return fmt.Sprintf("%s: %s", e.Status, e.Message)
	}
	return e.Message
}
