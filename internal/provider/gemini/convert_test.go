package gemini

import (
	"testing"

	"github.com/Cyclone1070/lumen/internal/provider/model"
	"github.com/Cyclone1070/lumen/internal/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestToGeminiContents(t *testing.T) {
	history := []model.Message{
		{Role: model.RoleSystem, Content: "system text"},
		{Role: model.RoleUser, Content: "hello"},
		{Role: model.RoleUser, Content: "again"},
		{Role: model.RoleAssistant, Content: "Error: boom"},
		{Role: model.RoleAssistant, Content: "checking", Reasoning: []model.ReasoningBlock{
			{Kind: model.ReasoningThinking, Thinking: "plan", Signature: "c2ln"},
			{Kind: model.ReasoningRedacted, Data: "x"},
		}, ToolCalls: []model.ToolCall{{ID: "c1", Name: "web_search", Arguments: `{"query":"go"}`, Signature: "Y2FsbA=="}}},
		{Role: model.RoleUser, ToolCalls: []model.ToolCall{{ID: "c1", Name: "web_search", Result: "no results", IsError: true}}},
	}

	contents := toGeminiContents(history)
	require.Len(t, contents, 3)

	assert.Equal(t, "user", contents[0].Role)
	require.Len(t, contents[0].Parts, 2)
	assert.Equal(t, "hello", contents[0].Parts[0].Text)
	assert.Equal(t, "again", contents[0].Parts[1].Text)

	m := contents[1]
	assert.Equal(t, "model", m.Role)
	require.Len(t, m.Parts, 3, "redacted reasoning has no Gemini form")
	assert.True(t, m.Parts[0].Thought)
	assert.Equal(t, []byte("sig"), m.Parts[0].ThoughtSignature)
	assert.Equal(t, "checking", m.Parts[1].Text)
	require.NotNil(t, m.Parts[2].FunctionCall)
	assert.Equal(t, map[string]any{"query": "go"}, m.Parts[2].FunctionCall.Args)
	assert.Equal(t, []byte("call"), m.Parts[2].ThoughtSignature)

	r := contents[2]
	assert.Equal(t, "user", r.Role)
	require.NotNil(t, r.Parts[0].FunctionResponse)
	assert.Equal(t, "c1", r.Parts[0].FunctionResponse.ID)
	assert.Equal(t, map[string]any{"error": "no results"}, r.Parts[0].FunctionResponse.Response)
}

func TestToGeminiSchema_Nested(t *testing.T) {
	decl := tool.Declaration{
		Name: "web_search",
		InputSchema: tool.ObjectSchema("", []tool.Parameter{
			{Name: "query", Type: tool.TypeString, Required: true},
			{Name: "type", Type: tool.TypeString, Enum: []string{"fast", "auto"}},
			{Name: "includeDomains", Type: tool.TypeArray},
			{Name: "filter", Type: tool.TypeObject, Properties: []tool.Parameter{{Name: "n", Type: tool.TypeInteger}}},
		}),
	}

	tools := toGeminiTools([]tool.Declaration{decl})
	require.Len(t, tools, 1)
	fd := tools[0].FunctionDeclarations[0]
	assert.Equal(t, "web_search", fd.Name)
	assert.Equal(t, genai.TypeObject, fd.Parameters.Type)
	assert.Equal(t, []string{"query"}, fd.Parameters.Required)
	assert.Equal(t, []string{"fast", "auto"}, fd.Parameters.Properties["type"].Enum)
	assert.Equal(t, genai.TypeString, fd.Parameters.Properties["includeDomains"].Items.Type)
	assert.Equal(t, genai.TypeInteger, fd.Parameters.Properties["filter"].Properties["n"].Type)
}

func TestToGeminiSchema_NilInput(t *testing.T) {
	assert.Nil(t, toGeminiSchema(nil))
}

func TestToGeminiToolConfig(t *testing.T) {
	assert.Equal(t, genai.FunctionCallingConfigModeAuto, toGeminiToolConfig(nil).FunctionCallingConfig.Mode)

	forced := toGeminiToolConfig(&model.ToolChoice{Kind: model.ToolChoiceTool, Name: "reddit_read"})
	assert.Equal(t, genai.FunctionCallingConfigModeAny, forced.FunctionCallingConfig.Mode)
	assert.Equal(t, []string{"reddit_read"}, forced.FunctionCallingConfig.AllowedFunctionNames)
}

func TestFromGeminiResponse_Parts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true, ThoughtSignature: []byte("t")},
				{Text: "Looking "},
				{Text: "it up."},
				{FunctionCall: &genai.FunctionCall{Name: "web_search", Args: map[string]any{"query": "go"}}, ThoughtSignature: []byte("f")},
			}},
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     10,
			CandidatesTokenCount: 5,
			ThoughtsTokenCount:   7,
		},
	}

	out, err := fromGeminiResponse(resp, "gemini-mock")
	require.NoError(t, err)

	assert.Equal(t, "Looking it up.", out.Text)
	assert.Equal(t, "tool_use", out.StopReason)
	assert.Equal(t, model.Usage{InputTokens: 10, OutputTokens: 12}, out.Usage)
	require.Len(t, out.Reasoning, 1)
	assert.Equal(t, "dA==", out.Reasoning[0].Signature)
	require.Len(t, out.ToolCalls, 1)
	assert.Contains(t, out.ToolCalls[0].ID, "call-", "missing ids are synthesized")
	assert.Equal(t, `{"query":"go"}`, out.ToolCalls[0].Arguments)
	assert.Equal(t, "Zg==", out.ToolCalls[0].Signature)
}

func TestFromGeminiResponse_Failures(t *testing.T) {
	_, err := fromGeminiResponse(&genai.GenerateContentResponse{}, "m")
	var invalid *model.InvalidResponseError
	assert.ErrorAs(t, err, &invalid)

	_, err = fromGeminiResponse(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}}}, "m")
	assert.ErrorAs(t, err, &invalid)
	assert.Contains(t, err.Error(), "safety")
}

func TestFromGeminiResponse_MaxTokens(t *testing.T) {
	out, err := fromGeminiResponse(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content:      &genai.Content{Parts: []*genai.Part{{Text: "partial"}}},
		FinishReason: genai.FinishReasonMaxTokens,
	}}}, "m")
	require.NoError(t, err)
	assert.Equal(t, "max_tokens", out.StopReason)
	assert.Equal(t, "partial", out.Text)
}
