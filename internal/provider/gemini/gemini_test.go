package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Cyclone1070/lumen/internal/provider/model"
	"github.com/Cyclone1070/lumen/internal/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []*genai.Part{{Text: text}}},
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 10, CandidatesTokenCount: 5},
	}
}

func TestGenerate_HappyPath_TextResponse(t *testing.T) {
	var gotModel string
	var gotConfig *genai.GenerateContentConfig
	mockClient := &MockGeminiClient{
		GenerateContentFunc: func(ctx context.Context, modelName string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotModel, gotConfig = modelName, config
			return textResponse("120"), nil
		},
	}

	p := New(mockClient, Config{Model: "gemini-mock", MaxTokens: 4096, ThinkingBudget: 2048}, nil)
	resp, err := p.Generate(context.Background(), &model.Request{
		System:   "be brief",
		Messages: []model.Message{{Role: model.RoleUser, Content: "What is 15 * 8?"}},
		Tools:    []tool.Declaration{{Name: "web_search", InputSchema: tool.ObjectSchema("", nil)}},
	})
	require.NoError(t, err)

	assert.Equal(t, "gemini-mock", gotModel)
	assert.Equal(t, "be brief", gotConfig.SystemInstruction.Parts[0].Text)
	assert.Equal(t, int32(4096), gotConfig.MaxOutputTokens)
	require.NotNil(t, gotConfig.ThinkingConfig)
	assert.True(t, gotConfig.ThinkingConfig.IncludeThoughts)
	assert.Equal(t, int32(2048), *gotConfig.ThinkingConfig.ThinkingBudget)
	require.Len(t, gotConfig.Tools, 1)

	assert.Equal(t, "120", resp.Text)
	assert.Equal(t, 15, resp.Usage.Total())
}

func TestGenerate_TitleRequestDisablesThinking(t *testing.T) {
	var gotModel string
	var gotConfig *genai.GenerateContentConfig
	mockClient := &MockGeminiClient{
		GenerateContentFunc: func(ctx context.Context, modelName string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotModel, gotConfig = modelName, config
			return textResponse("Go Search"), nil
		},
	}

	p := New(mockClient, Config{Model: "gemini-mock", ThinkingBudget: 2048}, nil)
	_, err := p.Generate(context.Background(), &model.Request{
		Model:           "gemini-lite",
		Messages:        []model.Message{{Role: model.RoleUser, Content: "title"}},
		MaxTokens:       100,
		DisableThinking: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "gemini-lite", gotModel)
	assert.Nil(t, gotConfig.Tools)
	assert.Equal(t, int32(0), *gotConfig.ThinkingConfig.ThinkingBudget)
	assert.Equal(t, int32(100), gotConfig.MaxOutputTokens)
}

func TestGenerate_UnhappyPath_APIError(t *testing.T) {
	for _, apiErr := range []error{
		genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota"},
		&genai.APIError{Code: 401, Message: "bad key"},
	} {
		t.Run(apiErr.Error(), func(t *testing.T) {
			mockClient := &MockGeminiClient{
				GenerateContentFunc: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
					return nil, fmt.Errorf("generate: %w", apiErr)
				},
			}
			p := New(mockClient, Config{Model: "m"}, nil)

			_, err := p.Generate(context.Background(), &model.Request{Messages: []model.Message{{Role: model.RoleUser, Content: "x"}}})

			var mapped *model.APIError
			require.True(t, errors.As(err, &mapped))
			assert.NotZero(t, mapped.StatusCode)
		})
	}
}

func TestGenerate_Cancelled(t *testing.T) {
	mockClient := &MockGeminiClient{
		GenerateContentFunc: func(ctx context.Context, _ string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	p := New(mockClient, Config{Model: "m", Timeout: time.Minute}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Generate(ctx, &model.Request{Messages: []model.Message{{Role: model.RoleUser, Content: "x"}}})
	assert.ErrorIs(t, err, model.ErrCancelled)
}

func TestGenerate_TimedOut(t *testing.T) {
	mockClient := &MockGeminiClient{
		GenerateContentFunc: func(ctx context.Context, _ string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	p := New(mockClient, Config{Model: "m", Timeout: 20 * time.Millisecond}, nil)

	_, err := p.Generate(context.Background(), &model.Request{Messages: []model.Message{{Role: model.RoleUser, Content: "x"}}})
	assert.ErrorIs(t, err, model.ErrTimedOut)
}
