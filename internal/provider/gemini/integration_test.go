//go:build integration

package gemini

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Cyclone1070/lumen/internal/provider/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiProvider_RealAPI_TextGeneration(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set, skipping real API test")
	}

	client, err := NewRealGeminiClient(context.Background(), apiKey)
	require.NoError(t, err)

	p := New(client, Config{Model: "gemini-2.5-flash", MaxTokens: 256, Timeout: time.Minute}, nil)
	resp, err := p.Generate(context.Background(), &model.Request{
		Messages:        []model.Message{{Role: model.RoleUser, Content: "What is 15 * 8? Reply with the number only."}},
		DisableThinking: true,
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "120")
	assert.Positive(t, resp.Usage.InputTokens)
}
