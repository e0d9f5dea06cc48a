package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile,
// then via environment variables (see env.go).
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Provider    ProviderConfig    `json:"provider"`
	Credentials CredentialsConfig `json:"credentials"`
	Agent       AgentConfig       `json:"agent"`
	Tools       ToolsConfig       `json:"tools"`
	Storage     StorageConfig     `json:"storage"`
	Logging     LoggingConfig     `json:"logging"`
}

// ProviderConfig selects and tunes the model backend.
type ProviderConfig struct {
	Name                  string `json:"name"`                    // "bedrock" or "gemini"
	Region                string `json:"region"`                  // Default: us-east-1
	ModelID               string `json:"model_id"`                // Primary model
	TitleModelID          string `json:"title_model_id"`          // Cheaper model for titles
	GeminiModel           string `json:"gemini_model"`            // Used when Name == "gemini"
	MaxTokens             int    `json:"max_tokens"`              // Default: 16000
	ThinkingBudget        int    `json:"thinking_budget"`         // Default: 10000
	TitleMaxTokens        int    `json:"title_max_tokens"`        // Default: 100
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"` // Default: 300
	EndpointOverride      string `json:"endpoint_override"`       // Empty means the regional runtime endpoint
}

// CredentialsConfig carries secrets. Usually supplied through the environment.
type CredentialsConfig struct {
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	SessionToken    string `json:"session_token"`
	ExaAPIKey       string `json:"exa_api_key"`
	GeminiAPIKey    string `json:"gemini_api_key"`
}

// AgentConfig tunes the orchestration loop.
type AgentConfig struct {
	MaxToolCalls             int    `json:"max_tool_calls"`             // Default: 10
	SystemPrompt             string `json:"system_prompt"`              // Sent via the system field
	StaleConversationMinutes int    `json:"stale_conversation_minutes"` // Default: 30
	TitleContextMessages     int    `json:"title_context_messages"`     // Default: 4
}

// ToolsConfig holds provider endpoints and argument limits for the tools.
type ToolsConfig struct {
	// Search provider
	ExaBaseURL             string `json:"exa_base_url"`               // Default: https://api.exa.ai
	ExaTimeoutSeconds      int    `json:"exa_timeout_seconds"`        // Default: 30
	DefaultNumResults      int    `json:"default_num_results"`        // Default: 5
	MaxNumResults          int    `json:"max_num_results"`            // Default: 50
	DefaultSearchChars     int    `json:"default_search_chars"`       // Default: 2000
	DefaultContentsChars   int    `json:"default_contents_chars"`     // Default: 5000
	MinMaxCharacters       int    `json:"min_max_characters"`         // Default: 100
	MaxMaxCharacters       int    `json:"max_max_characters"`         // Default: 20000
	MaxURLsPerCall         int    `json:"max_urls_per_call"`          // Default: 10
	ForumMaxNumResults     int    `json:"forum_max_num_results"`      // Default: 20
	ForumMaxCharacters     int    `json:"forum_max_characters"`       // Default: 5000
	ForumDefaultChars      int    `json:"forum_default_chars"`        // Default: 1000
	ForumMaxThreadsPerCall int    `json:"forum_max_threads_per_call"` // Default: 5

	// Forum provider
	RedditUserAgent      string `json:"reddit_user_agent"`
	RedditTimeoutSeconds int    `json:"reddit_timeout_seconds"` // Default: 20
	FetchConcurrency     int    `json:"fetch_concurrency"`      // Default: 4
}

// StorageConfig locates the conversation database and attachment directory.
// Empty paths resolve under ~/.config/lumen.
type StorageConfig struct {
	DatabasePath      string `json:"database_path"`
	AttachmentsDir    string `json:"attachments_dir"`
	MaxImageDimension int    `json:"max_image_dimension"` // Default: 1568
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level string `json:"level"` // debug, info, warn, error
	File  string `json:"file"`  // "-" for stderr, empty for ~/.config/lumen/lumen.log
}

const defaultSystemPrompt = `You are a helpful assistant living in a quick-access chat window.
Answer concisely. Use the available tools when the question needs current
information from the web or from Reddit discussions, and cite the URLs you used.`

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:                  "bedrock",
			Region:                "us-east-1",
			ModelID:               "us.anthropic.claude-sonnet-4-20250514-v1:0",
			TitleModelID:          "us.anthropic.claude-3-5-haiku-20241022-v1:0",
			GeminiModel:           "gemini-2.5-flash",
			MaxTokens:             16000,
			ThinkingBudget:        10000,
			TitleMaxTokens:        100,
			RequestTimeoutSeconds: 300,
		},
		Agent: AgentConfig{
			MaxToolCalls:             10,
			SystemPrompt:             defaultSystemPrompt,
			StaleConversationMinutes: 30,
			TitleContextMessages:     4,
		},
		Tools: ToolsConfig{
			ExaBaseURL:             "https://api.exa.ai",
			ExaTimeoutSeconds:      30,
			DefaultNumResults:      5,
			MaxNumResults:          50,
			DefaultSearchChars:     2000,
			DefaultContentsChars:   5000,
			MinMaxCharacters:       100,
			MaxMaxCharacters:       20000,
			MaxURLsPerCall:         10,
			ForumMaxNumResults:     20,
			ForumMaxCharacters:     5000,
			ForumDefaultChars:      1000,
			ForumMaxThreadsPerCall: 5,
			RedditUserAgent:        "lumen/1.0 (desktop chat client)",
			RedditTimeoutSeconds:   20,
			FetchConcurrency:       4,
		},
		Storage: StorageConfig{
			MaxImageDimension: 1568,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
