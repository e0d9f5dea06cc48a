package config

import (
	"fmt"
	"strings"
)

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks config values for life correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	// Provider validation
	switch c.Provider.Name {
	case "bedrock", "gemini":
	default:
		errs = append(errs, fmt.Sprintf("provider.name must be bedrock or gemini, got %q", c.Provider.Name))
	}
	if c.Provider.Name == "bedrock" && c.Provider.Region == "" {
		errs = append(errs, "provider.region is required for bedrock")
	}
	if c.Provider.ModelID == "" {
		errs = append(errs, "provider.model_id is required")
	}
	if c.Provider.TitleModelID == "" {
		errs = append(errs, "provider.title_model_id is required")
	}
	if c.Provider.MaxTokens < 1 {
		errs = append(errs, "provider.max_tokens must be >= 1")
	}
	if c.Provider.ThinkingBudget < 1024 {
		errs = append(errs, "provider.thinking_budget must be >= 1024")
	}
	if c.Provider.ThinkingBudget >= c.Provider.MaxTokens {
		errs = append(errs, "provider.thinking_budget must be < provider.max_tokens")
	}
	if c.Provider.TitleMaxTokens < 1 {
		errs = append(errs, "provider.title_max_tokens must be >= 1")
	}
	if c.Provider.RequestTimeoutSeconds < 1 {
		errs = append(errs, "provider.request_timeout_seconds must be >= 1")
	}

	// Agent validation
	if c.Agent.MaxToolCalls < 1 {
		errs = append(errs, "agent.max_tool_calls must be >= 1")
	}
	if c.Agent.StaleConversationMinutes < 1 {
		errs = append(errs, "agent.stale_conversation_minutes must be >= 1")
	}
	if c.Agent.TitleContextMessages < 1 {
		errs = append(errs, "agent.title_context_messages must be >= 1")
	}

	// Tools validation
	if c.Tools.ExaBaseURL == "" {
		errs = append(errs, "tools.exa_base_url is required")
	}
	if c.Tools.ExaTimeoutSeconds < 1 {
		errs = append(errs, "tools.exa_timeout_seconds must be >= 1")
	}
	if c.Tools.RedditTimeoutSeconds < 1 {
		errs = append(errs, "tools.reddit_timeout_seconds must be >= 1")
	}
	if c.Tools.MaxNumResults < 1 {
		errs = append(errs, "tools.max_num_results must be >= 1")
	}
	if c.Tools.ForumMaxNumResults < 1 {
		errs = append(errs, "tools.forum_max_num_results must be >= 1")
	}
	if c.Tools.MinMaxCharacters < 1 {
		errs = append(errs, "tools.min_max_characters must be >= 1")
	}
	if c.Tools.MaxURLsPerCall < 1 {
		errs = append(errs, "tools.max_urls_per_call must be >= 1")
	}
	if c.Tools.ForumMaxThreadsPerCall < 1 {
		errs = append(errs, "tools.forum_max_threads_per_call must be >= 1")
	}
	if c.Tools.FetchConcurrency < 1 {
		errs = append(errs, "tools.fetch_concurrency must be >= 1")
	}

	// Semantic validation: Default within [Min, Max] constraints
	if c.Tools.DefaultNumResults < 1 || c.Tools.DefaultNumResults > c.Tools.MaxNumResults {
		errs = append(errs, "tools.default_num_results must be between 1 and tools.max_num_results")
	}
	if c.Tools.MinMaxCharacters > c.Tools.MaxMaxCharacters {
		errs = append(errs, "tools.min_max_characters must be <= tools.max_max_characters")
	}
	if !inRange(c.Tools.DefaultSearchChars, c.Tools.MinMaxCharacters, c.Tools.MaxMaxCharacters) {
		errs = append(errs, "tools.default_search_chars must be within the max_characters range")
	}
	if !inRange(c.Tools.DefaultContentsChars, c.Tools.MinMaxCharacters, c.Tools.MaxMaxCharacters) {
		errs = append(errs, "tools.default_contents_chars must be within the max_characters range")
	}
	if !inRange(c.Tools.ForumDefaultChars, c.Tools.MinMaxCharacters, c.Tools.ForumMaxCharacters) {
		errs = append(errs, "tools.forum_default_chars must be within the forum max_characters range")
	}

	// Storage validation
	if c.Storage.MaxImageDimension < 64 {
		errs = append(errs, "storage.max_image_dimension must be >= 64")
	}

	// Logging validation
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}

func inRange(v, lo, hi int) bool {
	return v >= lo && v <= hi
}
