// Package main is the lumen command-line harness: smoke tests for each
// backend, one-shot questions and an interactive chat.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Cyclone1070/lumen/internal/attachment"
	"github.com/Cyclone1070/lumen/internal/config"
	"github.com/Cyclone1070/lumen/internal/logging"
	"github.com/Cyclone1070/lumen/internal/provider/bedrock"
	"github.com/Cyclone1070/lumen/internal/provider/exa"
	"github.com/Cyclone1070/lumen/internal/provider/gemini"
	"github.com/Cyclone1070/lumen/internal/provider/model"
	"github.com/Cyclone1070/lumen/internal/provider/reddit"
	"github.com/Cyclone1070/lumen/internal/store/sqlite"
	"github.com/Cyclone1070/lumen/internal/tool"
	"github.com/Cyclone1070/lumen/internal/tool/forum"
	"github.com/Cyclone1070/lumen/internal/tool/web"
	"github.com/Cyclone1070/lumen/internal/ui/services"
	"github.com/Cyclone1070/lumen/internal/usage"
)

// generator is the model contract shared by the bedrock and gemini backends.
type generator interface {
	Generate(ctx context.Context, req *model.Request) (*model.Response, error)
}

// searcher is the web search provider.
type searcher interface {
	Search(ctx context.Context, req exa.SearchRequest) ([]exa.Result, error)
	GetContents(ctx context.Context, urls []string, maxCharacters int, livecrawl exa.Livecrawl) ([]exa.Result, error)
}

// threadFetcher is the forum provider.
type threadFetcher interface {
	FetchThreads(ctx context.Context, urls []string) []reddit.ThreadResult
}

// Dependencies holds the components required to run the application.
type Dependencies struct {
	Config      *config.Config
	Logger      *slog.Logger
	Model       generator
	ModelName   string
	Search      searcher
	Forum       threadFetcher
	Tools       *tool.Registry
	Usage       *usage.Tracker
	Store       *sqlite.Store // nil when the database could not be opened
	Attachments *attachment.Store
	Renderer    services.MarkdownRenderer
}

// Close releases the database.
func (d *Dependencies) Close() {
	if d.Store != nil {
		d.Store.Close()
	}
}

func buildDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:   cfg,
		Logger:   logger,
		Renderer: services.NewGlamourRenderer(""),
	}

	db, err := sqlite.New(cfg.Storage.DatabasePath, logger)
	if err != nil {
		logger.Warn("conversation store unavailable", "path", cfg.Storage.DatabasePath, "error", err)
	} else {
		deps.Store = db
	}
	if deps.Store != nil {
		deps.Usage = usage.NewTracker(deps.Store, logger)
	} else {
		deps.Usage = usage.NewTracker(nil, logger)
	}

	deps.Attachments = attachment.NewStore(cfg.Storage.AttachmentsDir, cfg.Storage.MaxImageDimension, logger)

	switch cfg.Provider.Name {
	case "gemini":
		client, err := gemini.NewRealGeminiClient(ctx, cfg.Credentials.GeminiAPIKey)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		deps.Model = gemini.New(client, gemini.Config{
			Model:          cfg.Provider.GeminiModel,
			MaxTokens:      cfg.Provider.MaxTokens,
			ThinkingBudget: cfg.Provider.ThinkingBudget,
			Timeout:        cfg.RequestTimeout(),
		}, logger)
		deps.ModelName = cfg.Provider.GeminiModel
	default:
		signer := bedrock.NewSigV4Signer(bedrock.Credentials{
			AccessKeyID:     cfg.Credentials.AccessKeyID,
			SecretAccessKey: cfg.Credentials.SecretAccessKey,
			SessionToken:    cfg.Credentials.SessionToken,
		}, cfg.Provider.Region)
		deps.Model = bedrock.NewClient(bedrock.Config{
			Region:         cfg.Provider.Region,
			ModelID:        cfg.Provider.ModelID,
			Endpoint:       cfg.Provider.EndpointOverride,
			MaxTokens:      cfg.Provider.MaxTokens,
			ThinkingBudget: cfg.Provider.ThinkingBudget,
			Timeout:        cfg.RequestTimeout(),
		}, signer, deps.Attachments, logger)
		deps.ModelName = cfg.Provider.ModelID
	}

	deps.Search = exa.NewClient(cfg.Tools.ExaBaseURL, cfg.Credentials.ExaAPIKey, seconds(cfg.Tools.ExaTimeoutSeconds), logger)
	deps.Forum = reddit.NewClient(cfg.Tools.RedditUserAgent, seconds(cfg.Tools.RedditTimeoutSeconds), cfg.Tools.FetchConcurrency, logger)

	if err := deps.registerTools(); err != nil {
		deps.Close()
		return nil, err
	}
	return deps, nil
}

// registerTools builds the registry from the configured providers.
func (d *Dependencies) registerTools() error {
	reg, err := tool.NewRegistry(
		web.NewSearchTool(d.Search, d.Config.Tools),
		web.NewContentsTool(d.Search, d.Config.Tools),
		forum.NewSearchTool(d.Search, d.Config.Tools),
		forum.NewReadTool(d.Forum, d.Config.Tools),
	)
	if err != nil {
		return fmt.Errorf("register tools: %w", err)
	}
	d.Tools = reg
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		fmt.Fprintf(os.Stderr, "Using default configuration.\n")
		cfg = config.DefaultConfig()
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to open log: %v\n", err)
		logger, closer = logging.Discard(), io.NopCloser(nil)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	defer deps.Close()

	// Failures are printed, never turned into a non-zero exit status.
	if err := run(ctx, os.Args[1:], os.Stdout, deps); err != nil {
		fmt.Fprintf(os.Stdout, "Error: %v\n", err)
	}
}
