package cli

import (
	"context"
	"io"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mailweave/mailweave/pkg/adapter"
	"github.com/mailweave/mailweave/pkg/repository"
	"github.com/mailweave/mailweave/pkg/usecase/correlation"
	"github.com/mailweave/mailweave/pkg/usecase/memory"
	"github.com/mailweave/mailweave/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	// Repository
	project  string
	database string
	dataDir  string

	// Adapters
	anthropicAPIKey string
	geminiProject   string
	geminiLocation  string

	// Correlation
	candidates     string
	candidateLimit int64

	// Logging
	logLevel string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID (uses Firestore when set)",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Directory of the local file store (used when no project is set)",
			Value:       "data",
			Sources:     cli.EnvVars("MAILWEAVE_DATA_DIR"),
			Destination: &cfg.dataDir,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("MAILWEAVE_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Usage:       "Anthropic API key (uses Claude as classifier when set)",
			Sources:     cli.EnvVars("ANTHROPIC_API_KEY"),
			Destination: &cfg.anthropicAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
	}
}

// correlationFlags returns flags controlling candidate selection
func correlationFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "candidates",
			Usage:       "Candidate pool strategy: recent or semantic",
			Value:       "recent",
			Sources:     cli.EnvVars("MAILWEAVE_CANDIDATES"),
			Destination: &cfg.candidates,
		},
		&cli.IntFlag{
			Name:        "candidate-limit",
			Usage:       "Maximum size of the candidate pool",
			Value:       50,
			Sources:     cli.EnvVars("MAILWEAVE_CANDIDATE_LIMIT"),
			Destination: &cfg.candidateLimit,
		},
	}
}

// setupLogger builds the logger from config and attaches it to the context
func (cfg *config) setupLogger(ctx context.Context) context.Context {
	logger := logging.New(cfg.logLevel, os.Stderr)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// newRepository creates a repository: Firestore when a project is
// configured, the local file store otherwise
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.project != "" {
		if cfg.database == "" {
			return nil, goerr.New("database is required")
		}
		repo, err := repository.NewFirestore(ctx, cfg.project, cfg.database)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create firestore repository")
		}
		return repo, nil
	}

	if cfg.dataDir == "" {
		return nil, goerr.New("data-dir is required")
	}
	repo, err := repository.NewLocal(cfg.dataDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create local repository")
	}
	return repo, nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (*adapter.GeminiClient, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}
	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation)
}

// newClassifier picks the classification provider: Claude when an
// Anthropic API key is configured, Gemini otherwise
func (cfg *config) newClassifier(ctx context.Context) (adapter.Classifier, error) {
	if cfg.anthropicAPIKey != "" {
		return adapter.NewClaude(cfg.anthropicAPIKey), nil
	}
	return cfg.newGemini(ctx)
}

// newMemory wires the semantic memory store
func (cfg *config) newMemory(ctx context.Context, repo repository.Repository, w io.Writer) (*memory.UseCase, error) {
	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}
	return memory.New(repo, gemini, memory.WithOutput(w)), nil
}

// newCorrelation wires the correlation engine with the configured
// candidate strategy
func (cfg *config) newCorrelation(ctx context.Context, repo repository.Repository, mem *memory.UseCase, w io.Writer) (*correlation.UseCase, error) {
	classifier, err := cfg.newClassifier(ctx)
	if err != nil {
		return nil, err
	}

	var strategy correlation.Strategy
	switch cfg.candidates {
	case "", "recent":
		strategy = correlation.NewRecentStrategy(repo, int(cfg.candidateLimit))
	case "semantic":
		strategy = correlation.NewSemanticStrategy(mem, repo, int(cfg.candidateLimit))
	default:
		return nil, goerr.New("unknown candidate strategy", goerr.V("candidates", cfg.candidates))
	}

	return correlation.New(repo, classifier,
		correlation.WithStrategy(strategy),
		correlation.WithOutput(w),
	), nil
}

// newManualCorrelation wires the correlation engine for operations that
// never call the classifier, so no LLM configuration is required
func (cfg *config) newManualCorrelation(repo repository.Repository, w io.Writer) (*correlation.UseCase, error) {
	return correlation.New(repo, nil, correlation.WithOutput(w)), nil
}
