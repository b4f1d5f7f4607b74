package cli

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/startzen/pkg/adapter"
	"github.com/m-mizutani/startzen/pkg/gateway"
	"github.com/m-mizutani/startzen/pkg/identity"
	"github.com/m-mizutani/startzen/pkg/model"
	"github.com/m-mizutani/startzen/pkg/policy"
	"github.com/m-mizutani/startzen/pkg/repository"
	"github.com/m-mizutani/startzen/pkg/usecase/pitch"
	"github.com/m-mizutani/startzen/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"
)

// config holds configuration values
type config struct {
	logLevel  string
	logFormat string

	// Platform
	project         string
	hostname        string
	hostnamePattern string
	publishableKey  string

	// Repository
	storage     string
	database    string
	storeFile   string
	credentials string

	// Generation
	provider       string
	geminiAPIKey   string
	geminiProject  string
	geminiLocation string
	geminiModel    string
	geminiTemp     float64
	openaiAPIKey   string
	openaiModel    string
	openaiBaseURL  string
	policyDir      string

	// Archive
	archiveBucket string
	archivePrefix string

	// Identity
	kratosURL string
	userID    string
	userName  string
	userEmail string
}

func logFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Aliases:     []string{"l"},
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("STARTZEN_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       string(logging.FormatConsole),
			Sources:     cli.EnvVars("STARTZEN_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
	}
}

// globalFlags returns platform and repository flags used across commands
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Platform project ID. Takes precedence over the hostname",
			Sources:     cli.EnvVars("STARTZEN_PROJECT_ID"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "hostname",
			Usage:       "Deployment hostname used to derive the project ID",
			Sources:     cli.EnvVars("STARTZEN_HOSTNAME"),
			Destination: &cfg.hostname,
		},
		&cli.StringFlag{
			Name:        "hostname-pattern",
			Usage:       "Regular expression whose first group is the project ID in the hostname",
			Value:       gateway.DefaultHostnamePattern,
			Sources:     cli.EnvVars("STARTZEN_HOSTNAME_PATTERN"),
			Destination: &cfg.hostnamePattern,
		},
		&cli.StringFlag{
			Name:        "publishable-key",
			Usage:       "Publishable client key of the platform",
			Sources:     cli.EnvVars("STARTZEN_PUBLISHABLE_KEY"),
			Destination: &cfg.publishableKey,
		},
		&cli.StringFlag{
			Name:        "storage",
			Usage:       "Record storage backend (firestore, memory)",
			Value:       "firestore",
			Sources:     cli.EnvVars("STARTZEN_STORAGE"),
			Destination: &cfg.storage,
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
			Name:        "store-file",
			Usage:       "JSON file backing the memory storage",
			Sources:     cli.EnvVars("STARTZEN_STORE_FILE"),
			Destination: &cfg.storeFile,
		},
		&cli.StringFlag{
			Name:        "credentials",
			Usage:       "Google Cloud credentials file",
			Sources:     cli.EnvVars("GOOGLE_APPLICATION_CREDENTIALS"),
			Destination: &cfg.credentials,
		},
	}
}

// llmFlags returns flags for the generation service and submission policy
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "provider",
			Usage:       "Generation provider (gemini, openai)",
			Value:       "gemini",
			Sources:     cli.EnvVars("STARTZEN_PROVIDER"),
			Destination: &cfg.provider,
		},
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key. Vertex AI is used when empty",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Vertex AI. Defaults to the platform project",
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
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model name",
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
		&cli.FloatFlag{
			Name:        "gemini-temperature",
			Usage:       "Sampling temperature for Gemini. The model default is used when zero",
			Sources:     cli.EnvVars("GEMINI_TEMPERATURE"),
			Destination: &cfg.geminiTemp,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Sources:     cli.EnvVars("OPENAI_API_KEY"),
			Destination: &cfg.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "openai-model",
			Usage:       "OpenAI model name",
			Sources:     cli.EnvVars("OPENAI_MODEL"),
			Destination: &cfg.openaiModel,
		},
		&cli.StringFlag{
			Name:        "openai-base-url",
			Usage:       "OpenAI compatible API base URL",
			Sources:     cli.EnvVars("OPENAI_BASE_URL"),
			Destination: &cfg.openaiBaseURL,
		},
		&cli.StringFlag{
			Name:        "policy-dir",
			Usage:       "Directory of Rego files gating submissions",
			Sources:     cli.EnvVars("STARTZEN_POLICY_DIR"),
			Destination: &cfg.policyDir,
		},
	}
}

func archiveFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "archive-bucket",
			Usage:       "Cloud Storage bucket keeping raw generation outputs",
			Sources:     cli.EnvVars("STARTZEN_ARCHIVE_BUCKET"),
			Destination: &cfg.archiveBucket,
		},
		&cli.StringFlag{
			Name:        "archive-prefix",
			Usage:       "Object name prefix in the archive bucket",
			Value:       "decks/",
			Sources:     cli.EnvVars("STARTZEN_ARCHIVE_PREFIX"),
			Destination: &cfg.archivePrefix,
		},
	}
}

// userFlags identify the signed in user for local clients
func userFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "user-id",
			Aliases:     []string{"u"},
			Usage:       "User ID owning saved pitches. Anonymous when empty",
			Sources:     cli.EnvVars("STARTZEN_USER_ID"),
			Destination: &cfg.userID,
		},
		&cli.StringFlag{
			Name:        "user-name",
			Usage:       "Display name of the user",
			Sources:     cli.EnvVars("STARTZEN_USER_NAME"),
			Destination: &cfg.userName,
		},
		&cli.StringFlag{
			Name:        "user-email",
			Usage:       "Email of the user",
			Sources:     cli.EnvVars("STARTZEN_USER_EMAIL"),
			Destination: &cfg.userEmail,
		},
	}
}

func kratosFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "kratos-url",
			Usage:       "Public URL of the Ory Kratos identity provider",
			Sources:     cli.EnvVars("KRATOS_PUBLIC_URL"),
			Destination: &cfg.kratosURL,
		},
	}
}

// setupLogger installs the configured logger and attaches it to ctx
func (cfg *config) setupLogger(ctx context.Context, w io.Writer) context.Context {
	logger := logging.Setup(cfg.logLevel, logging.Format(cfg.logFormat), w)
	return logging.With(ctx, logger)
}

// newGatewayConfig resolves the project ID from the explicit flag, then the deployment hostname,
// then the fallback constant
func (cfg *config) newGatewayConfig() (*gateway.Config, error) {
	pattern, err := gateway.NewHostnamePattern(cfg.hostname, cfg.hostnamePattern)
	if err != nil {
		return nil, err
	}

	return gateway.NewConfig(cfg.publishableKey,
		gateway.Override(cfg.project),
		pattern,
		gateway.Fallback(gateway.DefaultProjectID),
	)
}

func (cfg *config) clientOptions() []option.ClientOption {
	if cfg.credentials == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.credentials)}
}

// newRepository creates the record storage. The returned function releases it.
func (cfg *config) newRepository(ctx context.Context, projectID string) (repository.Repository, func(), error) {
	switch cfg.storage {
	case "memory":
		var opts []repository.MemoryOption
		if cfg.storeFile != "" {
			opts = append(opts, repository.WithFile(cfg.storeFile))
		}
		repo, err := repository.NewMemory(opts...)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil

	case "firestore", "":
		if projectID == "" {
			return nil, nil, goerr.New("project is required")
		}
		if cfg.database == "" {
			return nil, nil, goerr.New("database is required")
		}
		repo, err := repository.New(ctx, projectID, cfg.database, cfg.clientOptions()...)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create repository")
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				logging.From(ctx).Warn("failed to close repository", logging.ErrAttr(err))
			}
		}, nil

	default:
		return nil, nil, goerr.New("unknown storage backend", goerr.V("storage", cfg.storage))
	}
}

// newGenerator creates the generation service client
func (cfg *config) newGenerator(ctx context.Context, projectID string) (adapter.Generator, error) {
	switch cfg.provider {
	case "gemini", "":
		project := cfg.geminiProject
		if project == "" {
			project = projectID
		}
		if cfg.geminiAPIKey == "" && cfg.geminiLocation == "" {
			return nil, goerr.New("gemini-location is required")
		}
		opts := []adapter.GeminiOption{adapter.WithGenerativeModel(cfg.geminiModel)}
		if cfg.geminiTemp > 0 {
			opts = append(opts, adapter.WithTemperature(float32(cfg.geminiTemp)))
		}
		return adapter.NewGemini(ctx, adapter.GeminiConfig{
			APIKey:   cfg.geminiAPIKey,
			Project:  project,
			Location: cfg.geminiLocation,
		}, opts...)

	case "openai":
		var opts []adapter.OpenAIOption
		opts = append(opts, adapter.WithOpenAIModel(cfg.openaiModel))
		if cfg.openaiBaseURL != "" {
			opts = append(opts, adapter.WithOpenAIBaseURL(cfg.openaiBaseURL))
		}
		return adapter.NewOpenAI(cfg.openaiAPIKey, opts...)

	default:
		return nil, goerr.New("unknown generation provider", goerr.V("provider", cfg.provider))
	}
}

// newArchive returns nil when no bucket is configured
func (cfg *config) newArchive(ctx context.Context) (adapter.Storage, error) {
	if cfg.archiveBucket == "" {
		return nil, nil
	}

	storage, err := adapter.NewStorage(ctx, cfg.archiveBucket, cfg.archivePrefix, cfg.clientOptions()...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

// newBuilder creates the pitch request builder with the configured policy
func (cfg *config) newBuilder(ctx context.Context, gen adapter.Generator) (*pitch.Builder, error) {
	pol, err := policy.Load(ctx, cfg.policyDir)
	if err != nil {
		return nil, err
	}
	if pol != nil {
		logging.From(ctx).Info("submission policy loaded", "dir", cfg.policyDir)
	}
	return pitch.New(gen, pitch.WithPolicy(pol))
}

// user returns the local user, or nil when no user ID is configured
func (cfg *config) user() *model.User {
	if cfg.userID == "" {
		return nil
	}
	return &model.User{
		ID:          model.UserID(cfg.userID),
		DisplayName: cfg.userName,
		Email:       cfg.userEmail,
	}
}

// newIdentity returns Kratos when its URL is set, otherwise a static provider for the local user
func (cfg *config) newIdentity() identity.Provider {
	if cfg.kratosURL != "" {
		return adapter.NewKratos(cfg.kratosURL, 5*time.Second)
	}
	user := cfg.user()
	return identity.NewStatic(user, user != nil)
}

// newGateway builds every platform capability. The returned function releases them.
func (cfg *config) newGateway(ctx context.Context) (*gateway.Gateway, func(), error) {
	gwCfg, err := cfg.newGatewayConfig()
	if err != nil {
		return nil, nil, err
	}
	logging.From(ctx).Debug("platform configured", slog.String("project_id", gwCfg.ProjectID))

	records, closeRepo, err := cfg.newRepository(ctx, gwCfg.ProjectID)
	if err != nil {
		return nil, nil, err
	}

	gen, err := cfg.newGenerator(ctx, gwCfg.ProjectID)
	if err != nil {
		closeRepo()
		return nil, nil, err
	}

	archive, err := cfg.newArchive(ctx)
	if err != nil {
		closeRepo()
		return nil, nil, err
	}

	gw, err := gateway.New(gwCfg, cfg.newIdentity(), gen, records, archive)
	if err != nil {
		closeRepo()
		return nil, nil, err
	}
	return gw, closeRepo, nil
}
