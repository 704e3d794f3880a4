package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"hackathon-assistant/handler"
	"hackathon-assistant/internal/config"
	"hackathon-assistant/internal/integrations/groq"
	"hackathon-assistant/internal/integrations/paramstore"
	"hackathon-assistant/internal/repository"
	"hackathon-assistant/internal/temporal"
	"hackathon-assistant/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		fatal(logger, "failed to load AWS config", err)
	}

	// ---- Clients ----
	store, err := newStore(ctx, cfg, awsdynamodb.NewFromConfig(awsCfg), logger)
	if err != nil {
		fatal(logger, "failed to create hackathon store", err)
	}

	groqOpts := []groq.Option{groq.WithLogger(logger)}
	if cfg.GroqBaseURL != "" {
		groqOpts = append(groqOpts, groq.WithBaseURL(cfg.GroqBaseURL))
	}
	if cfg.GroqAPIKey != "" {
		groqOpts = append(groqOpts, groq.WithAPIKey(cfg.GroqAPIKey))
	} else {
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			fatal(logger, "failed to create SSM client", err)
		}
		groqOpts = append(groqOpts, groq.WithParamStore(ssmClient, cfg.ParamPrefix))
	}
	groqClient, err := groq.NewClient(groqOpts...)
	if err != nil {
		fatal(logger, "failed to create Groq client", err)
	}

	// ---- Use cases ----
	clock := temporal.SystemClock{}
	answers, err := usecase.NewAnswerService(store, groqClient, clock, usecase.AnswerOptions{
		Model:             cfg.Model,
		Temperature:       cfg.Temperature,
		MaxTokens:         cfg.MaxTokens,
		MaxQuestionLen:    cfg.MaxQuestionLen,
		CompletionTimeout: cfg.CompletionTimeout,
	}, logger)
	if err != nil {
		fatal(logger, "failed to create answer service", err)
	}
	catalog, err := usecase.NewCatalogService(store, clock, logger)
	if err != nil {
		fatal(logger, "failed to create catalog service", err)
	}

	// ---- Handler ----
	h, err := handler.NewHandler(answers, catalog, handler.Info{Model: answers.Model()}, logger)
	if err != nil {
		fatal(logger, "failed to create handler", err)
	}

	lambda.Start(h.Handle)
}

func newStore(ctx context.Context, cfg config.Config, dynamo *awsdynamodb.Client, logger *slog.Logger) (usecase.HackathonStore, error) {
	if cfg.StoreBackend != config.BackendMongoDB {
		return repository.NewDynamoStore(dynamo, cfg.HackathonTable, cfg.SlugIndex, logger)
	}

	client, err := repository.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	coll := client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection)
	if err := repository.EnsureIndexes(ctx, coll); err != nil {
		logger.Warn("slug index not ensured", slog.Any("error", err))
	}
	logger.Info("using mongodb store", slog.String("database", cfg.MongoDatabase), slog.String("collection", cfg.MongoCollection))
	return repository.NewMongoStore(coll, logger)
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "err", err)
	os.Exit(1)
}
