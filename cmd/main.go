package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"career-advisor/handler"
	"career-advisor/internal/config"
	"career-advisor/internal/integrations/paramstore"
	"career-advisor/internal/logging"
	"career-advisor/internal/repository"
	"career-advisor/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg := config.Load()
	slog.SetDefault(logging.New(os.Stdout, cfg.LogLevel))

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		fatal("failed to load AWS config", err)
	}

	if cfg.ParamPrefix != "" {
		params, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			fatal("failed to create SSM client", err)
		}
		if err := cfg.ApplyParams(ctx, params); err != nil {
			fatal("failed to load parameters", err)
		}
	}

	// ---- Clients ----
	store, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.MessagesTable, cfg.SessionIndexTable)
	if err != nil {
		fatal("failed to create repository", err)
	}

	// ---- Handler ----
	chatService, err := usecase.NewChatService(store)
	if err != nil {
		fatal("failed to create chat service", err)
	}

	h, err := handler.NewHandler(chatService)
	if err != nil {
		fatal("failed to create handler", err)
	}

	slog.Info("starting career advisor handler",
		"messages_table", cfg.MessagesTable,
		"session_index_table", cfg.SessionIndexTable,
	)
	lambda.Start(h.HandleEvent)
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
