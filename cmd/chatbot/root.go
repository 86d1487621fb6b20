package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awslogs "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ollama-chatbot/internal/config"
	"ollama-chatbot/internal/integrations/cloudwatch"
	"ollama-chatbot/internal/integrations/ollama"
	"ollama-chatbot/internal/integrations/paramstore"
	"ollama-chatbot/internal/repository"
	"ollama-chatbot/internal/usecase"
	"ollama-chatbot/pkg/logger"
)

type rootOptions struct {
	logLevel string
	model    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "chatbot",
		Short:         "Chat backend that answers with a local ollama model",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&opts.model, "model", "", "ollama model (overrides OLLAMA_MODEL)")

	cmd.AddCommand(newServeCmd(opts), newLambdaCmd(opts), newSetupCmd(opts))
	return cmd
}

// app is the wired process: configuration, logger and the chat service.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	aws      aws.Config
	chat     *usecase.ChatService
	activity *cloudwatch.Logger
}

// loadBase reads configuration and builds the logger and AWS config.
func loadBase(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	if cfg.ParamPrefix != "" {
		ps, err := paramstore.New(awsssm.NewFromConfig(awsCfg), cfg.ParamPrefix)
		if err != nil {
			return nil, err
		}
		if err := cfg.ApplyParams(ctx, ps); err != nil {
			return nil, err
		}
	}
	if opts.model != "" {
		cfg.OllamaModel = opts.model
	}

	return &app{cfg: cfg, log: log, aws: awsCfg}, nil
}

// buildApp wires every client into the chat service.
func buildApp(ctx context.Context, opts *rootOptions) (*app, error) {
	a, err := loadBase(ctx, opts)
	if err != nil {
		return nil, err
	}
	cfg := a.cfg

	store, err := repository.New(awsdynamodb.NewFromConfig(a.aws), cfg.HistoryTable)
	if err != nil {
		return nil, err
	}

	runner, err := ollama.NewRunner(
		ollama.WithBinary(cfg.OllamaBinary),
		ollama.WithModel(cfg.OllamaModel),
		ollama.WithTimeout(cfg.ModelTimeout),
		ollama.WithLogger(a.log.Named("ollama")),
	)
	if err != nil {
		return nil, err
	}

	var activity usecase.ActivityRecorder = cloudwatch.Nop{}
	if cfg.CloudWatchEnabled {
		a.activity, err = newActivityLogger(a)
		if err != nil {
			return nil, err
		}
		if err := a.activity.Setup(ctx); err != nil {
			// Appends still go through if the group/stream were provisioned elsewhere.
			a.log.Warn("cloudwatch setup failed", zap.Error(err))
		}
		activity = a.activity
	}

	a.chat, err = usecase.NewChatService(store, runner, activity, cfg.DefaultUserID,
		usecase.WithLogger(a.log.Named("chat")),
	)
	if err != nil {
		return nil, err
	}

	a.log.Info("chat service ready",
		zap.String("history_table", cfg.HistoryTable),
		zap.String("model", runner.Model()),
		zap.Bool("cloudwatch", cfg.CloudWatchEnabled),
	)
	return a, nil
}

func newActivityLogger(a *app) (*cloudwatch.Logger, error) {
	return cloudwatch.New(awslogs.NewFromConfig(a.aws), a.cfg.LogGroup, a.cfg.LogStream, a.log.Named("cloudwatch"))
}
