// voicedesk is the multi-domain phone concierge: a websocket gateway that
// greets callers, routes them to the right department, and executes
// preview-then-confirm actions against the demo back offices.
//
// Usage:
//
//	voicedesk                       # serve with defaults and env overrides
//	voicedesk --config config.yaml  # serve with a config file
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/voicedesk/voicedesk/agent"
	"github.com/voicedesk/voicedesk/agents"
	"github.com/voicedesk/voicedesk/config"
	"github.com/voicedesk/voicedesk/internal/metrics"
	"github.com/voicedesk/voicedesk/kb"
	"github.com/voicedesk/voicedesk/llm"
	"github.com/voicedesk/voicedesk/notify"
	"github.com/voicedesk/voicedesk/router"
	"github.com/voicedesk/voicedesk/runtime"
	"github.com/voicedesk/voicedesk/session"
	"github.com/voicedesk/voicedesk/store"
	"github.com/voicedesk/voicedesk/transport"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// a local .env is a convenience, not a requirement
	_ = godotenv.Load()

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("voicedesk exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("no LLM API key configured; set VOICEDESK_LLM_API_KEY or OPENAI_API_KEY")
	}

	opts := []llm.OpenAIOption{llm.WithTimeout(cfg.LLM.Timeout)}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, llm.WithBaseURL(cfg.LLM.APIKey, cfg.LLM.BaseURL))
	}
	client := llm.NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.ChatModel, logger, opts...)

	library, err := kb.Load(cfg.KB.Dir, logger)
	if err != nil {
		return fmt.Errorf("load knowledge base: %w", err)
	}

	var notifier notify.Notifier
	if cfg.SMTP.User != "" && cfg.SMTP.Password != "" {
		notifier = notify.NewSMTP(cfg.SMTP, logger)
	} else {
		logger.Info("no SMTP credentials, confirmation emails will only be logged")
		notifier = notify.NewLog(logger)
	}

	promReg := prometheus.NewRegistry()
	collector := metrics.NewCollector(promReg)

	registry := agent.NewRegistry()
	agents.RegisterAll(registry, agents.Deps{
		LLM:        client,
		ChatModel:  cfg.LLM.ChatModel,
		Airline:    store.NewAirlineStore(),
		Healthcare: store.NewHealthcareStore(),
		Restaurant: store.NewRestaurantStore(),
		Insurance:  store.NewInsuranceStore(),
		Logistics:  store.NewLogisticsStore(),
		Company:    store.NewCompanyStore(),
		KB:         library,
		KBSelector: kb.NewSelector(client, cfg.LLM.ChatModel, logger),
		Notifier:   notifier,
		Metrics:    collector,
		Logger:     logger,
	})

	coordinator := agent.NewCoordinator(registry, collector, logger)
	classifier := router.NewLLMClassifier(client, cfg.LLM.ClassifierModel, logger)
	rt := router.New(classifier, coordinator, collector, logger)
	planner := runtime.NewPlanner(client, cfg.LLM.ChatModel, logger)
	engine := runtime.NewEngine(planner, rt, coordinator, collector, logger)

	journal := session.NewJournal(cfg.Session.JournalPath, logger)
	filler := runtime.NewFiller(cfg.Filler, logger)
	worker := runtime.NewWorker(engine, registry, journal, filler,
		cfg.Session.Greeting, collector, logger)

	gateway := transport.NewGateway(cfg.Server, worker, promReg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("voicedesk starting",
		zap.String("addr", cfg.Server.Addr),
		zap.String("chat_model", cfg.LLM.ChatModel),
		zap.String("classifier_model", cfg.LLM.ClassifierModel))
	return gateway.Run(ctx)
}

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      encoding == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
