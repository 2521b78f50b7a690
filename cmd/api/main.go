package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/windoze95/reme-voice/internal/ai"
	"github.com/windoze95/reme-voice/internal/config"
	"github.com/windoze95/reme-voice/internal/db"
	"github.com/windoze95/reme-voice/internal/logger"
	"github.com/windoze95/reme-voice/internal/observe"
	"github.com/windoze95/reme-voice/internal/repository"
	"github.com/windoze95/reme-voice/internal/router"
	"github.com/windoze95/reme-voice/internal/service"
	"github.com/windoze95/reme-voice/internal/tools"
	"github.com/windoze95/reme-voice/internal/ws"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 10 * time.Second
)

// Entry point for the API.
func main() {
	envFile := pflag.String("env", "", "optional .env file to load")
	promptsPath := pflag.String("prompts", "configs/prompts.yaml", "path to the prompts YAML file")
	pflag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			// Logging is not set up yet.
			panic("failed to load env file: " + err.Error())
		}
	}

	// Initialize structured logger (dev mode if GIN_MODE != release)
	isDev := os.Getenv("GIN_MODE") != "release"
	logger.Init(isDev)
	defer logger.Sync()

	// Configure the runtime
	ConfigureRuntime()

	// Load the config
	var cfg *config.Config
	if c, err := config.LoadConfig(); err != nil {
		logger.Get().Fatal("failed to load config", zap.Error(err))
	} else {
		cfg = c
	}

	// Check that all ENV variables are set
	if err := cfg.CheckConfigEnvFields(); err != nil {
		logger.Get().Fatal("missing required config fields", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Get().Fatal("invalid config", zap.Error(err))
	}

	// Load prompts from YAML
	prompts, err := config.LoadPrompts(*promptsPath)
	if err != nil {
		logger.Get().Fatal("failed to load prompts", zap.Error(err))
	}
	cfg.Prompts = prompts

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "reme-voice",
		ServiceVersion: version,
	})
	if err != nil {
		logger.Get().Fatal("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			logger.Get().Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()
	metrics := observe.DefaultMetrics()

	chat := newChatProvider(cfg)

	var speech ai.SpeechProvider
	if cfg.EnvVars.OpenAIAPIKey != "" {
		speech = ai.NewWhisperProvider(cfg.EnvVars.OpenAIAPIKey)
	}

	// Data functions run against the database, or on the connected client
	var store *tools.Store
	if cfg.EnvVars.FunctionBackend == config.BackendDatabase {
		database, err := db.New(ctx, cfg)
		if err != nil {
			logger.Get().Fatal("failed to connect to database", zap.Error(err))
		}
		sqlDB, err := database.DB()
		if err != nil {
			logger.Get().Fatal("failed to get underlying sql.DB", zap.Error(err))
		}
		defer sqlDB.Close()

		store = tools.NewStore(
			repository.NewInventoryRepository(database),
			repository.NewApplianceRepository(database),
			repository.NewRecipeRepository(database),
		)
	}

	voiceService := service.NewVoiceService(cfg, chat, speech, store, metrics)
	hub := ws.NewHub()

	// Create a new gin router
	if !isDev {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.SetupRouter(ctx, cfg, voiceService, hub)
	srv := &http.Server{
		Addr:              ":" + cfg.EnvVars.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		logger.Get().Info("starting server",
			zap.String("port", cfg.EnvVars.Port),
			zap.String("llm_provider", chat.Name()),
			zap.String("transport", cfg.EnvVars.VoiceTransport),
			zap.String("function_backend", cfg.EnvVars.FunctionBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Get().Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		logger.Get().Error("server stopped with error", zap.Error(err))
	}
}

// newChatProvider builds the chat provider named by LLM_PROVIDER.
func newChatProvider(cfg *config.Config) ai.ChatProvider {
	env := cfg.EnvVars
	if env.LLMProvider == config.ProviderAnthropic {
		return ai.NewAnthropicChatProvider(env.AnthropicAPIKey, env.AnthropicModel)
	}
	return ai.NewOpenAIChatProvider(env.LLMBaseURL, env.LLMAPIKey, env.LLMModel)
}

// ConfigureRuntime sets the number of operating system threads.
func ConfigureRuntime() {
	nuCPU := runtime.NumCPU()
	runtime.GOMAXPROCS(nuCPU)
	logger.Get().Info("runtime configured", zap.Int("cpus", nuCPU))
}
