// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/capitalize-ai/leadership-coach/internal/cache"
	"github.com/capitalize-ai/leadership-coach/internal/coach"
	"github.com/capitalize-ai/leadership-coach/internal/config"
	"github.com/capitalize-ai/leadership-coach/internal/handler"
	"github.com/capitalize-ai/leadership-coach/internal/knowledge"
	"github.com/capitalize-ai/leadership-coach/internal/llm"
	"github.com/capitalize-ai/leadership-coach/internal/middleware"
	"github.com/capitalize-ai/leadership-coach/internal/model"
	natsclient "github.com/capitalize-ai/leadership-coach/internal/nats"
	"github.com/capitalize-ai/leadership-coach/internal/service"
	"github.com/capitalize-ai/leadership-coach/pkg/logger"
	"github.com/capitalize-ai/leadership-coach/pkg/tracing"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server", zap.String("env", cfg.Environment))

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "leadership-coach", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Storage: JetStream KV when NATS is configured, memory otherwise.
	var (
		natsClient    *natsclient.Client
		conversations service.ConversationRepository = service.NewMemoryConversations()
		assessments   service.AssessmentRepository   = service.NewMemoryAssessments()
		publisher     service.EventPublisher
	)
	if cfg.NATSURL != "" {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		events := natsclient.NewEventStream(natsClient)
		if err := events.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
		publisher = events

		if conversations, err = natsclient.NewConversationStore(ctx, natsClient); err != nil {
			log.Fatal("failed to open conversations bucket", zap.Error(err))
		}
		if assessments, err = natsclient.NewAssessmentStore(ctx, natsClient); err != nil {
			log.Fatal("failed to open assessments bucket", zap.Error(err))
		}
	} else {
		log.Warn("NATS_URL not set, conversations are kept in memory")
	}

	llmClient, err := newLLMClient(cfg)
	if err != nil {
		log.Warn("LLM client unavailable, chat will answer with a fallback", zap.String("provider", cfg.LLMProvider), zap.Error(err))
		llmClient = nil
	}

	var searcher knowledge.Searcher
	if cfg.WeaviateURL != "" {
		ws, err := knowledge.NewWeaviateSearcher(cfg.WeaviateURL, cfg.WeaviateAPIKey, cfg.WeaviateClass)
		if err != nil {
			log.Warn("knowledge index disabled", zap.Error(err))
		} else {
			searcher = ws
		}
	}
	lookup := knowledge.NewLookup(searcher, cfg.KnowledgeTimeout, log)

	// Services
	conversationSvc := service.NewConversationService(conversations, publisher, log)
	personalizationSvc := service.NewPersonalizationService(
		assessments,
		cache.New[string, *model.PersonalizationContext](cfg.AssessmentCacheTTL),
		log,
	)

	assembler := coach.NewAssembler(coach.DefaultTopics(),
		coach.WithKnowledge(lookup),
		coach.WithMaxHistory(cfg.MaxHistoryTurns),
		coach.WithSummaryLength(cfg.SummaryMaxLength),
	)
	completer := coach.NewCompleter(llmClient, coach.CompleterConfig{
		Model:       cfg.LLMModel,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
	}, log)

	// Handlers
	healthHandler := handler.NewHealthHandler(natsClient, completer.Provider())
	chatHandler := handler.NewChatHandler(assembler, completer, personalizationSvc, cfg.ChatTurnTimeout, log)
	conversationHandler := handler.NewConversationHandler(conversationSvc, log)
	assessmentHandler := handler.NewAssessmentHandler(personalizationSvc, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Chat works anonymously; a valid token only adds personalization.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWTSecret))
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

			r.Post("/chat/stream", chatHandler.Stream)
			r.Post("/chat", chatHandler.Chat)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

			r.Route("/conversations", func(r chi.Router) {
				r.Post("/", conversationHandler.Create)
				r.Get("/", conversationHandler.List)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", conversationHandler.Get)
					r.Patch("/", conversationHandler.Update)
					r.Delete("/", conversationHandler.Delete)
					r.Post("/messages", conversationHandler.AppendTurn)
					r.Put("/star", conversationHandler.Star)
					r.Delete("/star", conversationHandler.Unstar)
					r.Post("/archive", conversationHandler.Archive)
				})
			})

			r.Get("/assessment", assessmentHandler.Get)
			r.With(middleware.RequireScope("assessment:write")).Put("/assessment", assessmentHandler.Put)
			r.Delete("/assessment", assessmentHandler.Delete)
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening",
			zap.String("port", cfg.ServerPort),
			zap.String("provider", completer.Provider()),
			zap.Bool("knowledge", lookup.Enabled()),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Long enough for in-flight turns to reach their deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ChatTurnTimeout+5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func newLLMClient(cfg *config.Config) (llm.Client, error) {
	provider := llm.Provider(cfg.LLMProvider)
	opts := llm.Options{Model: cfg.LLMModel}

	switch provider {
	case llm.ProviderOpenAI:
		opts.APIKey = cfg.OpenAIAPIKey
		opts.BaseURL = cfg.OpenAIBaseURL
	case llm.ProviderAnthropic:
		opts.APIKey = cfg.AnthropicAPIKey
	case llm.ProviderOllama:
		opts.BaseURL = cfg.OllamaServerURL
	}
	return llm.NewClient(provider, opts)
}
