// Package lawrag provides the retrieval service server implementation.
package lawrag

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/zakon-kg/lawrag/internal/lawrag/biz"
	"github.com/zakon-kg/lawrag/internal/lawrag/handler"
	"github.com/zakon-kg/lawrag/internal/lawrag/router"
	"github.com/zakon-kg/lawrag/internal/lawrag/store"
	"github.com/zakon-kg/lawrag/pkg/component/milvus"
	"github.com/zakon-kg/lawrag/pkg/llm"
	cacheopts "github.com/zakon-kg/lawrag/pkg/options/cache"
	httpopts "github.com/zakon-kg/lawrag/pkg/options/http"
	llmopts "github.com/zakon-kg/lawrag/pkg/options/llm"
	logopts "github.com/zakon-kg/lawrag/pkg/options/logger"
	milvusopts "github.com/zakon-kg/lawrag/pkg/options/milvus"
	searchopts "github.com/zakon-kg/lawrag/pkg/options/search"
	"github.com/zakon-kg/lawrag/pkg/pool"

	// register LLM providers
	_ "github.com/zakon-kg/lawrag/pkg/llm/ollama"
	_ "github.com/zakon-kg/lawrag/pkg/llm/openai"
)

// Name is the name of the application.
const Name = "lawrag"

// Version is overridden at build time via ldflags.
var Version = "dev"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions      *httpopts.Options
	LogOptions       *logopts.Options
	MilvusOptions    *milvusopts.Options
	EmbeddingOptions *llmopts.ProviderOptions
	ChatOptions      *llmopts.ProviderOptions
	SearchOptions    *searchopts.Options
	CacheOptions     *cacheopts.Options
	ShutdownTimeout  time.Duration
}

// Server represents the retrieval server.
type Server struct {
	httpServer      *http.Server
	vectorStore     store.VectorStore
	workers         *pool.Pool
	redisClose      func()
	shutdownTimeout time.Duration
}

// NewServer initializes and returns a new Server instance.
func (cfg *Config) NewServer(ctx context.Context) (*Server, error) {
	cfg.LogOptions.AddInitialField("service.name", Name)
	cfg.LogOptions.AddInitialField("service.version", Version)
	if err := cfg.LogOptions.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting lawrag service...")

	milvusClient, err := milvus.New(cfg.MilvusOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize milvus: %w", err)
	}
	logger.Infow("Milvus client initialized", "address", cfg.MilvusOptions.Address)

	vectorStore := store.NewMilvusStore(milvusClient,
		cfg.SearchOptions.CollectionRU,
		cfg.SearchOptions.CollectionKG,
	)

	// a dimension mismatch means the deployed embedding model does not
	// match the indexed data; refuse to start
	checkCtx, cancel := context.WithTimeout(ctx, cfg.MilvusOptions.Timeout)
	defer cancel()
	if err := vectorStore.CheckDimensions(checkCtx, cfg.SearchOptions.EmbeddingDim); err != nil {
		_ = vectorStore.Close(context.Background())
		return nil, fmt.Errorf("embedding dimension check failed: %w", err)
	}
	logger.Infow("Vector store initialized",
		"collection.ru", cfg.SearchOptions.CollectionRU,
		"collection.kg", cfg.SearchOptions.CollectionKG,
		"embedding.dim", cfg.SearchOptions.EmbeddingDim,
	)

	embedProvider, err := llm.NewEmbeddingProvider(cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	logger.Infow("Embedding provider initialized",
		"provider", cfg.EmbeddingOptions.Provider,
		"model", cfg.EmbeddingOptions.Model,
	)

	chatProvider, err := llm.NewChatProvider(cfg.ChatOptions.Provider, cfg.ChatOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	logger.Infow("Chat provider initialized",
		"provider", cfg.ChatOptions.Provider,
		"model", cfg.ChatOptions.Model,
	)

	var answerCache *biz.AnswerCache
	var redisClose func()
	if cfg.CacheOptions.Enabled {
		redisOpts := cfg.CacheOptions.Redis
		redisClient := goredis.NewClient(&goredis.Options{
			Addr:         redisOpts.Addr(),
			Password:     redisOpts.Password,
			DB:           redisOpts.Database,
			MaxRetries:   redisOpts.MaxRetries,
			PoolSize:     redisOpts.PoolSize,
			MinIdleConns: redisOpts.MinIdleConns,
			DialTimeout:  redisOpts.DialTimeout,
			ReadTimeout:  redisOpts.ReadTimeout,
			WriteTimeout: redisOpts.WriteTimeout,
		})

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnw("failed to connect to redis, cache disabled", "error", err.Error())
			_ = redisClient.Close()
		} else {
			answerCache = biz.NewAnswerCache(redisClient, &biz.AnswerCacheConfig{
				Enabled:   true,
				TTL:       cfg.CacheOptions.TTL,
				KeyPrefix: cfg.CacheOptions.KeyPrefix,
			})
			redisClose = func() { _ = redisClient.Close() }
			logger.Infow("Answer cache initialized",
				"addr", redisOpts.Addr(),
				"ttl", cfg.CacheOptions.TTL,
			)
		}
	} else {
		logger.Info("Answer cache is disabled")
	}

	workers, err := pool.New("paragraph-fanout", &pool.Config{
		Capacity:       cfg.SearchOptions.FanoutWorkers,
		ExpiryDuration: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	searchService := biz.NewSearchService(vectorStore, embedProvider, chatProvider, answerCache, workers, &biz.ServiceConfig{
		TopK:      cfg.SearchOptions.TopK,
		Questions: cfg.SearchOptions.Questions,
	})
	logger.Infow("Search service initialized",
		"top_k", cfg.SearchOptions.TopK,
		"questions", cfg.SearchOptions.Questions,
		"fanout_workers", cfg.SearchOptions.FanoutWorkers,
		"cache.enabled", answerCache != nil,
	)

	searchHandler := handler.NewSearchHandler(searchService, cfg.SearchOptions.RequestTimeout)
	engine := router.New(searchHandler)

	httpServer := &http.Server{
		Addr:         cfg.HTTPOptions.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.HTTPOptions.ReadTimeout,
		WriteTimeout: cfg.HTTPOptions.WriteTimeout,
		IdleTimeout:  cfg.HTTPOptions.IdleTimeout,
	}

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}

	return &Server{
		httpServer:      httpServer,
		vectorStore:     vectorStore,
		workers:         workers,
		redisClose:      redisClose,
		shutdownTimeout: shutdownTimeout,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.cleanup()
		return err
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
		return s.shutdown()
	}
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	s.cleanup()
	if err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func (s *Server) cleanup() {
	if s.workers != nil {
		s.workers.Release()
	}
	if s.redisClose != nil {
		s.redisClose()
	}
	if s.vectorStore != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.vectorStore.Close(closeCtx); err != nil {
			logger.Warnw("failed to close vector store", "error", err.Error())
		}
	}
}
