package apiserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/openrag/ragserver/internal/apiserver/biz"
	"github.com/openrag/ragserver/internal/apiserver/handler"
	"github.com/openrag/ragserver/internal/apiserver/router"
	"github.com/openrag/ragserver/internal/apiserver/store"
	"github.com/openrag/ragserver/internal/pkg/middleware"
	"github.com/openrag/ragserver/pkg/component/milvus"
	"github.com/openrag/ragserver/pkg/embedding"
	// 注册嵌入供应商
	_ "github.com/openrag/ragserver/pkg/embedding/openai"
)

// uploadExts 上传端点允许的扩展名。
var uploadExts = []string{".pdf", ".docx"}

// Server represents the RAG API server.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	milvusClose     func()
	redisClose      func()
}

// NewServer initializes and returns a new Server instance.
func NewServer(ctx context.Context, opts *ServerOptions) (*Server, error) {
	// 1. 初始化日志
	opts.Log.AddInitialField("service.name", Name)
	if err := opts.Log.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting RAG API server...")

	// 2. 初始化 Milvus 客户端
	milvusClient, err := milvus.New(opts.Milvus)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize milvus: %w", err)
	}
	logger.Infow("Milvus client initialized", "address", opts.Milvus.Address)

	// 3. 初始化 Store 层，确保集合存在（仅启动时一次）
	vectorStore := store.NewMilvusStore(milvusClient)
	if err := vectorStore.EnsureCollection(ctx, &store.CollectionConfig{
		Name:        opts.RAG.Collection,
		Description: "RAG document chunks",
		Dimension:   opts.RAG.EmbeddingDim,
	}); err != nil {
		_ = milvusClient.Close(context.Background())
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}
	logger.Infow("Vector store initialized", "collection", opts.RAG.Collection)

	// 4. 初始化 Redis 客户端（用于缓存）
	var queryCache *biz.QueryCache
	var redisClose func()
	if opts.Cache.Enabled {
		redisOpts := opts.Cache.Redis
		redisClient := goredis.NewClient(&goredis.Options{
			Addr:         fmt.Sprintf("%s:%d", redisOpts.Host, redisOpts.Port),
			Password:     redisOpts.Password,
			DB:           redisOpts.Database,
			MaxRetries:   redisOpts.MaxRetries,
			PoolSize:     redisOpts.PoolSize,
			MinIdleConns: redisOpts.MinIdleConns,
		})

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnw("failed to connect to redis, cache will be disabled", "error", err.Error())
			_ = redisClient.Close()
		} else {
			queryCache = biz.NewQueryCache(redisClient, &biz.QueryCacheConfig{
				Enabled:   true,
				TTL:       opts.Cache.TTL,
				KeyPrefix: opts.Cache.KeyPrefix,
			})
			redisClose = func() { _ = redisClient.Close() }
			logger.Infow("Redis cache initialized",
				"host", redisOpts.Host,
				"port", redisOpts.Port,
				"ttl", opts.Cache.TTL,
			)
		}
	} else {
		logger.Info("Cache is disabled")
	}

	// 5. 初始化嵌入供应商
	embedder, err := embedding.New("openai", map[string]any{
		"base_url":     opts.Embedding.BaseURL,
		"api_key":      opts.Embedding.APIKey,
		"model":        opts.Embedding.Model,
		"timeout":      opts.Embedding.Timeout,
		"max_retries":  opts.Embedding.MaxRetries,
		"organization": opts.Embedding.Organization,
	})
	if err != nil {
		_ = milvusClient.Close(context.Background())
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	logger.Infow("Embedding provider initialized", "model", opts.Embedding.Model)

	// 6. 初始化 Biz 层
	ragService := biz.NewRAGService(vectorStore, embedder, queryCache, &biz.ServiceConfig{
		IngestorConfig: &biz.IngestorConfig{
			Collection:  opts.RAG.Collection,
			MaxTokens:   opts.RAG.MaxTokens,
			AllowedExts: uploadExts,
		},
		RetrieverConfig: &biz.RetrieverConfig{
			Collection: opts.RAG.Collection,
			TopK:       opts.RAG.TopK,
		},
	})

	// 7. 初始化 Handler 层和路由
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(middleware.Recovery(), middleware.CORS(), middleware.AccessLog())
	engine.MaxMultipartMemory = opts.HTTP.MaxUploadSize

	router.Register(engine, handler.NewRAGHandler(ragService))

	httpServer := &http.Server{
		Addr:         opts.HTTP.Addr,
		Handler:      engine,
		ReadTimeout:  opts.HTTP.ReadTimeout,
		WriteTimeout: opts.HTTP.WriteTimeout,
		IdleTimeout:  opts.HTTP.IdleTimeout,
	}

	logger.Info("RAG API server is ready")
	return &Server{
		httpServer:      httpServer,
		shutdownTimeout: opts.ShutdownTimeout,
		milvusClose:     func() { _ = milvusClient.Close(context.Background()) },
		redisClose:      redisClose,
	}, nil
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		if s.milvusClose != nil {
			s.milvusClose()
		}
		if s.redisClose != nil {
			s.redisClose()
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown http server: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}
