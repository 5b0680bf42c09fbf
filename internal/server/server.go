package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"docuchat/internal/db"
	"docuchat/internal/handlers"
	"docuchat/internal/repositories"
	"docuchat/internal/routes"
	"docuchat/internal/services"
)

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func NewServer() *http.Server {
	logger := log.New(os.Stdout, "[SERVER] ", log.LstdFlags)

	store := initializeVectorStore(logger)
	registry := initializeDocumentRegistry(logger)

	var docHandler *handlers.DocumentHandler
	var chatHandler *handlers.ChatHandler

	embedder, err := services.NewEmbeddingProvider(getEmbeddingConfig())
	if err != nil {
		logger.Printf("❌ Embedding provider unavailable: %v", err)
		logger.Println("   Upload and chat endpoints will not be registered")
	}

	llm, err := services.NewLLMService(getLLMConfig())
	if err != nil {
		logger.Printf("❌ LLM client unavailable: %v", err)
		logger.Println("   Chat endpoint will not be registered")
	}

	if store != nil && embedder != nil {
		chunker, err := services.NewChunker(getChunkingConfig())
		if err != nil {
			logger.Fatalf("Invalid chunking configuration: %v", err)
		}

		docService := services.NewDocumentService(
			services.NewPDFExtractor(),
			chunker,
			services.NewKeywordExtractor(),
			embedder,
			store,
			registry,
			getChunkDir(),
			logger,
		)
		docHandler = handlers.NewDocumentHandler(docService, logger)
		logger.Println("✅ Document ingestion service initialized")

		if llm != nil {
			orchestrator := services.NewChatOrchestrator(
				services.NewQueryRewriter(llm, logger),
				services.NewAnswerGenerator(llm, logger),
				embedder,
				store,
				logger,
			)
			chatHandler = handlers.NewChatHandler(orchestrator, logger)
			logger.Println("✅ Chat orchestrator initialized")
		}
	} else {
		logger.Println("⚠️  Document services disabled - vector store or embedder not available")
	}

	// Routes stay registered even when a backing service failed to come up;
	// the handlers answer 503 instead of the router answering 404
	if docHandler == nil {
		docHandler = handlers.NewDocumentHandler(nil, logger)
	}
	if chatHandler == nil {
		chatHandler = handlers.NewChatHandler(nil, logger)
	}

	h := &routes.Handlers{
		Health:      handlers.HealthCheckHandler,
		Home:        handlers.HomeHandler,
		ChatHandler: chatHandler,
		DocHandler:  docHandler,
	}

	router := mux.NewRouter()
	routes.RegisterRoutes(router, h)

	// Add Swagger endpoints
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	return &http.Server{
		Addr:    ":" + getPort(),
		Handler: corsMiddleware(router),
	}
}

// initializeVectorStore builds the vector store, preferring ChromaDB and
// falling back to the flat on-disk index when it is unreachable.
func initializeVectorStore(logger *log.Logger) repositories.VectorStore {
	config := repositories.VectorStoreConfig{
		Chroma:         getChromaConfig(),
		CollectionName: os.Getenv("VECTOR_COLLECTION"),
		PersistDir:     getPersistDir(),
	}

	store, err := repositories.NewVectorStore(config, logger)
	if err != nil {
		logger.Printf("❌ Failed to initialize vector store: %v", err)
		return nil
	}

	logger.Printf("✅ Vector store ready (backend: %s)", store.Backend())
	return store
}

// initializeDocumentRegistry connects to Redis for document bookkeeping.
// When Redis is unreachable the server still runs with an in-process no-op
// registry; only document listing degrades.
func initializeDocumentRegistry(logger *log.Logger) repositories.DocumentRepository {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisConfig := getRedisConfig()
	logger.Printf("Connecting to Redis: %s:%d (DB: %d)", redisConfig.Host, redisConfig.Port, redisConfig.DB)

	redisClient, err := db.NewRedisClient(redisConfig)
	if err != nil {
		logger.Printf("❌ Failed to create Redis client: %v", err)
		logger.Println("   Document registry will be disabled")
		return repositories.NewNoopDocumentRepository(logger)
	}

	if err := redisClient.Ping(ctx); err != nil {
		logger.Printf("❌ Redis connection failed: %v", err)
		logger.Println("   Document registry will be disabled")
		logger.Println("   Hint: Ensure Redis is running (docker run -d -p 6379:6379 redis:7-alpine)")
		return repositories.NewNoopDocumentRepository(logger)
	}

	logger.Println("✅ Redis connected successfully")
	return repositories.NewRedisDocumentRepository(redisClient.GetClient())
}

// getRedisConfig reads Redis configuration from environment variables
func getRedisConfig() db.RedisConfig {
	config := db.DefaultRedisConfig()

	if host := os.Getenv("REDIS_HOST"); host != "" {
		config.Host = host
	}

	if portStr := os.Getenv("REDIS_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			config.Port = port
		}
	}

	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		config.Password = password
	}

	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if dbNum, err := strconv.Atoi(dbStr); err == nil {
			config.DB = dbNum
		}
	}

	return config
}

// getChromaConfig reads ChromaDB configuration from environment variables
func getChromaConfig() db.ChromaDBConfig {
	config := db.ChromaDBConfig{
		Host:     "localhost",
		Port:     8000,
		Tenant:   "default_tenant",
		Database: "default_database",
		Timeout:  30 * time.Second,
	}

	if host := os.Getenv("CHROMA_HOST"); host != "" {
		config.Host = host
	}

	if portStr := os.Getenv("CHROMA_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			config.Port = port
		}
	}

	if tenant := os.Getenv("CHROMA_TENANT"); tenant != "" {
		config.Tenant = tenant
	}

	if database := os.Getenv("CHROMA_DATABASE"); database != "" {
		config.Database = database
	}

	return config
}

// getLLMConfig reads LLM configuration from environment variables
func getLLMConfig() services.LLMConfig {
	return services.LLMConfig{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		Model:   os.Getenv("LLM_MODEL"),
		BaseURL: os.Getenv("LLM_BASE_URL"),
	}
}

// getEmbeddingConfig reads embedding configuration from environment variables
func getEmbeddingConfig() services.EmbeddingConfig {
	return services.EmbeddingConfig{
		Provider: os.Getenv("EMBEDDING_PROVIDER"),
		Model:    os.Getenv("EMBEDDING_MODEL"),
		APIKey:   os.Getenv("OPENAI_API_KEY"),
		LocalURL: os.Getenv("LOCAL_EMBEDDING_URL"),
	}
}

// getChunkingConfig reads chunk size and overlap from environment variables
func getChunkingConfig() (int, int) {
	chunkSize := services.DefaultChunkSize
	overlap := services.DefaultChunkOverlap

	if sizeStr := os.Getenv("CHUNK_SIZE"); sizeStr != "" {
		if size, err := strconv.Atoi(sizeStr); err == nil {
			chunkSize = size
		}
	}

	if overlapStr := os.Getenv("CHUNK_OVERLAP"); overlapStr != "" {
		if o, err := strconv.Atoi(overlapStr); err == nil {
			overlap = o
		}
	}

	return chunkSize, overlap
}

func getChunkDir() string {
	if dir := os.Getenv("CHUNK_DIR"); dir != "" {
		return dir
	}
	return "./data/chunks"
}

func getPersistDir() string {
	if dir := os.Getenv("VECTOR_PERSIST_DIR"); dir != "" {
		return dir
	}
	return "./data/vector_store"
}

func getPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8080"
}
