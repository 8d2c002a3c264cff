package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Skufu/meddev/internal/llm"
	"github.com/Skufu/meddev/internal/logger"
	"github.com/Skufu/meddev/internal/metrics"
	"github.com/Skufu/meddev/internal/reasoning"
)

type Config struct {
	Port           string
	LogMode        string
	LLMAPIKey      string
	LLMBaseURL     string
	LLMModel       string
	LLMMaxTokens   int
	MaxAttempts    int
	RepairRequests bool
	Schema         reasoning.SchemaVersion
}

func main() {
	gin.SetMode(getEnv("GIN_MODE", "release"))
	_ = godotenv.Load()

	log, err := logger.New(getEnv("LOG_MODE", "prod"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal("config error", "error", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client := llm.NewOpenAIClient(llm.Config{
		APIKey:    cfg.LLMAPIKey,
		BaseURL:   cfg.LLMBaseURL,
		Model:     cfg.LLMModel,
		MaxTokens: cfg.LLMMaxTokens,
	})
	orchestrator := reasoning.NewOrchestrator(client, reasoning.Options{
		MaxAttempts:    cfg.MaxAttempts,
		RepairRequests: cfg.RepairRequests,
		Schema:         cfg.Schema,
		Logger:         log,
		Metrics:        metrics.NewRecorder(registry),
	})

	staticRoot := detectStaticRoot()
	router := setupRouter(orchestrator, client, registry, staticRoot, log)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// a full attempt/repair chain is several sequential model calls
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", "error", err)
		}
	}()

	log.Info("server listening",
		"port", cfg.Port,
		"model", cfg.LLMModel,
		"schema", cfg.Schema,
		"max_attempts", cfg.MaxAttempts,
		"repair_requests", cfg.RepairRequests,
		"static_root", staticRoot,
	)
	waitForShutdown(server, log)
}

func loadConfig() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		LogMode:        getEnv("LOG_MODE", "prod"),
		LLMAPIKey:      firstEnv("LLM_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY"),
		LLMBaseURL:     getEnv("LLM_BASE_URL", llm.DefaultBaseURL),
		LLMModel:       getEnv("LLM_MODEL", llm.DefaultModel),
		RepairRequests: !strings.EqualFold(getEnv("REPAIR_REQUESTS", "true"), "false"),
	}

	if cfg.LLMAPIKey == "" {
		return nil, errors.New("LLM_API_KEY (or GROQ_API_KEY / OPENAI_API_KEY) is required")
	}

	var err error
	if cfg.LLMMaxTokens, err = getEnvInt("LLM_MAX_TOKENS", llm.DefaultMaxTokens); err != nil {
		return nil, err
	}
	if cfg.LLMMaxTokens <= 0 {
		return nil, errors.Newf("LLM_MAX_TOKENS must be positive, got %d", cfg.LLMMaxTokens)
	}
	if cfg.MaxAttempts, err = getEnvInt("MAX_ATTEMPTS", reasoning.DefaultMaxAttempts); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts < 3 || cfg.MaxAttempts > 4 {
		return nil, errors.Newf("MAX_ATTEMPTS must be 3 or 4, got %d", cfg.MaxAttempts)
	}
	if cfg.Schema, err = reasoning.ParseSchemaVersion(getEnv("SCHEMA_VERSION", string(reasoning.DefaultSchema))); err != nil {
		return nil, errors.Wrap(err, "SCHEMA_VERSION")
	}

	return cfg, nil
}

func waitForShutdown(server *http.Server, log *logger.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
	}
	return ""
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "%s must be an integer", key)
	}
	return v, nil
}

// detectStaticRoot finds the web/ directory holding index.html, looking in
// the working directory and up to two parents.
func detectStaticRoot() string {
	startDir, err := os.Getwd()
	if err != nil {
		return "web"
	}

	candidates := []string{
		startDir,
		filepath.Dir(startDir),
		filepath.Dir(filepath.Dir(startDir)),
	}

	for _, dir := range candidates {
		web := filepath.Join(dir, "web")
		if fileExists(filepath.Join(web, "index.html")) {
			return web
		}
	}

	return filepath.Join(startDir, "web")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
