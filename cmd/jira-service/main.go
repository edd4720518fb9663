package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/espaceo/workspace-jira-service/cmd/jira-service/gateway"
	"github.com/espaceo/workspace-jira-service/cmd/jira-service/handlers"
	"github.com/espaceo/workspace-jira-service/internal/cache"
	"github.com/espaceo/workspace-jira-service/internal/config"
	"github.com/espaceo/workspace-jira-service/internal/events"
	"github.com/espaceo/workspace-jira-service/internal/storage"
)

const ServiceVersion = "v1.0.0"

func main() {
	log.Printf("starting workspace-jira-service %s", ServiceVersion)

	// Environment first: AWS secrets (if configured), then .env files.
	config.LoadEnv("../../.env")

	appConfig, err := config.LoadApp(configPath())
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	jiraDefaults := config.JiraFromEnv()
	if !jiraDefaults.Configured() {
		log.Printf("warning: JIRA_API_TOKEN is not set; requests without a stored workspace will be refused")
	}

	// Optional multi-workspace credential store (file or Postgres).
	store, err := storage.NewWorkspaceStoreFromEnv()
	if err != nil {
		log.Fatalf("initializing workspace store: %v", err)
	}
	if store != nil {
		defer store.Close()
	}

	// Metadata cache: Redis when available, in-memory otherwise.
	var meta cache.Cache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisCache, err := cache.NewRedisCache(redisURL)
		if err != nil {
			log.Fatalf("connecting to redis: %v", err)
		}
		defer redisCache.Close()
		meta = redisCache
	} else {
		meta = cache.NewMemoryCache()
	}

	// Optional task event publisher.
	var publisher *events.Publisher
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		publisher, err = events.NewPublisher(amqpURL, appConfig.Events.Exchange)
		if err != nil {
			log.Fatalf("connecting to rabbitmq: %v", err)
		}
		defer publisher.Close()
	}

	port := appConfig.Port()
	opts := gateway.Options{
		SubtasksBaseURL:  appConfig.Sync.SubtasksBaseURL,
		MaxConcurrent:    appConfig.Sync.MaxConcurrent,
		PreferredBoardID: appConfig.Sync.PreferredBoardID,
		SprintLengthDays: appConfig.Sync.SprintLengthDays,
	}
	if opts.SubtasksBaseURL == "" {
		opts.SubtasksBaseURL = fmt.Sprintf("http://localhost:%d", port)
	}

	service := handlers.NewService(jiraDefaults, store, meta, publisher, appConfig.Timeout(), opts)

	mux := http.NewServeMux()
	service.Routes(mux)

	handler := handlers.CORSMiddleware(handlers.LogMiddleware(mux))

	log.Printf("listening on :%d", port)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), handler); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "config.yaml"
}
