package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/stafflane/hr-copilot/internal/config"
	"github.com/stafflane/hr-copilot/internal/gate"
	"github.com/stafflane/hr-copilot/internal/hrstore"
	"github.com/stafflane/hr-copilot/internal/httpapi"
	"github.com/stafflane/hr-copilot/internal/pipeline"
	"github.com/stafflane/hr-copilot/internal/planner"
	"github.com/stafflane/hr-copilot/internal/policy"
	"github.com/stafflane/hr-copilot/internal/provider"
	"github.com/stafflane/hr-copilot/internal/respond"
	"github.com/stafflane/hr-copilot/internal/scope"
	"github.com/stafflane/hr-copilot/internal/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger
	logger := log.New(os.Stdout, "[hrchat] ", log.LstdFlags|log.Lshortfile)

	// Load configuration
	cfg := config.Load()
	logger.Println("Configuration loaded")

	// Policy tables with optional YAML overrides and hot reload
	loader := policy.NewLoader(cfg.Policy.File, logger)
	if err := loader.Load(); err != nil {
		logger.Fatalf("Failed to load policy tables: %v", err)
	}

	securityGate, err := gate.New(loader.Tables(), logger)
	if err != nil {
		logger.Fatalf("Failed to initialize security gate: %v", err)
	}
	loader.OnReload(func(t *policy.Tables) {
		if err := securityGate.Rebuild(t); err != nil {
			logger.Printf("Policy reload: gate rebuild failed, keeping previous policy set: %v", err)
		}
	})
	if cfg.Policy.WatchChanges && cfg.Policy.File != "" {
		if err := loader.StartHotReload(); err != nil {
			logger.Printf("Policy hot reload unavailable: %v", err)
		} else {
			defer loader.StopHotReload()
		}
	}
	logger.Printf("Policy version: %s", securityGate.PolicyVersion())

	// HR directory
	directory, err := hrstore.OpenSQLite(cfg.Database.DirectoryPath)
	if err != nil {
		logger.Fatalf("Failed to open HR directory database: %v", err)
	}
	defer directory.Close()
	if cfg.Database.SeedDemo {
		if err := directory.Seed(context.Background()); err != nil {
			logger.Fatalf("Failed to seed demo data: %v", err)
		}
	}

	// Conversation and audit stores
	conversations, err := store.OpenSQLite(cfg.Database.ConversationPath)
	if err != nil {
		logger.Fatalf("Failed to open conversation database: %v", err)
	}
	defer conversations.Close()

	// Generative backend
	backend, err := provider.New(provider.Config{
		Type:    cfg.Provider.Type,
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  cfg.Provider.APIKey,
		Model:   cfg.Provider.Model,
		Timeout: cfg.Provider.Timeout,
	})
	if err != nil {
		logger.Fatalf("Failed to initialize provider: %v", err)
	}
	logger.Printf("Provider: %s (%s)", backend.Name(), cfg.Provider.BaseURL)

	// Query pipeline
	fetchers := scope.NewFetchers(directory, logger)
	pipe := pipeline.New(pipeline.Deps{
		Tables:        loader.Tables,
		Gate:          securityGate,
		Builder:       scope.NewBuilder(fetchers, logger),
		Planner:       planner.New(backend, logger),
		Generator:     respond.NewGenerator(backend, logger),
		Filter:        respond.NewFilter(),
		Conversations: conversations,
		Audit:         conversations,
		Logger:        logger,
		MaxMessageLen: cfg.Server.MaxMessageLen,
	})

	// HTTP surface
	api := httpapi.NewServer(pipe, conversations, conversations, loader.Tables, logger, httpapi.Options{
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		MetricsEnabled: cfg.Metrics.Enabled,
		PolicyVersion:  securityGate.PolicyVersion,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Printf("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Shutdown error: %v", err)
	}
}
