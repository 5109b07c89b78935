// Command main is the entry point for the HealthBuddy backend server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"healthbuddy/internal/bootstrap"
	"healthbuddy/internal/config"
	"healthbuddy/internal/observability"
	"healthbuddy/internal/scheduler"
	"healthbuddy/internal/server"
)

// @title HealthBuddy API
// @version 1.0
// @description Health and wellness companion backend: profiles, AI coaching, wellness library, community and support.

// @contact.name API Support
// @contact.email support@healthbuddy.app

// @host localhost:8375
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	exporter := "stdout"
	if cfg.OTLPEndpoint != "" {
		exporter = "otlp"
	}
	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "healthbuddy-api",
		ServiceVersion: "1.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       exporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   1,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedPlans: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	srv, err := server.NewServerWithDeps(cfg, db, rdb, server.Deps{})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	jobs, err := scheduler.New(scheduler.Config{
		MotivationSpec: cfg.MotivationCron,
		TrialSweepSpec: cfg.TrialSweepCron,
	}, srv.Profiles(), srv.Social(), srv.Subscriptions())
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	jobs.Start()

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := jobs.Stop(ctx); err != nil {
			log.Printf("Scheduler shutdown error: %v", err)
		}
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server resource shutdown error: %v", err)
		}
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
