package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cx-tal-miterani/flight-booking-flow/internal/booking"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/config"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/database"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/database/migrations"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/handlers"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/router"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/service"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.temporal.io/sdk/client"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	if err := migrations.Apply(ctx, pool); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	repo := database.NewRepository(pool)

	// Create Temporal client
	temporalClient, err := client.Dial(client.Options{
		HostPort: cfg.TemporalHost,
	})
	if err != nil {
		log.Fatalf("Failed to create Temporal client: %v", err)
	}
	defer temporalClient.Close()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	// Initialize services
	opts := booking.DefaultOptions()
	opts.SubmitTimeout = cfg.SubmitTimeout
	opts.PaymentMethod = cfg.PaymentMethod
	opts.AllowStageJump = cfg.AllowStageJump

	submitter := service.NewWorkflowSubmitter(temporalClient, cfg.TaskQueue)
	sessions := service.NewSessionService(repo, submitter, hub, opts, cfg.SessionTTL)
	go service.RunSweeper(ctx, sessions, cfg.SessionTTL/2)

	h := handlers.NewHandler(sessions, hub)
	r := router.NewRouter(h)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// submit requests wait for the booking workflow
		WriteTimeout: cfg.SubmitTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("API Server starting on port %s", cfg.Port)
		log.Printf("Connected to Temporal server at %s", cfg.TemporalHost)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	cancel()

	log.Println("Server stopped")
}
