package main

import (
	"context"
	"log"

	"github.com/cx-tal-miterani/flight-booking-flow/internal/activities"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/config"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/database"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/database/migrations"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/events"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/pricing"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/workflows"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Connect to database
	log.Println("Connecting to database...")
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
	log.Println("Connected to database")

	repo := database.NewRepository(pool)

	publisher, err := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		log.Fatalf("Failed to create event publisher: %v", err)
	}
	defer publisher.Close()

	// Connect to Temporal
	log.Printf("Connecting to Temporal at %s...", cfg.TemporalHost)
	c, err := client.Dial(client.Options{
		HostPort: cfg.TemporalHost,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Temporal: %v", err)
	}
	defer c.Close()
	log.Println("Connected to Temporal")

	w := worker.New(c, cfg.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.BookingWorkflow)
	w.RegisterWorkflow(workflows.PriceRefreshWorkflow)

	// activities are registered under their method names
	acts := activities.New(repo, publisher, pricing.NewEngine(pricing.DefaultEngineConfig()))
	w.RegisterActivity(acts)

	if err := startPriceRefresh(ctx, c, cfg); err != nil {
		log.Fatalf("Failed to schedule price refresh: %v", err)
	}

	log.Println("Starting Temporal worker...")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}

// startPriceRefresh schedules the cron workflow once; a running schedule is reused
func startPriceRefresh(ctx context.Context, c client.Client, cfg *config.Config) error {
	_, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                                       workflows.PriceRefreshWorkflowID,
		TaskQueue:                                cfg.TaskQueue,
		CronSchedule:                             cfg.PriceRefreshCron,
		WorkflowExecutionErrorWhenAlreadyStarted: false,
	}, workflows.PriceRefreshWorkflow)
	if err != nil {
		return err
	}
	log.Printf("Price refresh scheduled with cron %q", cfg.PriceRefreshCron)
	return nil
}
