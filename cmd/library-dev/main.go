package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"

	"bookcatalog/internal/app"
	"bookcatalog/internal/storage/migrations"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("Starting ClickHouse testcontainer...")

	clickhouseContainer, err := clickhouse.Run(ctx,
		"clickhouse/clickhouse-server:latest",
		clickhouse.WithUsername("default"),
		clickhouse.WithPassword("devpassword"),
		clickhouse.WithDatabase("default"),
	)
	if err != nil {
		log.Fatalf("Failed to start ClickHouse container: %v", err)
	}

	defer func() {
		log.Println("Stopping ClickHouse container...")
		if err := clickhouseContainer.Terminate(context.Background()); err != nil {
			log.Printf("Failed to terminate container: %v", err)
		}
	}()

	host, err := clickhouseContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}

	port, err := clickhouseContainer.MappedPort(ctx, "9000/tcp")
	if err != nil {
		log.Fatalf("Failed to get container port: %v", err)
	}

	log.Printf("ClickHouse started at %s:%s", host, port.Port())

	if err := migrate(ctx, host, port.Port()); err != nil {
		log.Fatalf("Failed to migrate ClickHouse: %v", err)
	}

	os.Setenv("STORAGE_BACKEND", "clickhouse")
	os.Setenv("CLICKHOUSE_HOST", host)
	os.Setenv("CLICKHOUSE_PORT", port.Port())
	os.Setenv("CLICKHOUSE_DATABASE", "default")
	os.Setenv("CLICKHOUSE_USER", "default")
	os.Setenv("CLICKHOUSE_PASSWORD", "devpassword")
	os.Setenv("CLICKHOUSE_USE_TLS", "false")
	os.Setenv("WEBHOOK_MODE", "false")

	if os.Getenv("PORT") == "" {
		os.Setenv("PORT", "8080")
	}
	if os.Getenv("SEED_SAMPLE_DATA") == "" {
		os.Setenv("SEED_SAMPLE_DATA", "true")
	}
	if os.Getenv("SNAPSHOT_INTERVAL") == "" {
		os.Setenv("SNAPSHOT_INTERVAL", "30s")
	}

	if os.Getenv("TELEGRAM_BOT_TOKEN") == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, running the HTTP API only.")
	} else if os.Getenv("ALLOWED_USER_IDS") == "" {
		log.Println("ALLOWED_USER_IDS not set, the bot will not accept any commands.")
	}

	log.Println("Starting application with ClickHouse backend...")
	fmt.Println()

	application, err := app.New()
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	if err := application.RunContext(ctx); err != nil {
		log.Printf("Application error: %v", err)
	}
}

func migrate(ctx context.Context, host, port string) error {
	dsn := fmt.Sprintf("clickhouse://default:devpassword@%s:%s/default?dial_timeout=10s", host, port)
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := migrations.Up(ctx, db, "clickhouse")
	if err != nil {
		return err
	}
	for _, r := range results {
		log.Printf("Applied migration %s in %s", r.Source.Path, r.Duration)
	}
	return nil
}
