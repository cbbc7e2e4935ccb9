package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/oogle/internal/fixture"
	"github.com/Adithya-Monish-Kumar-K/oogle/internal/ingest"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	fixturePath := flag.String("fixture", "", "YAML fixture to publish (defaults to index.fixturePath)")
	timeout := flag.Duration("timeout", 30*time.Second, "publish timeout")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	path := *fixturePath
	if path == "" {
		path = cfg.Index.FixturePath
	}
	docs, err := fixture.LoadFile(path)
	if err != nil {
		slog.Error("failed to load fixture", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest)
	defer producer.Close()

	if err := ingest.NewPublisher(producer).Publish(ctx, docs); err != nil {
		slog.Error("failed to publish documents", "error", err)
		os.Exit(1)
	}
	slog.Info("documents published",
		"count", len(docs),
		"topic", cfg.Kafka.Topics.DocumentIngest,
		"fixture", path,
	)
}
