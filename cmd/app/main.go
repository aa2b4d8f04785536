package main

import (
	"flag"
	"log"
	"os"

	"GridPulse/internal/di"
	"GridPulse/internal/domain/models"
	"GridPulse/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("starting env=%s backend=%s trainer=%s", cfg.Environment, cfg.Backend.Type, cfg.Trainer.Mode)
	for _, mt := range models.AllModelTypes() {
		log.Printf("monitoring model type %s", mt)
	}

	// All wiring failures surface here, before anything is serving.
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	log.Printf("clickhouse: connected, schema ready db=%s", cfg.ClickHouse.Database)
	log.Printf("kafka: brokers=%v topics=%s,%s", cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ForecastsTopic)

	// Blocks until SIGINT/SIGTERM.
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
