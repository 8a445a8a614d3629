package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"IoMTSpectra/internal/config"
	"IoMTSpectra/internal/engine"
	"IoMTSpectra/internal/export"
	"IoMTSpectra/internal/ingest"
	"IoMTSpectra/internal/model"
	"IoMTSpectra/internal/notification"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	log.Println("Starting iomt-engine...")

	// 1. Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	duration, err := cfg.RunDuration()
	if err != nil {
		log.Fatalf("Invalid run duration: %v", err)
	}

	// 2. Build writers and the optional safety notifier
	writers := export.NewWriters(cfg)
	if len(writers) == 0 {
		log.Println("Warning: no writers enabled, the run will only be logged.")
	}

	var notifier model.Notifier
	if cfg.SMTP.Host != "" {
		notifier = notification.NewEmailNotifier(cfg.SMTP)
	}

	// 3. Start the engine and the flow record subscriber
	eng := engine.New(cfg, writers, notifier)
	eng.Start()

	subscriber, err := ingest.NewSubscriber(cfg.Ingest)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	if err := subscriber.Start(func(rec model.FlowRecord) {
		eng.Submit(rec)
	}); err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	// 4. Collect until the run duration elapses or a shutdown signal arrives
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	started := time.Now()
	if duration > 0 {
		select {
		case <-time.After(duration):
			log.Printf("Run duration %s elapsed, evaluating...", duration)
		case <-sigChan:
			log.Println("Shutdown signal received, evaluating...")
		}
	} else {
		<-sigChan
		log.Println("Shutdown signal received, evaluating...")
	}

	// 5. Stop collection, evaluate, export
	subscriber.Close()
	eng.Stop()

	run := eng.EvaluateAll(time.Since(started).Round(time.Millisecond))
	if err := eng.Export(run); err != nil {
		log.Printf("One or more writers failed: %v", err)
		os.Exit(1)
	}
	log.Println("Run exported. Shutdown complete.")
}
