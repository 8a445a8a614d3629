package main

import (
	"flag"
	"log"

	"IoMTSpectra/internal/config"
	"IoMTSpectra/internal/ingest"
	"IoMTSpectra/pkg/echotrace"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	pcapPath := flag.String("pcap", "", "path to the pcap file to replay")
	flag.Parse()

	if *pcapPath == "" {
		log.Fatal("a pcap file must be provided with -pcap")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	reader, err := echotrace.NewReader(*pcapPath)
	if err != nil {
		log.Fatalf("Failed to open pcap file: %v", err)
	}
	defer reader.Close()

	records, err := reader.ReadRecords()
	if err != nil {
		log.Fatalf("Failed to read flow records: %v", err)
	}
	log.Printf("Reconstructed %d flow record(s) from %s", len(records), *pcapPath)

	publisher, err := ingest.NewPublisher(cfg.Ingest)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer publisher.Close()

	for i := range records {
		if err := publisher.Publish(&records[i]); err != nil {
			log.Fatalf("Failed to publish flow record %d: %v", records[i].ID, err)
		}
	}
	log.Printf("Published %d flow record(s) to subject '%s'", len(records), cfg.Ingest.Subject)
}
