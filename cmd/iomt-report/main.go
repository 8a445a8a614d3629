package main

import (
	"encoding/json"
	"fmt"
	"os"

	"IoMTSpectra/internal/config"
	"IoMTSpectra/internal/engine"
	"IoMTSpectra/internal/evaluate"
	"IoMTSpectra/internal/export"
	"IoMTSpectra/internal/model"
	"IoMTSpectra/internal/resolver"
	"IoMTSpectra/pkg/echotrace"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	pcapPath    string
	recordsPath string
	csvPath     string
	reportPath  string
)

var rootCmd = &cobra.Command{
	Use:   "iomt-report",
	Short: "iomt-report – offline flow metrics evaluation",
	Long: "iomt-report evaluates a finite collection of flow records against the " +
		"configured device table and safety rules, and writes the CSV export and " +
		"the human-readable report without NATS or ClickHouse.",
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "configs/config.yaml", "path to the configuration file")
	rootCmd.Flags().StringVar(&pcapPath, "pcap", "", "pcap file to reconstruct flow records from")
	rootCmd.Flags().StringVar(&recordsPath, "records", "", "JSON file holding an array of flow records")
	rootCmd.Flags().StringVar(&csvPath, "csv", "surgical_metrics.csv", "CSV export path")
	rootCmd.Flags().StringVar(&reportPath, "report", "", "report output path (default: stdout)")
}

func run(cmd *cobra.Command, args []string) error {
	if (pcapPath == "") == (recordsPath == "") {
		return fmt.Errorf("exactly one of --pcap or --records must be given")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	records, err := loadRecords()
	if err != nil {
		return err
	}

	duration, err := cfg.RunDuration()
	if err != nil {
		return err
	}

	res := resolver.New(cfg.Profiles())
	ev := evaluate.New(cfg.SafetyRules())
	runResult := engine.Evaluate(records, res, ev, duration)

	if err := export.NewCSVWriter(csvPath).Write(runResult); err != nil {
		return err
	}
	if err := export.NewReportWriter(reportPath).Write(runResult); err != nil {
		return err
	}

	fmt.Printf("\nFiles generated:\n   - %s\n", csvPath)
	if reportPath != "" {
		fmt.Printf("   - %s\n", reportPath)
	}
	return nil
}

func loadRecords() ([]model.FlowRecord, error) {
	if pcapPath != "" {
		reader, err := echotrace.NewReader(pcapPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open pcap file: %w", err)
		}
		defer reader.Close()
		return reader.ReadRecords()
	}

	data, err := os.ReadFile(recordsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}
	var records []model.FlowRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode records file: %w", err)
	}
	return records, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
