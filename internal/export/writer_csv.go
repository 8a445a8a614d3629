package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"IoMTSpectra/internal/model"
)

// csvHeader is the fixed column set of the structured export. Order matters
// for downstream analysis tooling.
var csvHeader = []string{
	"Device",
	"TxPackets",
	"RxPackets",
	"LossPercent",
	"AvgLatencyMs",
	"AvgJitterMs",
	"TaskTargetPackets",
	"TaskCompleted",
	"TaskCompletionTimeSec",
	"SuccessRatePercent",
}

// CSVWriter renders a run as the structured tabular export, one row per
// resolved device. It implements the model.Writer interface.
type CSVWriter struct {
	path string
}

// NewCSVWriter creates a CSV writer targeting the given file path.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Name identifies the writer in logs.
func (w *CSVWriter) Name() string {
	return "csv"
}

// Write creates (or truncates) the target file and writes header plus rows.
// An empty run still produces a headers-only file. Sink failures are
// returned, never swallowed.
func (w *CSVWriter) Write(run *model.RunResult) error {
	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to open CSV export '%s': %w", w.path, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range run.Metrics {
		if err := cw.Write(csvRow(&run.Metrics[i])); err != nil {
			return fmt.Errorf("failed to write CSV row for device '%s': %w", run.Metrics[i].Device, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV export '%s': %w", w.path, err)
	}
	return nil
}

func csvRow(m *model.DeviceMetrics) []string {
	completed := "No"
	if m.TaskCompleted {
		completed = "Yes"
	}
	return []string{
		m.Device,
		strconv.FormatUint(uint64(m.TxPackets), 10),
		strconv.FormatUint(uint64(m.RxPackets), 10),
		formatFixed(m.LossPercent),
		formatFixed(m.AvgLatencyMs),
		formatFixed(m.AvgJitterMs),
		strconv.FormatUint(uint64(m.TaskTarget), 10),
		completed,
		formatFixed(m.CompletionTimeSec),
		formatFixed(m.SuccessRate),
	}
}

// formatFixed renders a numeric field with the fixed two-decimal convention,
// independent of locale.
func formatFixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
