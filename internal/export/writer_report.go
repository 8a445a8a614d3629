package export

import (
	"fmt"
	"io"
	"os"
	"strings"

	"IoMTSpectra/internal/model"
)

// ReportWriter renders a run as the human-readable summary: a
// latency/jitter/loss table, a task-completion table, and the safety
// assessment. An empty path writes to standard output.
type ReportWriter struct {
	path string
}

// NewReportWriter creates a report writer. path may be empty for stdout.
func NewReportWriter(path string) *ReportWriter {
	return &ReportWriter{path: path}
}

// Name identifies the writer in logs.
func (w *ReportWriter) Name() string {
	return "report"
}

// Write renders the report to the configured sink.
func (w *ReportWriter) Write(run *model.RunResult) error {
	out := io.Writer(os.Stdout)
	if w.path != "" {
		file, err := os.Create(w.path)
		if err != nil {
			return fmt.Errorf("failed to open report '%s': %w", w.path, err)
		}
		defer file.Close()
		out = file
	}

	if _, err := io.WriteString(out, Render(run)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Render builds the full report text. Split out from Write so the API and
// tests can render without touching a file sink.
func Render(run *model.RunResult) string {
	var b strings.Builder

	b.WriteString("==============================================================================\n")
	b.WriteString("        SURGICAL IOMT NETWORK METRICS - LATENCY & TASK COMPLETION\n")
	b.WriteString("==============================================================================\n\n")

	renderLatencyTable(&b, run)
	b.WriteString("\n")
	renderCompletionTable(&b, run)
	b.WriteString("\n")
	renderSafetySection(&b, run)

	if run.Unresolved > 0 {
		fmt.Fprintf(&b, "\n%d flow(s) dropped - unknown device\n", run.Unresolved)
	}
	if len(run.Anomalies) > 0 {
		b.WriteString("\nInput anomalies:\n")
		for _, a := range run.Anomalies {
			fmt.Fprintf(&b, "  - %s\n", a)
		}
	}
	if len(run.Metrics) == 0 {
		b.WriteString("\nNo devices resolved in this run.\n")
	}

	return b.String()
}

func renderLatencyTable(b *strings.Builder, run *model.RunResult) {
	fmt.Fprintf(b, "%-14s %9s %9s %10s %13s %12s\n",
		"Device", "Tx Pkts", "Rx Pkts", "Loss (%)", "Latency (ms)", "Jitter (ms)")
	b.WriteString(strings.Repeat("-", 72) + "\n")
	for _, m := range run.Metrics {
		fmt.Fprintf(b, "%-14s %9d %9d %10.2f %13.2f %12.2f\n",
			m.Device, m.TxPackets, m.RxPackets, m.LossPercent, m.AvgLatencyMs, m.AvgJitterMs)
	}
}

func renderCompletionTable(b *strings.Builder, run *model.RunResult) {
	fmt.Fprintf(b, "%-14s %12s %10s %14s %12s\n",
		"Device", "Target", "Status", "Compl. (s)", "Success (%)")
	b.WriteString(strings.Repeat("-", 68) + "\n")
	for _, m := range run.Metrics {
		status := "No"
		switch {
		case m.TaskCompleted:
			status = "Yes"
		case m.RxPackets > 0:
			status = "Partial"
		}
		fmt.Fprintf(b, "%-14s %12d %10s %14.3f %12.1f\n",
			m.Device, m.TaskTarget, status, m.CompletionTimeSec, m.SuccessRate)
	}
}

func renderSafetySection(b *strings.Builder, run *model.RunResult) {
	b.WriteString("SAFETY ASSESSMENT\n")
	b.WriteString(strings.Repeat("-", 68) + "\n")
	for _, m := range run.Metrics {
		switch m.Safety {
		case model.SafetyNotApplicable:
			fmt.Fprintf(b, "%-14s NOT APPLICABLE (class %s carries no safety rules)\n", m.Device, m.Class)
		case model.SafetyPass:
			fmt.Fprintf(b, "%-14s PASS%s\n", m.Device, conditionSummary(m.Conditions))
		case model.SafetyFail:
			fmt.Fprintf(b, "%-14s FAIL - SAFETY THRESHOLDS EXCEEDED\n", m.Device)
			for _, c := range m.Conditions {
				verdict := "ok"
				if !c.Passed {
					verdict = "VIOLATED"
				}
				fmt.Fprintf(b, "    %-18s %s = %.2f (limit %s %.2f) [%s]\n",
					c.Condition.Name, c.Condition.Metric, c.Value,
					c.Condition.Operator, c.Condition.Threshold, verdict)
			}
		}
	}
}

func conditionSummary(conds []model.ConditionResult) string {
	if len(conds) == 0 {
		return ""
	}
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		parts = append(parts, fmt.Sprintf("%s=%.2f %s %.2f",
			c.Condition.Metric, c.Value, c.Condition.Operator, c.Condition.Threshold))
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
