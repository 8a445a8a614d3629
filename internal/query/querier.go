package query

import (
	"context"
	"fmt"
	"time"

	"IoMTSpectra/internal/config"
	"IoMTSpectra/internal/export"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// StoredMetrics is one persisted device row, as served by the API.
type StoredMetrics struct {
	RunTime           time.Time `json:"run_time"`
	Device            string    `json:"device"`
	Class             string    `json:"class"`
	TxPackets         uint32    `json:"tx_packets"`
	RxPackets         uint32    `json:"rx_packets"`
	LossPercent       float64   `json:"loss_percent"`
	AvgLatencyMs      float64   `json:"avg_latency_ms"`
	AvgJitterMs       float64   `json:"avg_jitter_ms"`
	TaskTarget        uint32    `json:"task_target"`
	TaskCompleted     bool      `json:"task_completed"`
	CompletionTimeSec float64   `json:"completion_time_sec"`
	SuccessRate       float64   `json:"success_rate"`
	Safety            string    `json:"safety"`
}

// Querier defines the interface for reading persisted device metrics.
type Querier interface {
	// LatestMetrics returns the rows of the most recent run.
	LatestMetrics(ctx context.Context) ([]StoredMetrics, error)
	// MetricsRange returns all rows evaluated within [from, to].
	MetricsRange(ctx context.Context, from, to time.Time) ([]StoredMetrics, error)
}

// clickhouseQuerier implements the Querier interface for ClickHouse.
type clickhouseQuerier struct {
	conn driver.Conn
}

// NewClickHouseQuerier creates a new querier for ClickHouse.
func NewClickHouseQuerier(cfg config.ClickHouseConfig) (Querier, error) {
	conn, err := export.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	return &clickhouseQuerier{conn: conn}, nil
}

const selectColumns = `
	RunTime, Device, Class, TxPackets, RxPackets, LossPercent,
	AvgLatencyMs, AvgJitterMs, TaskTargetPackets, TaskCompleted,
	TaskCompletionTimeSec, SuccessRatePercent, SafetyStatus
`

func (q *clickhouseQuerier) LatestMetrics(ctx context.Context) ([]StoredMetrics, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM device_metrics
		WHERE RunTime = (SELECT max(RunTime) FROM device_metrics)
		ORDER BY Device
	`
	rows, err := q.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest metrics: %w", err)
	}
	defer rows.Close()
	return scanMetrics(rows)
}

func (q *clickhouseQuerier) MetricsRange(ctx context.Context, from, to time.Time) ([]StoredMetrics, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM device_metrics
		WHERE RunTime >= ? AND RunTime <= ?
		ORDER BY RunTime, Device
	`
	rows, err := q.conn.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics range: %w", err)
	}
	defer rows.Close()
	return scanMetrics(rows)
}

func scanMetrics(rows driver.Rows) ([]StoredMetrics, error) {
	var results []StoredMetrics
	for rows.Next() {
		var m StoredMetrics
		var completed uint8
		if err := rows.Scan(
			&m.RunTime, &m.Device, &m.Class, &m.TxPackets, &m.RxPackets,
			&m.LossPercent, &m.AvgLatencyMs, &m.AvgJitterMs, &m.TaskTarget,
			&completed, &m.CompletionTimeSec, &m.SuccessRate, &m.Safety,
		); err != nil {
			return nil, fmt.Errorf("failed to scan metrics row: %w", err)
		}
		m.TaskCompleted = completed == 1
		results = append(results, m)
	}
	return results, rows.Err()
}
