package export

import (
	"context"
	"fmt"
	"log"

	"IoMTSpectra/internal/config"
	"IoMTSpectra/internal/model"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const createTableStatement = `
CREATE TABLE IF NOT EXISTS device_metrics (
    RunTime               DateTime,
    Device                String,
    Class                 String,
    TxPackets             UInt32,
    RxPackets             UInt32,
    LossPercent           Float64,
    AvgLatencyMs          Float64,
    AvgJitterMs           Float64,
    TaskTargetPackets     UInt32,
    TaskCompleted         UInt8,
    TaskCompletionTimeSec Float64,
    SuccessRatePercent    Float64,
    SafetyStatus          String
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(RunTime)
ORDER BY (Device, RunTime);
`

// ClickHouseWriter persists evaluated runs to ClickHouse for downstream
// analysis. It implements the model.Writer interface.
type ClickHouseWriter struct {
	conn driver.Conn
}

// NewClickHouseWriter connects to ClickHouse and ensures the table exists.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (*ClickHouseWriter, error) {
	conn, err := Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Exec(context.Background(), createTableStatement); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	log.Println("Successfully connected to ClickHouse and ensured device_metrics exists.")

	return &ClickHouseWriter{conn: conn}, nil
}

// Name identifies the writer in logs.
func (w *ClickHouseWriter) Name() string {
	return "clickhouse"
}

// Connect opens a ClickHouse connection with the shared settings. Also used
// by the query side of the API binary.
func Connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: false,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

// Write inserts one row per resolved device into device_metrics.
func (w *ClickHouseWriter) Write(run *model.RunResult) error {
	if len(run.Metrics) == 0 {
		return nil // Nothing to write
	}

	batch, err := w.conn.PrepareBatch(context.Background(), "INSERT INTO device_metrics")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, m := range run.Metrics {
		completed := uint8(0)
		if m.TaskCompleted {
			completed = 1
		}
		err = batch.Append(
			run.EvaluatedAt,
			m.Device,
			string(m.Class),
			m.TxPackets,
			m.RxPackets,
			m.LossPercent,
			m.AvgLatencyMs,
			m.AvgJitterMs,
			m.TaskTarget,
			completed,
			m.CompletionTimeSec,
			m.SuccessRate,
			string(m.Safety),
		)
		if err != nil {
			return fmt.Errorf("failed to append device '%s' to batch: %w", m.Device, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	log.Printf("Wrote %d device metric rows to ClickHouse", len(run.Metrics))
	return nil
}
