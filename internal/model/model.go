package model

import (
	"time"
)

// TrafficClass categorizes a device's criticality and bandwidth profile.
// The class decides which safety rule set, if any, applies to the device.
type TrafficClass string

const (
	ClassCriticalControl TrafficClass = "critical-control"
	ClassVideoStream     TrafficClass = "video-stream"
	ClassTelemetry       TrafficClass = "telemetry"
)

// FlowRecord holds the raw per-flow counters reported by the telemetry
// source after a run. Records are read-only inputs to the pipeline.
type FlowRecord struct {
	ID        uint32 `json:"id"`
	SrcAddr   string `json:"src_addr"`
	DstAddr   string `json:"dst_addr"`
	DstPort   uint16 `json:"dst_port"`
	TxPackets uint32 `json:"tx_packets"`
	RxPackets uint32 `json:"rx_packets"`

	// DelaySum and JitterSum are cumulative over all received packets.
	DelaySum  time.Duration `json:"delay_sum"`
	JitterSum time.Duration `json:"jitter_sum"`

	FirstTxTime time.Time `json:"first_tx_time"`
	// LastRxTime is the zero value when RxPackets == 0.
	LastRxTime time.Time `json:"last_rx_time"`
}

// DeviceProfile is the static per-device configuration: how a flow source
// address (and, when shared, destination port) maps to a named device, and
// what that device is expected to deliver.
type DeviceProfile struct {
	Name       string
	Class      TrafficClass
	Address    string
	Port       uint16
	TaskTarget uint32
}

// SafetyStatus is the outcome of checking a device against its class's
// safety rule set.
type SafetyStatus string

const (
	SafetyPass          SafetyStatus = "pass"
	SafetyFail          SafetyStatus = "fail"
	SafetyNotApplicable SafetyStatus = "not-applicable"
)

// SafetyCondition is one named threshold on a derived metric,
// e.g. avg_latency_ms < 50.
type SafetyCondition struct {
	Name      string  `json:"name"`
	Metric    string  `json:"metric"`
	Operator  string  `json:"operator"`
	Threshold float64 `json:"threshold"`
}

// ConditionResult records the outcome of a single safety condition so the
// report can state which threshold(s) were exceeded, not just that one was.
type ConditionResult struct {
	Condition SafetyCondition `json:"condition"`
	Value     float64         `json:"value"`
	Passed    bool            `json:"passed"`
}

// DeviceMetrics holds everything derived from one resolved flow. Values are
// computed once and never patched afterwards.
type DeviceMetrics struct {
	Device            string            `json:"device"`
	Class             TrafficClass      `json:"class"`
	TxPackets         uint32            `json:"tx_packets"`
	RxPackets         uint32            `json:"rx_packets"`
	LossPercent       float64           `json:"loss_percent"`
	AvgLatencyMs      float64           `json:"avg_latency_ms"`
	AvgJitterMs       float64           `json:"avg_jitter_ms"`
	TaskTarget        uint32            `json:"task_target"`
	TaskCompleted     bool              `json:"task_completed"`
	CompletionTimeSec float64           `json:"completion_time_sec"`
	SuccessRate       float64           `json:"success_rate"`
	Safety            SafetyStatus      `json:"safety"`
	Conditions        []ConditionResult `json:"conditions,omitempty"`
}

// RunResult is the evaluated output of one run. Metrics keep the order in
// which their flows were resolved, so repeated exports of the same input
// are byte-identical.
type RunResult struct {
	EvaluatedAt time.Time       `json:"evaluated_at"`
	Duration    time.Duration   `json:"duration"`
	Metrics     []DeviceMetrics `json:"metrics"`
	Resolved    int             `json:"resolved"`
	Unresolved  int             `json:"unresolved"`
	Anomalies   []string        `json:"anomalies,omitempty"`
}

// SafetyFailures returns the metrics whose safety verdict is fail.
func (r *RunResult) SafetyFailures() []DeviceMetrics {
	var failed []DeviceMetrics
	for _, m := range r.Metrics {
		if m.Safety == SafetyFail {
			failed = append(failed, m)
		}
	}
	return failed
}
