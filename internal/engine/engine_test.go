package engine

import (
	"strings"
	"testing"
	"time"

	"IoMTSpectra/internal/config"
	"IoMTSpectra/internal/evaluate"
	"IoMTSpectra/internal/model"
	"IoMTSpectra/internal/resolver"
)

var runStart = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func testProfiles() []model.DeviceProfile {
	return []model.DeviceProfile{
		{Name: "Robot Ctrl", Class: model.ClassCriticalControl, Address: "192.168.1.1", Port: 8000, TaskTarget: 100},
		{Name: "Endoscope", Class: model.ClassVideoStream, Address: "192.168.1.2", Port: 8001, TaskTarget: 500},
		{Name: "Vital Mon", Class: model.ClassTelemetry, Address: "192.168.1.3", Port: 8002, TaskTarget: 15},
	}
}

func testEvaluator() *evaluate.Evaluator {
	return evaluate.New(map[model.TrafficClass][]model.SafetyCondition{
		model.ClassCriticalControl: {
			{Name: "latency", Metric: "avg_latency_ms", Operator: "<", Threshold: 50},
			{Name: "completion_time", Metric: "completion_time_sec", Operator: "<", Threshold: 5},
			{Name: "task", Metric: "task_completed", Operator: "=", Threshold: 1},
		},
	})
}

func robotFlow(id uint32) model.FlowRecord {
	return model.FlowRecord{
		ID:          id,
		SrcAddr:     "192.168.1.1",
		DstAddr:     "192.168.1.4",
		DstPort:     8000,
		TxPackets:   100,
		RxPackets:   100,
		DelaySum:    3000 * time.Millisecond,
		JitterSum:   200 * time.Millisecond,
		FirstTxTime: runStart,
		LastRxTime:  runStart.Add(3 * time.Second),
	}
}

func TestEvaluate_NominalCriticalDevice(t *testing.T) {
	res := resolver.New(testProfiles())
	run := Evaluate([]model.FlowRecord{robotFlow(1)}, res, testEvaluator(), 15*time.Second)

	if len(run.Metrics) != 1 {
		t.Fatalf("expected 1 device, got %d", len(run.Metrics))
	}
	m := run.Metrics[0]
	if m.Device != "Robot Ctrl" {
		t.Errorf("expected Robot Ctrl, got %q", m.Device)
	}
	if m.AvgLatencyMs != 30 {
		t.Errorf("expected 30ms latency, got %.2f", m.AvgLatencyMs)
	}
	if !m.TaskCompleted {
		t.Error("expected task completed")
	}
	if m.Safety != model.SafetyPass {
		t.Errorf("expected safety pass, got %s", m.Safety)
	}
}

func TestEvaluate_CompletionTimeViolation(t *testing.T) {
	rec := robotFlow(1)
	rec.LastRxTime = runStart.Add(6 * time.Second)

	res := resolver.New(testProfiles())
	run := Evaluate([]model.FlowRecord{rec}, res, testEvaluator(), 15*time.Second)

	m := run.Metrics[0]
	if m.Safety != model.SafetyFail {
		t.Fatalf("expected safety fail, got %s", m.Safety)
	}
	var sawViolation, sawLatencyPass bool
	for _, c := range m.Conditions {
		if c.Condition.Name == "completion_time" && !c.Passed {
			sawViolation = true
		}
		if c.Condition.Name == "latency" && c.Passed {
			sawLatencyPass = true
		}
	}
	if !sawViolation {
		t.Error("expected completion_time condition to be reported as violated")
	}
	if !sawLatencyPass {
		t.Error("expected latency condition to be individually reported as passed")
	}
}

func TestEvaluate_ZeroTransmitted(t *testing.T) {
	rec := model.FlowRecord{ID: 1, SrcAddr: "192.168.1.1", DstPort: 8000}

	res := resolver.New(testProfiles())
	run := Evaluate([]model.FlowRecord{rec}, res, testEvaluator(), 0)

	m := run.Metrics[0]
	if m.LossPercent != 100 {
		t.Errorf("expected 100%% loss, got %.2f", m.LossPercent)
	}
	if m.AvgLatencyMs != 0 {
		t.Errorf("expected 0 latency, got %.2f", m.AvgLatencyMs)
	}
	if m.TaskCompleted {
		t.Error("expected task not completed with zero received")
	}
}

func TestEvaluate_UnresolvedFlowExcluded(t *testing.T) {
	known := robotFlow(1)
	unknown := model.FlowRecord{ID: 2, SrcAddr: "10.9.9.9", DstPort: 8000, TxPackets: 5}

	res := resolver.New(testProfiles())
	run := Evaluate([]model.FlowRecord{known, unknown}, res, testEvaluator(), 0)

	if len(run.Metrics) != 1 {
		t.Fatalf("expected unknown flow to be excluded, got %d metrics", len(run.Metrics))
	}
	if run.Unresolved != 1 {
		t.Errorf("expected 1 unresolved flow, got %d", run.Unresolved)
	}
	if run.Resolved+run.Unresolved != 2 {
		t.Errorf("resolved (%d) + unresolved (%d) must equal total flows (2)", run.Resolved, run.Unresolved)
	}
}

func TestEvaluate_MixedSafetyApplicability(t *testing.T) {
	robot := robotFlow(1)
	vital := model.FlowRecord{
		ID:          2,
		SrcAddr:     "192.168.1.3",
		DstPort:     8002,
		TxPackets:   15,
		RxPackets:   15,
		DelaySum:    150 * time.Millisecond,
		FirstTxTime: runStart,
		LastRxTime:  runStart.Add(14 * time.Second),
	}

	res := resolver.New(testProfiles())
	run := Evaluate([]model.FlowRecord{robot, vital}, res, testEvaluator(), 15*time.Second)

	if len(run.Metrics) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(run.Metrics))
	}
	if run.Metrics[0].Safety != model.SafetyPass {
		t.Errorf("expected Robot Ctrl pass, got %s", run.Metrics[0].Safety)
	}
	if run.Metrics[1].Safety != model.SafetyNotApplicable {
		t.Errorf("expected Vital Mon not-applicable, got %s", run.Metrics[1].Safety)
	}
}

func TestEvaluate_DuplicateDeviceFlowIsAnomaly(t *testing.T) {
	res := resolver.New(testProfiles())
	run := Evaluate([]model.FlowRecord{robotFlow(1), robotFlow(2)}, res, testEvaluator(), 0)

	if len(run.Metrics) != 1 {
		t.Fatalf("expected one metrics row per device, got %d", len(run.Metrics))
	}
	if len(run.Anomalies) != 1 {
		t.Fatalf("expected duplicate flow to be surfaced as an anomaly, got %v", run.Anomalies)
	}
	if !strings.Contains(run.Anomalies[0], "Robot Ctrl") {
		t.Errorf("anomaly should name the device: %s", run.Anomalies[0])
	}
}

func TestEvaluate_EmptyInput(t *testing.T) {
	res := resolver.New(testProfiles())
	run := Evaluate(nil, res, testEvaluator(), 0)

	if len(run.Metrics) != 0 || run.Resolved != 0 || run.Unresolved != 0 {
		t.Errorf("expected empty run result, got %+v", run)
	}
}

func TestEngine_CollectAndEvaluate(t *testing.T) {
	cfg := &config.Config{
		Devices: []config.DeviceDef{
			{Name: "Robot Ctrl", Class: "critical-control", Address: "192.168.1.1", Port: 8000, TaskTarget: 100},
		},
	}
	eng := New(cfg, nil, nil)
	eng.Start()

	eng.Submit(robotFlow(1))
	eng.Submit(model.FlowRecord{ID: 2, SrcAddr: "10.0.0.1", DstPort: 80, TxPackets: 1})
	eng.Stop()

	run := eng.EvaluateAll(15 * time.Second)
	if run.Resolved != 1 || run.Unresolved != 1 {
		t.Errorf("expected 1 resolved and 1 unresolved, got %d/%d", run.Resolved, run.Unresolved)
	}
	if len(run.Metrics) != 1 {
		t.Fatalf("expected 1 device, got %d", len(run.Metrics))
	}
}

func TestEngine_MaxFlowsCap(t *testing.T) {
	cfg := &config.Config{
		Run: config.RunConfig{MaxFlows: 1},
		Devices: []config.DeviceDef{
			{Name: "Robot Ctrl", Class: "critical-control", Address: "192.168.1.1", Port: 8000, TaskTarget: 100},
		},
	}
	eng := New(cfg, nil, nil)
	eng.Start()
	eng.Submit(robotFlow(1))
	eng.Submit(robotFlow(2))
	eng.Stop()

	run := eng.EvaluateAll(0)
	if run.Resolved != 1 {
		t.Errorf("expected the cap to keep a single record, got %d resolved", run.Resolved)
	}
	if len(run.Anomalies) == 0 {
		t.Error("expected the cap overflow to be surfaced as an anomaly")
	}
}
