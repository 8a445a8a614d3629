package evaluate

import (
	"testing"

	"IoMTSpectra/internal/model"
)

func criticalRules() map[model.TrafficClass][]model.SafetyCondition {
	return map[model.TrafficClass][]model.SafetyCondition{
		model.ClassCriticalControl: {
			{Name: "latency", Metric: "avg_latency_ms", Operator: "<", Threshold: 50},
			{Name: "completion_time", Metric: "completion_time_sec", Operator: "<", Threshold: 5},
			{Name: "task", Metric: "task_completed", Operator: "=", Threshold: 1},
		},
	}
}

func TestApply_SafetyPass(t *testing.T) {
	ev := New(criticalRules())
	m := model.DeviceMetrics{
		Device:            "Robot Ctrl",
		Class:             model.ClassCriticalControl,
		RxPackets:         100,
		TaskTarget:        100,
		AvgLatencyMs:      30,
		CompletionTimeSec: 3,
	}

	ev.Apply(&m)

	if !m.TaskCompleted {
		t.Error("expected task completed with rx == target")
	}
	if m.SuccessRate != 100 {
		t.Errorf("expected 100%% success rate, got %.1f", m.SuccessRate)
	}
	if m.Safety != model.SafetyPass {
		t.Errorf("expected pass verdict, got %s", m.Safety)
	}
	if len(m.Conditions) != 3 {
		t.Fatalf("expected 3 condition results, got %d", len(m.Conditions))
	}
	for _, c := range m.Conditions {
		if !c.Passed {
			t.Errorf("condition %q unexpectedly failed", c.Condition.Name)
		}
	}
}

func TestApply_CompletionTimeExceeded(t *testing.T) {
	ev := New(criticalRules())
	m := model.DeviceMetrics{
		Device:            "Robot Ctrl",
		Class:             model.ClassCriticalControl,
		RxPackets:         100,
		TaskTarget:        100,
		AvgLatencyMs:      30,
		CompletionTimeSec: 6,
	}

	ev.Apply(&m)

	if m.Safety != model.SafetyFail {
		t.Fatalf("expected fail verdict, got %s", m.Safety)
	}
	// The failing condition is enumerated; the latency condition is still
	// individually reported as passed.
	for _, c := range m.Conditions {
		switch c.Condition.Name {
		case "completion_time":
			if c.Passed {
				t.Error("expected completion_time condition to fail")
			}
		case "latency":
			if !c.Passed {
				t.Error("expected latency condition to still pass")
			}
		}
	}
}

func TestApply_NotApplicableWithoutRules(t *testing.T) {
	ev := New(criticalRules())
	m := model.DeviceMetrics{
		Device:     "Vital Mon",
		Class:      model.ClassTelemetry,
		RxPackets:  15,
		TaskTarget: 15,
	}

	ev.Apply(&m)

	if m.Safety != model.SafetyNotApplicable {
		t.Errorf("expected not-applicable verdict, got %s", m.Safety)
	}
	if len(m.Conditions) != 0 {
		t.Errorf("expected no condition results, got %d", len(m.Conditions))
	}
}

func TestApply_TaskCompletionMonotonicity(t *testing.T) {
	ev := New(nil)
	cases := []struct {
		rx, target uint32
		completed  bool
		success    float64
	}{
		{100, 100, true, 100},
		{101, 100, true, 101},
		{99, 100, false, 99},
		{0, 15, false, 0},
	}
	for _, c := range cases {
		m := model.DeviceMetrics{RxPackets: c.rx, TaskTarget: c.target}
		ev.Apply(&m)
		if m.TaskCompleted != c.completed {
			t.Errorf("rx=%d target=%d: expected completed=%v", c.rx, c.target, c.completed)
		}
		if m.SuccessRate != c.success {
			t.Errorf("rx=%d target=%d: expected success %.1f, got %.1f", c.rx, c.target, c.success, m.SuccessRate)
		}
	}
}

func TestApply_ZeroTargetSuccessRate(t *testing.T) {
	ev := New(nil)
	m := model.DeviceMetrics{Device: "broken", RxPackets: 10, TaskTarget: 0}
	ev.Apply(&m)
	if m.SuccessRate != 0 {
		t.Errorf("expected 0 success rate for zero target, got %.1f", m.SuccessRate)
	}
}

func TestKnownMetricAndOperator(t *testing.T) {
	if !KnownMetric("avg_latency_ms") || KnownMetric("bogus") {
		t.Error("KnownMetric misclassified a name")
	}
	if !KnownOperator("<=") || KnownOperator("!=") {
		t.Error("KnownOperator misclassified an operator")
	}
	if !MagnitudeMetric("completion_time_sec") || MagnitudeMetric("task_completed") {
		t.Error("MagnitudeMetric misclassified a name")
	}
}
