package evaluate

import (
	"log"

	"IoMTSpectra/internal/model"
)

// Evaluator applies per-device task targets and traffic-class safety rule
// sets to derived metrics. It holds only static rule configuration and is
// safe to share across runs.
type Evaluator struct {
	rules map[model.TrafficClass][]model.SafetyCondition
}

// New creates an Evaluator from a class-to-conditions rule map. Classes
// absent from the map yield a not-applicable safety verdict.
func New(rules map[model.TrafficClass][]model.SafetyCondition) *Evaluator {
	if rules == nil {
		rules = make(map[model.TrafficClass][]model.SafetyCondition)
	}
	return &Evaluator{rules: rules}
}

// Apply fills in the task-completion fields and the safety verdict of m.
// The verdict is pass only when every configured condition for the device's
// class holds; failing conditions are recorded individually.
func (e *Evaluator) Apply(m *model.DeviceMetrics) {
	m.TaskCompleted = m.RxPackets >= m.TaskTarget

	if m.TaskTarget > 0 {
		m.SuccessRate = float64(m.RxPackets) / float64(m.TaskTarget) * 100.0
	} else {
		// Config validation rejects zero targets; a programmatic caller can
		// still hand one in, and 0/0 must not become a success.
		log.Printf("Warning: device %q has a zero task target, success rate forced to 0", m.Device)
		m.SuccessRate = 0
	}

	conds := e.rules[m.Class]
	if len(conds) == 0 {
		m.Safety = model.SafetyNotApplicable
		return
	}

	allPassed := true
	m.Conditions = make([]model.ConditionResult, 0, len(conds))
	for _, cond := range conds {
		value := metricValue(m, cond.Metric)
		passed := check(value, cond.Threshold, cond.Operator)
		if !passed {
			allPassed = false
		}
		m.Conditions = append(m.Conditions, model.ConditionResult{
			Condition: cond,
			Value:     value,
			Passed:    passed,
		})
	}

	if allPassed {
		m.Safety = model.SafetyPass
	} else {
		m.Safety = model.SafetyFail
	}
}

// metricValue looks up a derived metric by its rule name. Unknown names are
// rejected at config load, so this only sees the names below.
func metricValue(m *model.DeviceMetrics, name string) float64 {
	switch name {
	case "avg_latency_ms":
		return m.AvgLatencyMs
	case "avg_jitter_ms":
		return m.AvgJitterMs
	case "loss_percent":
		return m.LossPercent
	case "completion_time_sec":
		return m.CompletionTimeSec
	case "rx_packets":
		return float64(m.RxPackets)
	case "task_completed":
		if m.TaskCompleted {
			return 1
		}
		return 0
	default:
		log.Printf("Warning: unknown metric %q in safety condition", name)
		return 0
	}
}

// KnownMetric reports whether a rule metric name is understood by the
// evaluator. Used by config validation at startup.
func KnownMetric(name string) bool {
	switch name {
	case "avg_latency_ms", "avg_jitter_ms", "loss_percent",
		"completion_time_sec", "rx_packets", "task_completed":
		return true
	}
	return false
}

// MagnitudeMetric reports whether a rule metric measures a nonnegative
// quantity, so a threshold at or below zero can never be a sensible limit.
func MagnitudeMetric(name string) bool {
	switch name {
	case "avg_latency_ms", "avg_jitter_ms", "completion_time_sec", "rx_packets":
		return true
	}
	return false
}

// KnownOperator reports whether a rule operator is understood by the
// evaluator.
func KnownOperator(op string) bool {
	switch op {
	case ">", "<", "=", ">=", "<=":
		return true
	}
	return false
}

// check compares a value against a threshold based on an operator.
func check(value, threshold float64, operator string) bool {
	switch operator {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case "=":
		return value == threshold
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	default:
		log.Printf("Warning: unknown operator '%s' in safety condition", operator)
		return false
	}
}
