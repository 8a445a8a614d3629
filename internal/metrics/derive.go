package metrics

import (
	"fmt"

	"IoMTSpectra/internal/model"
)

// Derive computes the derived quantities for one resolved flow. It is a pure
// function of the record and profile; nothing accumulates across calls.
//
// Conventions, chosen to match the reference behavior:
//   - loss is 100% when nothing was transmitted (no traffic is a failure,
//     not a 0/0 success);
//   - average latency and jitter are 0 when nothing was received;
//   - completion time is defined only when both counters are positive and a
//     receive timestamp exists, and is never negative.
//
// A non-empty anomaly string is returned when the input is inconsistent
// (more packets received than transmitted, or last receive before first
// transmit), so callers surface it instead of clamping silently.
func Derive(rec *model.FlowRecord, profile *model.DeviceProfile) (model.DeviceMetrics, string) {
	m := model.DeviceMetrics{
		Device:     profile.Name,
		Class:      profile.Class,
		TxPackets:  rec.TxPackets,
		RxPackets:  rec.RxPackets,
		TaskTarget: profile.TaskTarget,
	}

	anomaly := ""
	if rec.TxPackets > 0 {
		m.LossPercent = (1.0 - float64(rec.RxPackets)/float64(rec.TxPackets)) * 100.0
		if m.LossPercent < 0 {
			// Counters disagree; a loss rate below zero is meaningless.
			m.LossPercent = 0
			anomaly = fmt.Sprintf("flow %d (%s): received %d packets but only %d transmitted, loss clamped to 0",
				rec.ID, profile.Name, rec.RxPackets, rec.TxPackets)
		}
	} else {
		m.LossPercent = 100.0
	}

	if rec.RxPackets > 0 {
		rx := float64(rec.RxPackets)
		m.AvgLatencyMs = rec.DelaySum.Seconds() * 1000.0 / rx
		m.AvgJitterMs = rec.JitterSum.Seconds() * 1000.0 / rx
	}

	if rec.RxPackets > 0 && rec.TxPackets > 0 && !rec.LastRxTime.IsZero() {
		elapsed := rec.LastRxTime.Sub(rec.FirstTxTime)
		if elapsed < 0 {
			anomaly = fmt.Sprintf("flow %d (%s): last receive precedes first transmit, completion time unusable",
				rec.ID, profile.Name)
		} else {
			m.CompletionTimeSec = elapsed.Seconds()
		}
	}

	return m, anomaly
}
