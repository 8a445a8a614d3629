package echotrace

import (
	"fmt"
	"time"

	"IoMTSpectra/internal/model"
)

// Assembler reconstructs per-flow counters from individual UDP echo
// packets. The first packet between an address pair defines the request
// direction; packets flowing back are echo replies. The i-th reply is
// paired with the i-th request to accumulate delay, and jitter is the
// absolute delta between successive delays.
type Assembler struct {
	flows  map[string]*flowState
	order  []string
	nextID uint32
}

type flowState struct {
	rec       model.FlowRecord
	txTimes   []time.Time
	lastDelay time.Duration
	haveDelay bool
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{flows: make(map[string]*flowState)}
}

// AddPacket feeds one decoded UDP packet in capture order.
func (a *Assembler) AddPacket(ts time.Time, srcAddr, dstAddr string, srcPort, dstPort uint16) {
	reverse := flowKey(dstAddr, srcAddr, srcPort)
	if st, ok := a.flows[reverse]; ok {
		a.addReply(st, ts)
		return
	}

	forward := flowKey(srcAddr, dstAddr, dstPort)
	st, ok := a.flows[forward]
	if !ok {
		a.nextID++
		st = &flowState{
			rec: model.FlowRecord{
				ID:          a.nextID,
				SrcAddr:     srcAddr,
				DstAddr:     dstAddr,
				DstPort:     dstPort,
				FirstTxTime: ts,
			},
		}
		a.flows[forward] = st
		a.order = append(a.order, forward)
	}
	st.rec.TxPackets++
	st.txTimes = append(st.txTimes, ts)
}

func (a *Assembler) addReply(st *flowState, ts time.Time) {
	st.rec.RxPackets++
	st.rec.LastRxTime = ts

	// Pair with the matching request; an unmatched reply still counts as
	// received but contributes no delay sample.
	idx := int(st.rec.RxPackets) - 1
	if idx >= len(st.txTimes) {
		return
	}
	delay := ts.Sub(st.txTimes[idx])
	st.rec.DelaySum += delay
	if st.haveDelay {
		d := delay - st.lastDelay
		if d < 0 {
			d = -d
		}
		st.rec.JitterSum += d
	}
	st.lastDelay = delay
	st.haveDelay = true
}

// Records returns the reconstructed flow records in first-seen order.
func (a *Assembler) Records() []model.FlowRecord {
	records := make([]model.FlowRecord, 0, len(a.order))
	for _, key := range a.order {
		records = append(records, a.flows[key].rec)
	}
	return records
}

func flowKey(srcAddr, dstAddr string, dstPort uint16) string {
	return fmt.Sprintf("%s->%s:%d", srcAddr, dstAddr, dstPort)
}
