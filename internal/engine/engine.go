package engine

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"IoMTSpectra/internal/config"
	"IoMTSpectra/internal/evaluate"
	"IoMTSpectra/internal/model"
	"IoMTSpectra/internal/resolver"
)

// Engine collects flow records for one run and evaluates them once
// collection stops. Records are collected by a single goroutine so the
// arrival order, and with it the export order, stays stable.
type Engine struct {
	resolver  *resolver.Resolver
	evaluator *evaluate.Evaluator
	writers   []model.Writer
	notifier  model.Notifier
	maxFlows  int
	notify    bool

	recordChannel chan model.FlowRecord
	collectorWg   sync.WaitGroup

	mu      sync.Mutex
	records []model.FlowRecord
	capped  int
}

const defaultChannelSize = 1024

// New creates an Engine from the loaded configuration and the already
// constructed writers and optional notifier.
func New(cfg *config.Config, writers []model.Writer, notifier model.Notifier) *Engine {
	res := resolver.New(cfg.Profiles())
	log.Printf("Device table loaded: %d profile(s) across %d source address(es)", len(cfg.Devices), res.Size())
	return &Engine{
		resolver:      res,
		evaluator:     evaluate.New(cfg.SafetyRules()),
		writers:       writers,
		notifier:      notifier,
		maxFlows:      cfg.Run.MaxFlows,
		notify:        cfg.NotifyOnSafetyFailure,
		recordChannel: make(chan model.FlowRecord, defaultChannelSize),
	}
}

// Start launches the collector goroutine.
func (e *Engine) Start() {
	e.collectorWg.Add(1)
	go e.collector()
}

// Submit hands a flow record to the engine. Safe to call from transport
// callbacks until Stop.
func (e *Engine) Submit(rec model.FlowRecord) {
	e.recordChannel <- rec
}

// Stop closes the intake and waits until all buffered records are collected.
func (e *Engine) Stop() {
	close(e.recordChannel)
	e.collectorWg.Wait()
	if e.capped > 0 {
		log.Printf("Warning: dropped %d flow records over the max_flows cap (%d)", e.capped, e.maxFlows)
	}
}

func (e *Engine) collector() {
	defer e.collectorWg.Done()
	for rec := range e.recordChannel {
		e.mu.Lock()
		if e.maxFlows > 0 && len(e.records) >= e.maxFlows {
			e.capped++
		} else {
			e.records = append(e.records, rec)
		}
		e.mu.Unlock()
	}
}

// EvaluateAll runs the pipeline over everything collected so far.
func (e *Engine) EvaluateAll(duration time.Duration) *model.RunResult {
	e.mu.Lock()
	records := make([]model.FlowRecord, len(e.records))
	copy(records, e.records)
	capped := e.capped
	e.mu.Unlock()

	run := Evaluate(records, e.resolver, e.evaluator, duration)
	if capped > 0 {
		run.Anomalies = append(run.Anomalies,
			fmt.Sprintf("%d flow records dropped over the max_flows cap", capped))
	}

	log.Printf("Evaluated run: %d flows in, %d devices resolved, %d unresolved",
		len(records), len(run.Metrics), run.Unresolved)
	return run
}

// Export writes the run to every configured writer. A failing sink is
// reported and skipped; the in-memory result stays valid and the remaining
// writers still run. The joined error carries every sink failure.
func (e *Engine) Export(run *model.RunResult) error {
	var errs []error
	for _, w := range e.writers {
		if err := w.Write(run); err != nil {
			log.Printf("Error writing run via %s writer: %v", w.Name(), err)
			errs = append(errs, fmt.Errorf("%s writer: %w", w.Name(), err))
		}
	}

	e.notifySafetyFailures(run)

	return errors.Join(errs...)
}

// notifySafetyFailures sends one consolidated notification when any device
// under safety rules failed its verdict.
func (e *Engine) notifySafetyFailures(run *model.RunResult) {
	if !e.notify || e.notifier == nil {
		return
	}
	failed := run.SafetyFailures()
	if len(failed) == 0 {
		return
	}

	var body strings.Builder
	body.WriteString("The following devices exceeded their safety thresholds:\r\n\r\n")
	for _, m := range failed {
		body.WriteString(fmt.Sprintf("- %s (%s)\r\n", m.Device, m.Class))
		for _, c := range m.Conditions {
			if c.Passed {
				continue
			}
			body.WriteString(fmt.Sprintf("    %s: %s = %.2f, limit %s %.2f\r\n",
				c.Condition.Name, c.Condition.Metric, c.Value, c.Condition.Operator, c.Condition.Threshold))
		}
	}

	subject := fmt.Sprintf("IoMTSpectra Safety Alert (%d device(s) failed)", len(failed))
	if err := e.notifier.Send(subject, body.String()); err != nil {
		log.Printf("ERROR: Failed to send safety failure notification: %v", err)
	} else {
		log.Println("Safety failure notification sent.")
	}
}
