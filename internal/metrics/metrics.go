// Package metrics defines the instrumentation surface of the service.
// Components depend on Recorder; the Prometheus implementation lives in this
// package too, and NoOp is used where metrics are not wanted (mostly tests).
package metrics

import "time"

// Cycle outcomes reported by the generator.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped" // previous cycle still running
)

// Recorder collects service metrics.
type Recorder interface {
	// Generator
	RecordCycle(outcome string, duration time.Duration)
	RecordFraudAccounts(n int)

	// Alert evaluation
	RecordAlert(rule, level string)
	RecordSearch(found bool)

	// Webhook delivery
	RecordWebhook(success bool)
}

// NoOp discards everything.
type NoOp struct{}

func (NoOp) RecordCycle(string, time.Duration) {}
func (NoOp) RecordFraudAccounts(int)           {}
func (NoOp) RecordAlert(string, string)        {}
func (NoOp) RecordSearch(bool)                 {}
func (NoOp) RecordWebhook(bool)                {}
