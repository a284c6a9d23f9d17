// Package webhook notifies registered URLs whenever the fraud report is
// regenerated.
//
// Notifications are sent in goroutines so they never hold up a generator
// cycle or an HTTP response. Each endpoint sits behind its own circuit
// breaker; failed deliveries are logged and not retried.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"sentinel/fraud-monitor/internal/domain"
	"sentinel/fraud-monitor/internal/metrics"
	"sentinel/fraud-monitor/internal/report"
)

// EventReportUpdated is the only event the notifier emits.
const EventReportUpdated = "fraud_report_updated"

// Payload is the JSON body posted to every matching hook.
type Payload struct {
	Event           string    `json:"event"`
	TriggeredAt     time.Time `json:"triggered_at"`
	FraudCount      int       `json:"fraud_count"`
	TotalFraudMoney int64     `json:"total_fraud_money"`
	Accounts        []string  `json:"accounts"`
}

// Options tunes delivery. Zero values fall back to the defaults below.
type Options struct {
	Timeout    time.Duration // per request, default 5s
	TripAfter  uint32        // consecutive failures that open a breaker, default 3
	OpenFor    time.Duration // how long a breaker stays open, default 30s
	HTTPClient *http.Client
	Now        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.TripAfter == 0 {
		o.TripAfter = 3
	}
	if o.OpenFor <= 0 {
		o.OpenFor = 30 * time.Second
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Notifier delivers report payloads to the active hooks of a Registry.
type Notifier struct {
	registry *Registry
	opts     Options
	logger   *slog.Logger
	metrics  metrics.Recorder

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker // keyed by hook id

	inflight sync.WaitGroup
}

var _ report.Listener = (*Notifier)(nil)

// New creates a Notifier. A nil recorder disables metrics.
func New(reg *Registry, logger *slog.Logger, m metrics.Recorder, opts Options) *Notifier {
	if m == nil {
		m = metrics.NoOp{}
	}
	return &Notifier{
		registry: reg,
		opts:     opts.withDefaults(),
		logger:   logger,
		metrics:  m,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// ReportUpdated implements report.Listener.
func (n *Notifier) ReportUpdated(entries []domain.FraudReportEntry) {
	n.NotifyAsync(entries)
}

// NotifyAsync runs Notify in the background. Use Wait to block until every
// delivery started so far has finished.
func (n *Notifier) NotifyAsync(entries []domain.FraudReportEntry) {
	n.inflight.Add(1)
	go func() {
		defer n.inflight.Done()
		_ = n.Notify(context.Background(), entries)
	}()
}

// Notify delivers to every matching hook concurrently and returns the joined
// delivery errors. Failures are also logged per hook.
func (n *Notifier) Notify(ctx context.Context, entries []domain.FraudReportEntry) error {
	payload := n.payload(entries)
	hooks := n.matching(payload.FraudCount)

	errs := make([]error, len(hooks))
	var wg sync.WaitGroup
	for i, h := range hooks {
		wg.Add(1)
		go func(i int, h Hook) {
			defer wg.Done()
			reqCtx, cancel := context.WithTimeout(ctx, n.opts.Timeout)
			defer cancel()
			if err := n.deliver(reqCtx, h, payload); err != nil {
				errs[i] = fmt.Errorf("webhook %s: %w", h.ID, err)
			}
		}(i, h)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Wait blocks until all asynchronous deliveries have returned.
func (n *Notifier) Wait() { n.inflight.Wait() }

// ─── Internals ────────────────────────────────────────────────────────────────

func (n *Notifier) payload(entries []domain.FraudReportEntry) Payload {
	accounts := make([]string, 0, len(entries))
	for _, e := range entries {
		accounts = append(accounts, e.AccountNumber)
	}
	return Payload{
		Event:           EventReportUpdated,
		TriggeredAt:     n.opts.Now().UTC(),
		FraudCount:      len(entries),
		TotalFraudMoney: report.TotalFraudMoney(entries),
		Accounts:        accounts,
	}
}

// matching returns the active hooks whose threshold fraudCount meets, and
// drops the breakers of hooks that are no longer registered.
func (n *Notifier) matching(fraudCount int) []Hook {
	active := n.registry.Active()
	ids := make(map[string]struct{}, len(active))

	var out []Hook
	for _, h := range active {
		ids[h.ID] = struct{}{}
		if fraudCount >= h.MinAccounts {
			out = append(out, h)
		}
	}

	n.mu.Lock()
	for id := range n.breakers {
		if _, ok := ids[id]; !ok {
			delete(n.breakers, id)
		}
	}
	n.mu.Unlock()
	return out
}

func (n *Notifier) breaker(h Hook) *gobreaker.CircuitBreaker {
	n.mu.Lock()
	defer n.mu.Unlock()

	if cb, ok := n.breakers[h.ID]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    h.ID,
		Timeout: n.opts.OpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= n.opts.TripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			n.logger.Warn("webhook circuit state changed",
				"webhook_id", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	n.breakers[h.ID] = cb
	return cb
}

// deliver posts one payload through the hook's breaker and logs the outcome.
func (n *Notifier) deliver(ctx context.Context, h Hook, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		n.logger.Error("webhook payload not encoded", "webhook_id", h.ID, "error", err)
		return err
	}

	_, err = n.breaker(h).Execute(func() (interface{}, error) {
		return nil, n.post(ctx, h.URL, body)
	})
	n.metrics.RecordWebhook(err == nil)

	if err != nil {
		n.logger.Warn("webhook delivery failed", "webhook_id", h.ID, "url", h.URL, "error", err)
		return err
	}
	n.logger.Info("webhook delivered",
		"webhook_id", h.ID,
		"url", h.URL,
		"fraud_count", p.FraudCount,
	)
	return nil
}

func (n *Notifier) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Fraud-Monitor-Event", EventReportUpdated)

	resp, err := n.opts.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
