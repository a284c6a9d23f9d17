// Package generator appends one random transaction to the dataset on every
// tick and then rebuilds the fraud report from the updated records.
//
// A cycle is load, pick, append, save, report. The dataset file is reread on
// every cycle, so edits made between ticks are picked up. Cycles never
// overlap: a tick that arrives while the previous cycle is still running is
// skipped.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"sentinel/fraud-monitor/internal/domain"
	"sentinel/fraud-monitor/internal/metrics"
)

var (
	// ErrNotSequence means the chosen user's credits or debits field is not a
	// list. Nothing is written when it is returned.
	ErrNotSequence = errors.New("transaction field is not a sequence")
	// ErrEmptyDataset means there is no user to pick.
	ErrEmptyDataset = errors.New("dataset has no users")
	// ErrCycleInProgress is returned by Tick when the previous cycle has not
	// finished yet.
	ErrCycleInProgress = errors.New("previous cycle still running")
)

// DatasetStore is the persistence the generator needs.
type DatasetStore interface {
	Load() ([]domain.User, error)
	Save(users []domain.User) error
}

// ReportBuilder rebuilds and stores the fraud report.
type ReportBuilder interface {
	Regenerate(users []domain.User) ([]domain.FraudReportEntry, error)
}

// Options configures a Generator. Zero values use the defaults.
type Options struct {
	Interval time.Duration    // default 15s
	Rand     *rand.Rand       // default seeded from the clock
	Now      func() time.Time // default time.Now
	Logger   *slog.Logger     // default slog.Default()
	Metrics  metrics.Recorder // default metrics.NoOp
}

// DefaultInterval is the time between cycles when none is configured.
const DefaultInterval = 15 * time.Second

// Generator runs transaction cycles against a dataset.
type Generator struct {
	dataset    DatasetStore
	reports    ReportBuilder
	thresholds domain.Thresholds
	interval   time.Duration
	now        func() time.Time
	logger     *slog.Logger
	metrics    metrics.Recorder

	rngMu sync.Mutex
	rng   *rand.Rand

	running atomic.Bool
}

// New creates a Generator.
func New(ds DatasetStore, reports ReportBuilder, th domain.Thresholds, opts Options) *Generator {
	g := &Generator{
		dataset:    ds,
		reports:    reports,
		thresholds: th,
		interval:   opts.Interval,
		now:        opts.Now,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		rng:        opts.Rand,
	}
	if g.interval <= 0 {
		g.interval = DefaultInterval
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.metrics == nil {
		g.metrics = metrics.NoOp{}
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return g
}

// CycleResult describes the transaction appended by one cycle.
type CycleResult struct {
	CycleID     string             `json:"cycle_id"`
	Account     string             `json:"account_number"`
	Index       int                `json:"index"`
	Direction   string             `json:"direction"`
	Transaction domain.Transaction `json:"transaction"`
	FraudCount  int                `json:"fraud_count"`
}

// ─── Scheduling ───────────────────────────────────────────────────────────────

// Run starts a cycle on every tick until ctx is cancelled, then waits for the
// cycle in flight. Cycle failures are logged and the next tick retries.
func (g *Generator) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	g.logger.Info("generator started", "interval", g.interval.String())

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			g.logger.Info("generator stopped")
			return nil
		case <-ticker.C:
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = g.Tick(ctx)
			}()
		}
	}
}

// Tick runs one cycle unless another is still in progress, in which case it
// returns ErrCycleInProgress without touching the dataset.
func (g *Generator) Tick(ctx context.Context) (CycleResult, error) {
	if !g.running.CompareAndSwap(false, true) {
		g.metrics.RecordCycle(metrics.OutcomeSkipped, 0)
		g.logger.Warn("generator tick skipped", "reason", ErrCycleInProgress.Error())
		return CycleResult{}, ErrCycleInProgress
	}
	defer g.running.Store(false)
	return g.RunCycle(ctx)
}

// ─── Cycle ────────────────────────────────────────────────────────────────────

// RunCycle performs one load, append, save and report pass.
//
// A failed report save is logged and does not fail the cycle; the dataset
// write has already happened and is not rolled back.
func (g *Generator) RunCycle(ctx context.Context) (CycleResult, error) {
	start := time.Now()
	res := CycleResult{CycleID: uuid.NewString()}
	log := g.logger.With("cycle_id", res.CycleID)

	err := g.cycle(ctx, &res, log)

	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeFailed
		log.Error("generator cycle aborted", "error", err)
	}
	g.metrics.RecordCycle(outcome, time.Since(start))
	return res, err
}

func (g *Generator) cycle(ctx context.Context, res *CycleResult, log *slog.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	users, err := g.dataset.Load()
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	if len(users) == 0 {
		return ErrEmptyDataset
	}

	idx, direction, tx := g.draw(len(users))
	u := &users[idx]
	res.Index, res.Account, res.Direction, res.Transaction = idx, u.AccountNumber, direction, tx

	ledger := u.Ledger(direction)
	if !ledger.IsSequence() {
		return fmt.Errorf("user %d (%s) %s: %w", idx, u.AccountNumber, direction, ErrNotSequence)
	}
	ledger.Append(tx)

	if err := g.dataset.Save(users); err != nil {
		return fmt.Errorf("save dataset: %w", err)
	}

	log.Info("transaction appended",
		"account", u.AccountNumber,
		"index", idx,
		"direction", direction,
		"amount", tx.Amount.Int64(),
		"date", tx.Date,
	)

	// The report service logs its own save failures.
	entries, _ := g.reports.Regenerate(users)
	res.FraudCount = len(entries)
	g.metrics.RecordFraudAccounts(len(entries))
	return nil
}

// draw picks a user index, a direction and a new transaction dated today in
// UTC.
func (g *Generator) draw(n int) (int, string, domain.Transaction) {
	g.rngMu.Lock()
	defer g.rngMu.Unlock()

	idx := g.rng.Intn(n)
	direction := domain.DirectionDebits
	if g.rng.Intn(2) == 0 {
		direction = domain.DirectionCredits
	}
	tx := domain.Transaction{
		Amount: domain.Amount(g.rng.Int63n(g.thresholds.MaxAmount)),
		Date:   domain.FormatDate(g.now().UTC()),
	}
	return idx, direction, tx
}
