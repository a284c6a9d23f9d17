// Package alerts implements the per-account alert rules shown on a search.
//
// Architecture:
//
//	The engine is stateless. It evaluates one user record at a time and never
//	touches storage; callers hand it a dataset snapshot. Nothing is memoised,
//	so every search re-runs every rule.
//
// Rules implemented:
//  1. High value: transactions above the fraud threshold, escalated to red
//     when two of them fall on consecutive calendar days. Suppressed for
//     users at or above the wealthy cutoff.
//  2. Frequency: more than SameDayLimit transactions sharing a date.
//     Suppressed for users at or above the fraud threshold.
package alerts

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"sentinel/fraud-monitor/internal/domain"
	"sentinel/fraud-monitor/internal/metrics"
)

// Engine evaluates the alert rules against user records.
type Engine struct {
	thresholds domain.Thresholds
	metrics    metrics.Recorder

	// NormalizeFrequencyDates groups the frequency rule by parsed calendar
	// date instead of by the raw date text. Off by default, which keeps
	// "10/01/2024" and "2024-01-10" in separate buckets.
	NormalizeFrequencyDates bool
}

// New creates an engine using the shared thresholds. A nil recorder
// disables metrics.
func New(th domain.Thresholds, m metrics.Recorder) *Engine {
	if m == nil {
		m = metrics.NoOp{}
	}
	return &Engine{thresholds: th, metrics: m}
}

// ─── Public API ───────────────────────────────────────────────────────────────

// Result holds the outcome of both rule families for one user.
type Result struct {
	HighValue string         `json:"high_value"` // none | yellow | red
	Frequency bool           `json:"frequency"`
	Alerts    []domain.Alert `json:"alerts"`
}

// SearchResult is the outcome of looking up one account number. When Found
// is false, User is nil and no rules were evaluated.
type SearchResult struct {
	Query  string       `json:"query"`
	Found  bool         `json:"found"`
	User   *domain.User `json:"user,omitempty"`
	Result *Result      `json:"result,omitempty"`
}

// Evaluate runs every rule against u.
func (e *Engine) Evaluate(u *domain.User) Result {
	ctx := e.buildContext(u)

	rules := []func(*ruleContext) []domain.Alert{
		ruleHighValue,
		ruleFrequency,
	}

	res := Result{HighValue: domain.LevelNone, Alerts: []domain.Alert{}}
	for _, rule := range rules {
		res.Alerts = append(res.Alerts, rule(ctx)...)
	}

	for _, a := range res.Alerts {
		switch a.Rule {
		case domain.RuleHighValue:
			res.HighValue = a.Level
		case domain.RuleFrequency:
			res.Frequency = true
		}
		e.metrics.RecordAlert(a.Rule, a.Level)
	}
	return res
}

// Search finds the user whose account number matches query exactly,
// ignoring case and surrounding whitespace, and evaluates the rules for it.
func (e *Engine) Search(users []domain.User, query string) SearchResult {
	q := strings.TrimSpace(query)
	out := SearchResult{Query: q}

	if q != "" {
		for i := range users {
			if strings.EqualFold(users[i].AccountNumber, q) {
				u := users[i]
				res := e.Evaluate(&u)
				out.Found, out.User, out.Result = true, &u, &res
				break
			}
		}
	}

	e.metrics.RecordSearch(out.Found)
	return out
}

// ─── Rule context ─────────────────────────────────────────────────────────────

// ruleContext bundles the user with the values every rule needs, so income
// parsing and transaction flattening happen once per evaluation.
type ruleContext struct {
	user       *domain.User
	th         domain.Thresholds
	income     int64
	all        []domain.Transaction // credits then debits
	normalized bool
}

func (e *Engine) buildContext(u *domain.User) *ruleContext {
	return &ruleContext{
		user:       u,
		th:         e.thresholds,
		income:     u.AnnualIncome.Int64(),
		all:        u.AllTransactions(),
		normalized: e.NormalizeFrequencyDates,
	}
}

// ─── Rule 1: High value ───────────────────────────────────────────────────────

type datedTx struct {
	amount int64
	date   time.Time
}

func ruleHighValue(ctx *ruleContext) []domain.Alert {
	if ctx.income >= ctx.th.WealthyCutoff {
		return nil
	}

	var high []datedTx
	for _, tx := range ctx.all {
		if tx.Amount.Int64() <= ctx.th.FraudThreshold {
			continue
		}
		d, ok := domain.ParseDate(tx.Date)
		if !ok {
			continue
		}
		high = append(high, datedTx{amount: tx.Amount.Int64(), date: d})
	}
	if len(high) == 0 {
		return nil
	}

	sort.SliceStable(high, func(i, j int) bool {
		return high[i].date.Before(high[j].date)
	})

	for i := 1; i < len(high); i++ {
		if domain.DaysBetween(high[i-1].date, high[i].date) == 1 {
			return []domain.Alert{{
				Rule:    domain.RuleHighValue,
				Level:   domain.LevelRed,
				Message: "High-value transactions on consecutive dates!",
				Count:   len(high),
			}}
		}
	}

	return []domain.Alert{{
		Rule:    domain.RuleHighValue,
		Level:   domain.LevelYellow,
		Message: fmt.Sprintf("%d high-value transactions detected.", len(high)),
		Count:   len(high),
	}}
}

// ─── Rule 2: Same-day frequency ───────────────────────────────────────────────

func ruleFrequency(ctx *ruleContext) []domain.Alert {
	if ctx.income >= ctx.th.FraudThreshold {
		return nil
	}

	counts := make(map[string]int)
	var order []string
	for _, tx := range ctx.all {
		key := bucketKey(tx.Date, ctx.normalized)
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}

	// Report the busiest day; ties go to the one seen first.
	best := -1
	for i, key := range order {
		if best < 0 || counts[key] > counts[order[best]] {
			best = i
		}
	}
	if best < 0 || counts[order[best]] <= ctx.th.SameDayLimit {
		return nil
	}
	busiest := order[best]

	return []domain.Alert{{
		Rule:    domain.RuleFrequency,
		Level:   domain.LevelBlue,
		Message: fmt.Sprintf("Fraud Alert: More than %d transactions detected on a single day!", ctx.th.SameDayLimit),
		Count:   counts[busiest],
		Date:    busiest,
	}}
}

// bucketKey returns the grouping key for a transaction date. Without
// normalisation it is the raw text; with it, parsable dates collapse to
// yyyy-mm-dd and the rest keep their raw text.
func bucketKey(raw string, normalized bool) string {
	if !normalized {
		return raw
	}
	if d, ok := domain.ParseDate(raw); ok {
		return domain.FormatDate(d)
	}
	return raw
}
