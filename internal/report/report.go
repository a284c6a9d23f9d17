// Package report derives the fraud report from the dataset.
//
// The report lists low-income users holding credits above the fraud
// threshold, with the sum of those credits. It is recomputed from scratch on
// every call and never maintained incrementally.
package report

import (
	"fmt"
	"log/slog"

	"sentinel/fraud-monitor/internal/domain"
)

// Build returns one entry per qualifying user, in dataset order.
//
// A user qualifies when annual income is below the fraud threshold and at
// least one credit is strictly above it. The entry total is the sum of those
// credits only. The result is never nil.
func Build(users []domain.User, th domain.Thresholds) []domain.FraudReportEntry {
	entries := []domain.FraudReportEntry{}

	for i := range users {
		u := &users[i]
		if u.AnnualIncome.Int64() >= th.FraudThreshold {
			continue
		}

		var total int64
		var hits int
		for _, tx := range u.Credits.Entries {
			if tx.Amount.Int64() > th.FraudThreshold {
				total += tx.Amount.Int64()
				hits++
			}
		}
		if hits == 0 {
			continue
		}

		entries = append(entries, domain.FraudReportEntry{
			AccountNumber:   u.AccountNumber,
			AccountHolder:   u.Username,
			TotalFraudMoney: total,
		})
	}
	return entries
}

// TotalFraudMoney sums the totals of all entries.
func TotalFraudMoney(entries []domain.FraudReportEntry) int64 {
	var sum int64
	for _, e := range entries {
		sum += e.TotalFraudMoney
	}
	return sum
}

// Sink persists a freshly built report.
type Sink interface {
	Save(entries []domain.FraudReportEntry) error
}

// Listener is told about every successfully persisted report.
type Listener interface {
	ReportUpdated(entries []domain.FraudReportEntry)
}

// Service builds the report and writes it to its sink.
type Service struct {
	sink       Sink
	thresholds domain.Thresholds
	logger     *slog.Logger
	listeners  []Listener
}

// NewService creates a report service. Listeners are notified in order after
// each successful save.
func NewService(sink Sink, th domain.Thresholds, logger *slog.Logger, listeners ...Listener) *Service {
	return &Service{sink: sink, thresholds: th, logger: logger, listeners: listeners}
}

// Regenerate rebuilds the report from users and replaces the stored copy.
// The entries are returned even when saving fails so callers can still use
// them; the dataset is never rolled back on a report failure.
func (s *Service) Regenerate(users []domain.User) ([]domain.FraudReportEntry, error) {
	entries := Build(users, s.thresholds)

	if err := s.sink.Save(entries); err != nil {
		s.logger.Error("fraud report not saved", "accounts", len(entries), "error", err)
		return entries, fmt.Errorf("save fraud report: %w", err)
	}

	s.logger.Info("fraud report updated", "accounts", len(entries), "total_fraud_money", TotalFraudMoney(entries))
	for _, l := range s.listeners {
		l.ReportUpdated(entries)
	}
	return entries, nil
}
