package report_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/fraud-monitor/internal/domain"
	"sentinel/fraud-monitor/internal/report"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

var th = domain.DefaultThresholds()

func user(acct string, income int64, credits ...int64) domain.User {
	txs := make([]domain.Transaction, len(credits))
	for i, c := range credits {
		txs[i] = domain.Transaction{Amount: domain.Amount(c), Date: "2024-01-10"}
	}
	return domain.User{
		AccountNumber: acct,
		Username:      "holder-" + acct,
		AnnualIncome:  domain.Amount(income),
		Credits:       domain.NewLedger(txs...),
		Debits:        domain.NewLedger(),
	}
}

type memSink struct {
	saved [][]domain.FraudReportEntry
	err   error
}

func (m *memSink) Save(entries []domain.FraudReportEntry) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, entries)
	return nil
}

type recordingListener struct{ calls int }

func (r *recordingListener) ReportUpdated([]domain.FraudReportEntry) { r.calls++ }

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// ─── Build ────────────────────────────────────────────────────────────────────

func TestBuild_LowIncomeWithHighCredit(t *testing.T) {
	got := report.Build([]domain.User{user("A", 400_000, 500_000, 100_000)}, th)

	require.Len(t, got, 1)
	assert.Equal(t, domain.FraudReportEntry{
		AccountNumber:   "A",
		AccountHolder:   "holder-A",
		TotalFraudMoney: 500_000,
	}, got[0])
}

func TestBuild_IncomeAtThresholdIsSkipped(t *testing.T) {
	got := report.Build([]domain.User{
		user("A", 500_000, 500_000, 100_000),
		user("B", 490_000, 900_000),
	}, th)
	assert.Empty(t, got)
}

func TestBuild_CreditEqualToThresholdDoesNotQualify(t *testing.T) {
	got := report.Build([]domain.User{user("A", 0, 490_000)}, th)
	assert.Empty(t, got)
}

func TestBuild_DebitsAreIgnored(t *testing.T) {
	u := user("A", 0)
	u.Debits = domain.NewLedger(domain.Transaction{Amount: 900_000, Date: "2024-01-10"})
	assert.Empty(t, report.Build([]domain.User{u}, th))
}

func TestBuild_SumsEveryQualifyingCredit(t *testing.T) {
	got := report.Build([]domain.User{user("A", 100, 600_000, 700_000, 10)}, th)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1_300_000), got[0].TotalFraudMoney)
}

func TestBuild_PreservesDatasetOrder(t *testing.T) {
	got := report.Build([]domain.User{
		user("Z", 0, 500_000),
		user("skip", 0, 1),
		user("A", 0, 990_000),
	}, th)

	require.Len(t, got, 2)
	assert.Equal(t, "Z", got[0].AccountNumber)
	assert.Equal(t, "A", got[1].AccountNumber)
}

func TestBuild_Idempotent(t *testing.T) {
	users := []domain.User{user("A", 0, 500_000), user("B", 10, 800_000, 1)}
	assert.Equal(t, report.Build(users, th), report.Build(users, th))
}

func TestBuild_EmptyIsNonNil(t *testing.T) {
	got := report.Build(nil, th)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestBuild_UsesSuppliedThresholds(t *testing.T) {
	small := domain.Thresholds{FraudThreshold: 100, WealthyCutoff: 200, SameDayLimit: 2, MaxAmount: 1000}
	got := report.Build([]domain.User{user("A", 50, 150, 90)}, small)
	require.Len(t, got, 1)
	assert.Equal(t, int64(150), got[0].TotalFraudMoney)
}

// ─── Service ──────────────────────────────────────────────────────────────────

func TestService_RegenerateSavesAndNotifies(t *testing.T) {
	sink := &memSink{}
	l := &recordingListener{}
	svc := report.NewService(sink, th, quietLogger(), l)

	entries, err := svc.Regenerate([]domain.User{user("A", 0, 500_000)})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	require.Len(t, sink.saved, 1)
	assert.Equal(t, entries, sink.saved[0])
	assert.Equal(t, 1, l.calls)
}

func TestService_SaveFailureIsReturnedNotFatal(t *testing.T) {
	sink := &memSink{err: errors.New("disk full")}
	l := &recordingListener{}
	svc := report.NewService(sink, th, quietLogger(), l)

	entries, err := svc.Regenerate([]domain.User{user("A", 0, 500_000)})
	assert.Error(t, err)
	assert.Len(t, entries, 1, "entries are still returned")
	assert.Zero(t, l.calls, "listeners only hear about persisted reports")
}

func TestTotalFraudMoney(t *testing.T) {
	assert.Equal(t, int64(30), report.TotalFraudMoney([]domain.FraudReportEntry{
		{TotalFraudMoney: 10}, {TotalFraudMoney: 20},
	}))
}
