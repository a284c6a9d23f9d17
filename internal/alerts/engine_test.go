package alerts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/fraud-monitor/internal/alerts"
	"sentinel/fraud-monitor/internal/domain"
	"sentinel/fraud-monitor/internal/metrics"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

func newEngine() *alerts.Engine {
	return alerts.New(domain.DefaultThresholds(), nil)
}

func tx(amount int64, date string) domain.Transaction {
	return domain.Transaction{Amount: domain.Amount(amount), Date: date}
}

// baseUser returns a low-income user with no transactions.
func baseUser(acct string) *domain.User {
	return &domain.User{
		AccountNumber: acct,
		Username:      "Test User",
		AnnualIncome:  300_000,
		Credits:       domain.NewLedger(),
		Debits:        domain.NewLedger(),
	}
}

func alertFor(res alerts.Result, rule string) (domain.Alert, bool) {
	for _, a := range res.Alerts {
		if a.Rule == rule {
			return a, true
		}
	}
	return domain.Alert{}, false
}

type countingRecorder struct {
	metrics.NoOp
	alerts   map[string]int
	searches map[bool]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{alerts: map[string]int{}, searches: map[bool]int{}}
}

func (c *countingRecorder) RecordAlert(rule, level string) { c.alerts[rule+"/"+level]++ }
func (c *countingRecorder) RecordSearch(found bool)        { c.searches[found]++ }

// ─── Rule 1: High value ───────────────────────────────────────────────────────

func TestHighValue_NoQualifyingTransactions_NoAlert(t *testing.T) {
	u := baseUser("A")
	u.Credits = domain.NewLedger(tx(490_000, "2024-01-10"), tx(100, "2024-01-11"))

	res := newEngine().Evaluate(u)
	assert.Equal(t, domain.LevelNone, res.HighValue)
	_, found := alertFor(res, domain.RuleHighValue)
	assert.False(t, found)
}

func TestHighValue_ConsecutiveDays_Red(t *testing.T) {
	u := baseUser("A")
	u.Credits = domain.NewLedger(tx(500_000, "2024-01-10"))
	u.Debits = domain.NewLedger(tx(600_000, "2024-01-11"))

	res := newEngine().Evaluate(u)
	assert.Equal(t, domain.LevelRed, res.HighValue)

	a, ok := alertFor(res, domain.RuleHighValue)
	require.True(t, ok)
	assert.Contains(t, a.Message, "consecutive dates")
}

func TestHighValue_ThreeDaysApart_YellowWithCount(t *testing.T) {
	u := baseUser("A")
	u.Credits = domain.NewLedger(tx(500_000, "2024-01-10"), tx(700_000, "2024-01-13"))

	res := newEngine().Evaluate(u)
	assert.Equal(t, domain.LevelYellow, res.HighValue)

	a, ok := alertFor(res, domain.RuleHighValue)
	require.True(t, ok)
	assert.Equal(t, 2, a.Count)
	assert.Equal(t, "2 high-value transactions detected.", a.Message)
}

func TestHighValue_MixedDateFormatsAreComparedAsCalendarDays(t *testing.T) {
	u := baseUser("A")
	u.Credits = domain.NewLedger(tx(500_000, "2024-01-11"), tx(500_000, "10/01/2024"))

	res := newEngine().Evaluate(u)
	assert.Equal(t, domain.LevelRed, res.HighValue, "insertion order is not date order")
}

func TestHighValue_AcrossMonthBoundary_Red(t *testing.T) {
	u := baseUser("A")
	u.Credits = domain.NewLedger(tx(500_000, "31/01/2024"), tx(500_000, "2024-02-01"))
	assert.Equal(t, domain.LevelRed, newEngine().Evaluate(u).HighValue)
}

func TestHighValue_SameDay_NotConsecutive(t *testing.T) {
	u := baseUser("A")
	u.Credits = domain.NewLedger(tx(500_000, "2024-01-10"), tx(500_000, "2024-01-10"))
	assert.Equal(t, domain.LevelYellow, newEngine().Evaluate(u).HighValue)
}

func TestHighValue_UnparseableDatesAreDropped(t *testing.T) {
	u := baseUser("A")
	u.Credits = domain.NewLedger(tx(500_000, "someday"), tx(500_000, "2024-01-10"), tx(500_000, ""))

	res := newEngine().Evaluate(u)
	a, ok := alertFor(res, domain.RuleHighValue)
	require.True(t, ok)
	assert.Equal(t, domain.LevelYellow, a.Level)
	assert.Equal(t, 1, a.Count, "only the dated transaction counts")
}

func TestHighValue_AllDatesUnparseable_NoAlert(t *testing.T) {
	u := baseUser("A")
	u.Credits = domain.NewLedger(tx(500_000, "n/a"))
	assert.Equal(t, domain.LevelNone, newEngine().Evaluate(u).HighValue)
}

func TestHighValue_WealthyUserSuppressed(t *testing.T) {
	for _, income := range []domain.Amount{500_000, 750_000} {
		u := baseUser("A")
		u.AnnualIncome = income
		u.Credits = domain.NewLedger(tx(900_000, "2024-01-10"), tx(900_000, "2024-01-11"))

		res := newEngine().Evaluate(u)
		assert.Equal(t, domain.LevelNone, res.HighValue, "income %d", income)
	}
}

func TestHighValue_IncomeBetweenThresholds_StillAlerts(t *testing.T) {
	u := baseUser("A")
	u.AnnualIncome = 495_000 // above fraud threshold, below wealthy cutoff
	u.Credits = domain.NewLedger(tx(900_000, "2024-01-10"))

	res := newEngine().Evaluate(u)
	assert.Equal(t, domain.LevelYellow, res.HighValue)
	assert.False(t, res.Frequency)
}

// ─── Rule 2: Frequency ────────────────────────────────────────────────────────

func TestFrequency_FourOnSameDay_Alerts(t *testing.T) {
	u := baseUser("A")
	u.Credits = domain.NewLedger(tx(10, "2024-02-01"), tx(20, "2024-02-01"))
	u.Debits = domain.NewLedger(tx(30, "2024-02-01"), tx(40, "2024-02-01"))

	res := newEngine().Evaluate(u)
	assert.True(t, res.Frequency)

	a, ok := alertFor(res, domain.RuleFrequency)
	require.True(t, ok)
	assert.Equal(t, domain.LevelBlue, a.Level)
	assert.Equal(t, 4, a.Count)
	assert.Equal(t, "2024-02-01", a.Date)
	assert.Contains(t, a.Message, "More than 2 transactions")
}

func TestFrequency_TwoOnSameDay_NoAlert(t *testing.T) {
	u := baseUser("A")
	u.Credits = domain.NewLedger(tx(10, "2024-02-01"))
	u.Debits = domain.NewLedger(tx(30, "2024-02-01"))

	assert.False(t, newEngine().Evaluate(u).Frequency)
}

func TestFrequency_ExactlyThree_Alerts(t *testing.T) {
	u := baseUser("A")
	u.Credits = domain.NewLedger(tx(1, "2024-02-01"), tx(1, "2024-02-01"), tx(1, "2024-02-01"))
	assert.True(t, newEngine().Evaluate(u).Frequency)
}

func TestFrequency_HighIncomeSuppressed(t *testing.T) {
	u := baseUser("A")
	u.AnnualIncome = 490_000
	u.Credits = domain.NewLedger(tx(1, "2024-02-01"), tx(1, "2024-02-01"), tx(1, "2024-02-01"), tx(1, "2024-02-01"))

	assert.False(t, newEngine().Evaluate(u).Frequency)
}

func TestFrequency_RawDateGroupingByDefault(t *testing.T) {
	u := baseUser("A")
	u.Credits = domain.NewLedger(tx(1, "2024-02-01"), tx(1, "01/02/2024"), tx(1, "2024-02-01"))

	assert.False(t, newEngine().Evaluate(u).Frequency, "different spellings are different buckets")
}

func TestFrequency_NormalizedGrouping(t *testing.T) {
	u := baseUser("A")
	u.Credits = domain.NewLedger(tx(1, "2024-02-01"), tx(1, "01/02/2024"), tx(1, "1/2/2024"))

	e := newEngine()
	e.NormalizeFrequencyDates = true

	res := e.Evaluate(u)
	require.True(t, res.Frequency)
	a, _ := alertFor(res, domain.RuleFrequency)
	assert.Equal(t, "2024-02-01", a.Date)
}

func TestFrequency_UnparseableDatesStillCountUnderRawKey(t *testing.T) {
	u := baseUser("A")
	u.Credits = domain.NewLedger(tx(1, "soon"), tx(1, "soon"), tx(1, "soon"))

	for _, normalized := range []bool{false, true} {
		e := newEngine()
		e.NormalizeFrequencyDates = normalized
		assert.True(t, e.Evaluate(u).Frequency, "normalized=%v", normalized)
	}
}

func TestFrequency_UsesConfiguredLimit(t *testing.T) {
	th := domain.DefaultThresholds()
	th.SameDayLimit = 4
	u := baseUser("A")
	u.Credits = domain.NewLedger(tx(1, "d"), tx(1, "d"), tx(1, "d"), tx(1, "d"))

	assert.False(t, alerts.New(th, nil).Evaluate(u).Frequency)
}

// ─── Both rules ───────────────────────────────────────────────────────────────

func TestEvaluate_BothRulesIndependent(t *testing.T) {
	u := baseUser("A")
	u.Credits = domain.NewLedger(tx(500_000, "2024-02-01"), tx(500_000, "2024-02-02"), tx(5, "2024-02-01"))
	u.Debits = domain.NewLedger(tx(5, "2024-02-01"))

	res := newEngine().Evaluate(u)
	assert.Equal(t, domain.LevelRed, res.HighValue)
	assert.True(t, res.Frequency)
	assert.Len(t, res.Alerts, 2)
}

func TestEvaluate_MissingLedgersYieldNothing(t *testing.T) {
	u := &domain.User{AccountNumber: "A"}
	res := newEngine().Evaluate(u)
	assert.Equal(t, domain.LevelNone, res.HighValue)
	assert.False(t, res.Frequency)
	assert.NotNil(t, res.Alerts)
	assert.Empty(t, res.Alerts)
}

func TestEvaluate_RecordsMetrics(t *testing.T) {
	rec := newCountingRecorder()
	e := alerts.New(domain.DefaultThresholds(), rec)

	u := baseUser("A")
	u.Credits = domain.NewLedger(tx(500_000, "2024-01-10"))
	e.Evaluate(u)
	e.Evaluate(u)

	assert.Equal(t, 2, rec.alerts["high_value/yellow"], "no memoisation between evaluations")
}

// ─── Search ───────────────────────────────────────────────────────────────────

func TestSearch_CaseInsensitiveExactMatch(t *testing.T) {
	users := []domain.User{*baseUser("ACC1001"), *baseUser("ACC10011")}
	users[0].Credits = domain.NewLedger(tx(500_000, "2024-01-10"))

	got := newEngine().Search(users, "  acc1001 ")
	require.True(t, got.Found)
	assert.Equal(t, "ACC1001", got.User.AccountNumber)
	require.NotNil(t, got.Result)
	assert.Equal(t, domain.LevelYellow, got.Result.HighValue)
}

func TestSearch_NoPartialMatch(t *testing.T) {
	users := []domain.User{*baseUser("ACC1001")}
	got := newEngine().Search(users, "ACC100")
	assert.False(t, got.Found)
}

func TestSearch_Miss_SuppressesRules(t *testing.T) {
	rec := newCountingRecorder()
	e := alerts.New(domain.DefaultThresholds(), rec)

	u := baseUser("ACC1")
	u.Credits = domain.NewLedger(tx(500_000, "2024-01-10"), tx(1, "2024-01-10"), tx(1, "2024-01-10"))

	got := e.Search([]domain.User{*u}, "ACC2")
	assert.False(t, got.Found)
	assert.Nil(t, got.User)
	assert.Nil(t, got.Result)
	assert.Equal(t, "ACC2", got.Query)
	assert.Empty(t, rec.alerts)
	assert.Equal(t, 1, rec.searches[false])
}

func TestSearch_EmptyQueryNeverMatches(t *testing.T) {
	users := []domain.User{{AccountNumber: ""}}
	assert.False(t, newEngine().Search(users, "   ").Found)
}

func TestSearch_DoesNotAliasDataset(t *testing.T) {
	users := []domain.User{*baseUser("A")}
	got := newEngine().Search(users, "A")
	require.True(t, got.Found)

	got.User.Username = "changed"
	assert.Equal(t, "Test User", users[0].Username)
}

// ─── Series ───────────────────────────────────────────────────────────────────

func TestSeries(t *testing.T) {
	u := baseUser("A")
	u.Credits = domain.NewLedger(tx(500_000, "2024-01-10"), tx(10, "2024-01-11"))
	u.Debits = domain.NewLedger(tx(20, "12/01/2024"))

	s := newEngine().Series(u)
	assert.Equal(t, []string{"2024-01-10", "2024-01-11", "12/01/2024"}, s.Labels)
	assert.Equal(t, []int64{500_000, 10}, s.Credits)
	assert.Equal(t, []int64{20}, s.Debits)
	assert.Equal(t, []string{"2024-01-10"}, s.HighValueDates)
}
