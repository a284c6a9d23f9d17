package alerts

import "sentinel/fraud-monitor/internal/domain"

// Series is chart-ready transaction data for one account: labels are the
// credit dates followed by the debit dates, in ledger order.
type Series struct {
	Labels         []string `json:"labels"`
	Credits        []int64  `json:"credits"`
	Debits         []int64  `json:"debits"`
	HighValueDates []string `json:"high_value_dates"`
}

// Series returns the chart data for u. HighValueDates lists the raw dates of
// every transaction above the fraud threshold so a page can highlight them.
func (e *Engine) Series(u *domain.User) Series {
	s := Series{
		Labels:         []string{},
		Credits:        []int64{},
		Debits:         []int64{},
		HighValueDates: []string{},
	}

	add := func(tx domain.Transaction, amounts *[]int64) {
		s.Labels = append(s.Labels, tx.Date)
		*amounts = append(*amounts, tx.Amount.Int64())
		if tx.Amount.Int64() > e.thresholds.FraudThreshold {
			s.HighValueDates = append(s.HighValueDates, tx.Date)
		}
	}

	for _, tx := range u.Credits.Entries {
		add(tx, &s.Credits)
	}
	for _, tx := range u.Debits.Entries {
		add(tx, &s.Debits)
	}
	return s
}
