// Package domain contains all core types used across the application.
// Keeping domain types in one place makes the alert rules easy to reason about.
package domain

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ─── Constants ───────────────────────────────────────────────────────────────

// Transaction directions, named after the dataset fields they append to.
const (
	DirectionCredits = "credits"
	DirectionDebits  = "debits"
)

// Alert levels. The high-value rule yields none, yellow or red; the
// same-day frequency rule is shown in blue.
const (
	LevelNone   = "none"
	LevelYellow = "yellow"
	LevelRed    = "red"
	LevelBlue   = "blue"
)

// Rule identifiers used in alert payloads and metrics labels.
const (
	RuleHighValue = "high_value"
	RuleFrequency = "frequency"
)

// ─── Thresholds ──────────────────────────────────────────────────────────────

// Thresholds is the single source of truth for every amount and income
// cutoff. The generator, the report builder and the alert engine all receive
// the same value; none of them keeps its own copy of these numbers.
type Thresholds struct {
	FraudThreshold int64 `json:"fraud_threshold"` // high-value amount and rule B / report income ceiling
	WealthyCutoff  int64 `json:"wealthy_cutoff"`  // rule A income ceiling
	SameDayLimit   int   `json:"same_day_limit"`  // rule B fires when a day has more than this many
	MaxAmount      int64 `json:"max_amount"`      // generated amounts are in [0, MaxAmount)
}

// DefaultThresholds returns the stock values (4.90 lakh / 5 lakh / 2 / 10 lakh).
func DefaultThresholds() Thresholds {
	return Thresholds{
		FraudThreshold: 490_000,
		WealthyCutoff:  500_000,
		SameDayLimit:   2,
		MaxAmount:      1_000_000,
	}
}

// Validate reports whether every threshold is usable.
func (t Thresholds) Validate() error {
	switch {
	case t.FraudThreshold <= 0:
		return errors.New("fraud_threshold must be positive")
	case t.WealthyCutoff <= 0:
		return errors.New("wealthy_cutoff must be positive")
	case t.SameDayLimit <= 0:
		return errors.New("same_day_limit must be positive")
	case t.MaxAmount <= 0:
		return errors.New("max_amount must be positive")
	}
	return nil
}

// ─── Core domain types ────────────────────────────────────────────────────────

// Transaction is a single credit or debit. Date is kept exactly as written in
// the dataset; use ParseDate when calendar semantics are needed.
//
// A transaction read from the dataset is written back exactly as it was read,
// extra keys included. Transactions are never edited after they are appended.
type Transaction struct {
	Amount Amount `json:"amount"`
	Date   string `json:"date"`

	raw json.RawMessage
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	obj, err := decodeObject(data)
	if err != nil && !errors.Is(err, errNotObject) {
		return err
	}
	*t = Transaction{raw: compact(data)}
	for _, f := range obj {
		switch f.key {
		case "amount":
			_ = t.Amount.UnmarshalJSON(f.value)
		case "date":
			t.Date = looseString(f.value)
		}
	}
	return nil
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	if t.raw != nil {
		return t.raw, nil
	}
	type plain Transaction
	return marshal(plain(t))
}

// User is one bank-account record of the dataset file.
type User struct {
	AccountNumber    string `json:"account_number"`
	Username         string `json:"username"`
	Contact          string `json:"contact"`
	Address          string `json:"address"`
	Profession       string `json:"profession,omitempty"`
	AnnualIncome     Amount `json:"annual_income,omitzero"`
	MonthlyTransacts Amount `json:"monthly_transacts,omitzero"`
	Credits          Ledger `json:"credits,omitzero"`
	Debits           Ledger `json:"debits,omitzero"`

	raw    rawObject       // members as read; nil for records built in code
	opaque json.RawMessage // set when the record is not a JSON object
}

// UnmarshalJSON decodes a record leniently. Text fields accept numbers,
// amounts accept numeric strings, and a record that is not an object is kept
// as-is with no usable ledgers. Nothing in a record makes decoding fail.
func (u *User) UnmarshalJSON(data []byte) error {
	obj, err := decodeObject(data)
	if errors.Is(err, errNotObject) {
		*u = User{opaque: compact(data)}
		return nil
	}
	if err != nil {
		return err
	}

	*u = User{raw: obj}
	for _, f := range obj {
		switch f.key {
		case "account_number":
			u.AccountNumber = looseString(f.value)
		case "username":
			u.Username = looseString(f.value)
		case "contact":
			u.Contact = looseString(f.value)
		case "address":
			u.Address = looseString(f.value)
		case "profession":
			u.Profession = looseString(f.value)
		case "annual_income":
			_ = u.AnnualIncome.UnmarshalJSON(f.value)
		case "monthly_transacts":
			_ = u.MonthlyTransacts.UnmarshalJSON(f.value)
		case "credits":
			if err := u.Credits.UnmarshalJSON(f.value); err != nil {
				return err
			}
		case "debits":
			if err := u.Debits.UnmarshalJSON(f.value); err != nil {
				return err
			}
		}
	}
	return nil
}

// MarshalJSON writes a decoded record back with its original members in
// their original order; only the two ledgers are re-encoded. Records built in
// code use the struct tags.
func (u User) MarshalJSON() ([]byte, error) {
	if u.opaque != nil {
		return u.opaque, nil
	}
	if u.raw == nil {
		type plain User
		return marshal(plain(u))
	}

	obj := u.raw
	for _, key := range []string{DirectionCredits, DirectionDebits} {
		l := u.Ledger(key)
		if _, present := obj.lookup(key); !present && l.IsZero() {
			continue
		}
		v, err := l.MarshalJSON()
		if err != nil {
			return nil, err
		}
		obj = obj.with(key, v)
	}
	return obj.encode()
}

// Ledger returns the credits or debits ledger for a direction.
func (u *User) Ledger(direction string) *Ledger {
	switch direction {
	case DirectionCredits:
		return &u.Credits
	case DirectionDebits:
		return &u.Debits
	}
	return nil
}

// AllTransactions returns credits followed by debits.
func (u *User) AllTransactions() []Transaction {
	all := make([]Transaction, 0, len(u.Credits.Entries)+len(u.Debits.Entries))
	all = append(all, u.Credits.Entries...)
	return append(all, u.Debits.Entries...)
}

// Ledger is an ordered, append-only list of transactions. A dataset field
// that is present but is not a JSON array is preserved verbatim so it can be
// written back untouched; such a ledger reports IsSequence() == false.
type Ledger struct {
	Entries []Transaction

	raw     json.RawMessage
	invalid bool
}

// NewLedger builds a valid ledger from transactions.
func NewLedger(txs ...Transaction) Ledger {
	if txs == nil {
		txs = []Transaction{}
	}
	return Ledger{Entries: txs}
}

// IsSequence reports whether the underlying field was a JSON array (or the
// ledger was built with NewLedger). Absent, null and scalar fields are not.
func (l *Ledger) IsSequence() bool { return !l.invalid && l.Entries != nil }

// IsZero reports whether the field was absent from the source document.
func (l Ledger) IsZero() bool { return l.Entries == nil && l.raw == nil && !l.invalid }

// Append adds a transaction to the end of the ledger.
func (l *Ledger) Append(tx Transaction) { l.Entries = append(l.Entries, tx) }

func (l *Ledger) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []Transaction
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return err
		}
		*l = Ledger{Entries: entries}
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return err
	}
	*l = Ledger{raw: buf.Bytes(), invalid: true}
	return nil
}

func (l Ledger) MarshalJSON() ([]byte, error) {
	if l.invalid {
		return l.raw, nil
	}
	if l.Entries == nil {
		return []byte("[]"), nil
	}
	return marshal(l.Entries)
}

// ─── Reporting ────────────────────────────────────────────────────────────────

// FraudReportEntry is one row of the derived fraud report.
type FraudReportEntry struct {
	AccountNumber   string `json:"fraud_account_number"`
	AccountHolder   string `json:"fraud_accnt_holder"`
	TotalFraudMoney int64  `json:"total_fraud_money"`
}

// ─── Alerts ───────────────────────────────────────────────────────────────────

// Alert is a single rule outcome shown next to a searched account.
type Alert struct {
	Rule    string `json:"rule"`    // high_value | frequency
	Level   string `json:"level"`   // yellow | red for high_value, blue for frequency
	Message string `json:"message"` // human-readable
	Count   int    `json:"count,omitempty"`
	Date    string `json:"date,omitempty"` // busiest day, frequency rule only
}
