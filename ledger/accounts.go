package ledger

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// ACCOUNT LEDGER - Chart of accounts and running balances
// =============================================================================

// AccountLedger holds the chart of accounts. Accounts are never created by
// postings and never deleted; ApplyDelta is the only balance mutator.
//
// Not safe for concurrent use on its own: the Engine's write lock guards it.
type AccountLedger struct {
	accounts []Account
	index    map[AccountCode]int
}

// NewAccountLedger creates a ledger seeded with the given accounts.
// Duplicate codes keep the first occurrence.
func NewAccountLedger(chart []Account) *AccountLedger {
	l := &AccountLedger{
		accounts: make([]Account, 0, len(chart)),
		index:    make(map[AccountCode]int, len(chart)),
	}
	for _, acc := range chart {
		if _, exists := l.index[acc.Code]; exists {
			continue
		}
		acc.Balance = RoundMoney(acc.Balance)
		l.index[acc.Code] = len(l.accounts)
		l.accounts = append(l.accounts, acc)
	}
	return l
}

// GetByCode returns the account with the given code.
func (l *AccountLedger) GetByCode(code AccountCode) (Account, bool) {
	i, ok := l.index[code]
	if !ok {
		return Account{}, false
	}
	return l.accounts[i], true
}

// Balance returns the balance of code, or zero if the account is unknown.
func (l *AccountLedger) Balance(code AccountCode) decimal.Decimal {
	acc, _ := l.GetByCode(code)
	return acc.Balance
}

// ApplyDelta adds delta to the account's balance.
func (l *AccountLedger) ApplyDelta(code AccountCode, delta decimal.Decimal) (Account, error) {
	i, ok := l.index[code]
	if !ok {
		return Account{}, &UnknownAccountError{Code: code}
	}
	l.accounts[i].Balance = RoundMoney(l.accounts[i].Balance.Add(delta))
	return l.accounts[i], nil
}

// ApplyDeltas applies every delta or none: all codes are resolved before the
// first balance changes.
func (l *AccountLedger) ApplyDeltas(deltas []Delta) error {
	if err := l.Resolve(deltaCodes(deltas)...); err != nil {
		return err
	}
	for _, d := range deltas {
		if _, err := l.ApplyDelta(d.AccountCode, d.Amount); err != nil {
			return err
		}
	}
	return nil
}

// Resolve fails with UnknownAccountError on the first code not in the chart.
func (l *AccountLedger) Resolve(codes ...AccountCode) error {
	for _, code := range codes {
		if _, ok := l.index[code]; !ok {
			return &UnknownAccountError{Code: code}
		}
	}
	return nil
}

// List returns a copy of all accounts in chart order.
func (l *AccountLedger) List() []Account {
	result := make([]Account, len(l.accounts))
	copy(result, l.accounts)
	return result
}

func deltaCodes(deltas []Delta) []AccountCode {
	codes := make([]AccountCode, len(deltas))
	for i, d := range deltas {
		codes[i] = d.AccountCode
	}
	return codes
}
