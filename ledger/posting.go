/*
posting.go - Posting Rules Engine

PURPOSE:
  Translates a business event into the ordered, balanced set of journal
  lines it requires, and into the balance deltas those lines imply. The
  functions here are pure: they read nothing but their arguments (and the
  chart, to learn each account's normal balance) and mutate nothing.

RULES (amounts already aggregated from line items):

  Sale (amount, cogs):
    Dr Cash / Accounts Receivable   amount   (cash / credit sale)
    Cr Sales Revenue                amount
    Dr Cost of Goods Sold           cogs
    Cr Inventory                    cogs
    Roll-up: Share Capital += amount - cogs

  Collection (amount):
    Dr Cash                         amount
    Cr Accounts Receivable          amount

  Sales Return (amount, cogs, original payment method):
    Dr Sales Returns & Allowances   amount
    Cr Cash / Accounts Receivable   amount
    Dr Inventory                    cogs
    Cr Cost of Goods Sold           cogs
    Roll-up: Share Capital -= amount - cogs

SHARE CAPITAL ROLL-UP:
  Net income is folded straight into Share Capital on every sale and
  return. The roll-up is a balance mutation, NOT a journal line, so the
  journal alone does not explain the Share Capital balance. There is no
  retained-earnings or income-summary account; keep it that way unless
  the product asks for one.

SEE ALSO:
  - chart.go: account codes and normal balances
  - journal.go: the balance guard applied on append
*/
package ledger

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// POSTING SET
// =============================================================================

// PostingLine is one (account, debit, credit) tuple of a posting set.
type PostingLine struct {
	AccountCode AccountCode
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// Delta is a change to an account balance in its natural direction.
type Delta struct {
	AccountCode AccountCode
	Amount      decimal.Decimal
}

// PostingSet is the full accounting effect of one business event.
type PostingSet struct {
	Type  TransactionType
	Lines []PostingLine

	// RollUps are direct balance changes with no journal line behind them.
	RollUps []Delta
}

func debit(code AccountCode, amount decimal.Decimal) PostingLine {
	return PostingLine{AccountCode: code, Debit: amount, Credit: decimal.Zero}
}

func credit(code AccountCode, amount decimal.Decimal) PostingLine {
	return PostingLine{AccountCode: code, Debit: decimal.Zero, Credit: amount}
}

// Totals returns the debit and credit sums of the journal lines.
func (s PostingSet) Totals() (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, l := range s.Lines {
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	return debits, credits
}

// IsBalanced reports whether debits equal credits within Tolerance.
func (s PostingSet) IsBalanced() bool {
	d, c := s.Totals()
	return ApproxEqual(d, c)
}

// Deltas returns the balance change of every journal line followed by the
// roll-ups. Fails with UnknownAccountError if a line names an account that
// is not in the chart.
func (s PostingSet) Deltas(accounts *AccountLedger) ([]Delta, error) {
	deltas := make([]Delta, 0, len(s.Lines)+len(s.RollUps))
	for _, l := range s.Lines {
		acc, ok := accounts.GetByCode(l.AccountCode)
		if !ok {
			return nil, &UnknownAccountError{Code: l.AccountCode}
		}
		deltas = append(deltas, Delta{
			AccountCode: l.AccountCode,
			Amount:      naturalDelta(acc.NormalBalance, l.Debit, l.Credit),
		})
	}
	for _, r := range s.RollUps {
		if _, ok := accounts.GetByCode(r.AccountCode); !ok {
			return nil, &UnknownAccountError{Code: r.AccountCode}
		}
		deltas = append(deltas, r)
	}
	return deltas, nil
}

// Entries converts the lines into journal entries, snapshotting each
// account's current name.
func (s PostingSet) Entries(accounts *AccountLedger) ([]JournalEntry, error) {
	entries := make([]JournalEntry, len(s.Lines))
	for i, l := range s.Lines {
		acc, ok := accounts.GetByCode(l.AccountCode)
		if !ok {
			return nil, &UnknownAccountError{Code: l.AccountCode}
		}
		entries[i] = JournalEntry{
			AccountCode:  l.AccountCode,
			AccountName:  acc.Name,
			DebitAmount:  l.Debit,
			CreditAmount: l.Credit,
		}
	}
	return entries, nil
}

// =============================================================================
// RULES
// =============================================================================

// SalePostings builds the posting set for a sale of amount at cost cogs.
func SalePostings(method PaymentMethod, amount, cogs decimal.Decimal) (PostingSet, error) {
	if err := requirePositive("amount", amount); err != nil {
		return PostingSet{}, err
	}
	if err := requirePositive("cogs", cogs); err != nil {
		return PostingSet{}, err
	}
	if err := requireMethod(method); err != nil {
		return PostingSet{}, err
	}
	amount, cogs = RoundMoney(amount), RoundMoney(cogs)

	return PostingSet{
		Type: TxSale,
		Lines: []PostingLine{
			debit(settlementAccount(method), amount),
			credit(CodeSalesRevenue, amount),
			debit(CodeCOGS, cogs),
			credit(CodeInventory, cogs),
		},
		RollUps: []Delta{
			{AccountCode: CodeShareCapital, Amount: amount.Sub(cogs)},
		},
	}, nil
}

// CollectionPostings builds the posting set for cash received on account.
// The outstanding-amount check belongs to the caller, which owns the invoice.
func CollectionPostings(amount decimal.Decimal) (PostingSet, error) {
	if err := requirePositive("amount", amount); err != nil {
		return PostingSet{}, err
	}
	amount = RoundMoney(amount)

	return PostingSet{
		Type: TxCollection,
		Lines: []PostingLine{
			debit(CodeCash, amount),
			credit(CodeAccountsReceivable, amount),
		},
	}, nil
}

// ReturnPostings builds the posting set for a sales return against a sale
// originally settled with originalMethod.
func ReturnPostings(originalMethod PaymentMethod, amount, cogs decimal.Decimal) (PostingSet, error) {
	if err := requirePositive("amount", amount); err != nil {
		return PostingSet{}, err
	}
	if err := requirePositive("cogs", cogs); err != nil {
		return PostingSet{}, err
	}
	if err := requireMethod(originalMethod); err != nil {
		return PostingSet{}, err
	}
	amount, cogs = RoundMoney(amount), RoundMoney(cogs)

	return PostingSet{
		Type: TxReturn,
		Lines: []PostingLine{
			debit(CodeSalesReturns, amount),
			credit(settlementAccount(originalMethod), amount),
			debit(CodeInventory, cogs),
			credit(CodeCOGS, cogs),
		},
		RollUps: []Delta{
			{AccountCode: CodeShareCapital, Amount: cogs.Sub(amount)},
		},
	}, nil
}

func requirePositive(field string, d decimal.Decimal) error {
	if !RoundMoney(d).IsPositive() {
		return newValidationError(field, "must be greater than zero")
	}
	return nil
}

func requireMethod(m PaymentMethod) error {
	if m != PaymentCash && m != PaymentCredit {
		return newValidationError("paymentMethod", "must be cash or credit")
	}
	return nil
}
