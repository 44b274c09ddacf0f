package ledger

import "github.com/shopspring/decimal"

// Account codes of the fixed chart seeded at initialization.
const (
	CodeCash               AccountCode = "1000"
	CodeAccountsReceivable AccountCode = "1100"
	CodeInventory          AccountCode = "1200"
	CodeAccountsPayable    AccountCode = "2000"
	CodeShareCapital       AccountCode = "3000"
	CodeSalesRevenue       AccountCode = "4000"
	CodeSalesReturns       AccountCode = "4100"
	CodeCOGS               AccountCode = "5000"
)

// DefaultChart returns the eight seeded accounts with zero balances, in code
// order. Sales Returns & Allowances is contra-revenue and increases on debit.
func DefaultChart() []Account {
	return []Account{
		{Code: CodeCash, Name: "Cash", Type: AccountAsset, NormalBalance: NormalDebit},
		{Code: CodeAccountsReceivable, Name: "Accounts Receivable", Type: AccountAsset, NormalBalance: NormalDebit},
		{Code: CodeInventory, Name: "Inventory", Type: AccountAsset, NormalBalance: NormalDebit},
		{Code: CodeAccountsPayable, Name: "Accounts Payable", Type: AccountLiability, NormalBalance: NormalCredit},
		{Code: CodeShareCapital, Name: "Share Capital", Type: AccountEquity, NormalBalance: NormalCredit},
		{Code: CodeSalesRevenue, Name: "Sales Revenue", Type: AccountRevenue, NormalBalance: NormalCredit},
		{Code: CodeSalesReturns, Name: "Sales Returns & Allowances", Type: AccountRevenue, NormalBalance: NormalDebit},
		{Code: CodeCOGS, Name: "Cost of Goods Sold", Type: AccountExpense, NormalBalance: NormalDebit},
	}
}

// settlementAccount is the account a sale is settled to: cash sales hit Cash,
// credit sales hit Accounts Receivable.
func settlementAccount(method PaymentMethod) AccountCode {
	if method == PaymentCash {
		return CodeCash
	}
	return CodeAccountsReceivable
}

// naturalDelta converts a debit/credit pair into a balance change in the
// account's natural direction.
func naturalDelta(normal NormalBalance, debit, credit decimal.Decimal) decimal.Decimal {
	if normal == NormalCredit {
		return credit.Sub(debit)
	}
	return debit.Sub(credit)
}
