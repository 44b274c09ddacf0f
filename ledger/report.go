package ledger

import "github.com/shopspring/decimal"

// BalanceSheet is the statement of financial position built from current
// account balances. Share Capital already absorbs net income, so there is no
// retained-earnings line.
type BalanceSheet struct {
	Cash               decimal.Decimal `json:"cash"`
	AccountsReceivable decimal.Decimal `json:"accountsReceivable"`
	Inventory          decimal.Decimal `json:"inventory"`
	TotalAssets        decimal.Decimal `json:"totalAssets"`

	AccountsPayable  decimal.Decimal `json:"accountsPayable"`
	TotalLiabilities decimal.Decimal `json:"totalLiabilities"`

	ShareCapital decimal.Decimal `json:"shareCapital"`
	TotalEquity  decimal.Decimal `json:"totalEquity"`

	TotalLiabilitiesAndEquity decimal.Decimal `json:"totalLiabEquity"`
}

// IsBalanced reports whether assets equal liabilities plus equity.
func (bs BalanceSheet) IsBalanced() bool {
	return ApproxEqual(bs.TotalAssets, bs.TotalLiabilitiesAndEquity)
}

// AccountingStats summarises event records and the income accounts.
type AccountingStats struct {
	TotalSales             decimal.Decimal `json:"totalSales"`
	TotalCollections       decimal.Decimal `json:"totalCollections"`
	TotalReturns           decimal.Decimal `json:"totalReturns"`
	OutstandingReceivables decimal.Decimal `json:"outstandingReceivables"`
	GrossProfit            decimal.Decimal `json:"grossProfit"`
	NetIncome              decimal.Decimal `json:"netIncome"`
}

// BuildBalanceSheet reads the five balance-sheet accounts.
func BuildBalanceSheet(accounts *AccountLedger) BalanceSheet {
	bs := BalanceSheet{
		Cash:               accounts.Balance(CodeCash),
		AccountsReceivable: accounts.Balance(CodeAccountsReceivable),
		Inventory:          accounts.Balance(CodeInventory),
		AccountsPayable:    accounts.Balance(CodeAccountsPayable),
		ShareCapital:       accounts.Balance(CodeShareCapital),
	}
	bs.TotalAssets = RoundMoney(sumDecimals(bs.Cash, bs.AccountsReceivable, bs.Inventory))
	bs.TotalLiabilities = RoundMoney(bs.AccountsPayable)
	bs.TotalEquity = RoundMoney(bs.ShareCapital)
	bs.TotalLiabilitiesAndEquity = RoundMoney(bs.TotalLiabilities.Add(bs.TotalEquity))
	return bs
}

// BuildStats totals the event records and derives profit from the income
// accounts. No expense accounts beyond COGS are modelled, so net income
// equals gross profit.
func BuildStats(accounts *AccountLedger, invoices []SalesInvoice, collections []Collection, returns []SalesReturn) AccountingStats {
	stats := AccountingStats{
		TotalSales:             decimal.Zero,
		TotalCollections:       decimal.Zero,
		TotalReturns:           decimal.Zero,
		OutstandingReceivables: decimal.Zero,
	}
	for _, inv := range invoices {
		stats.TotalSales = stats.TotalSales.Add(inv.TotalAmount)
		stats.OutstandingReceivables = stats.OutstandingReceivables.Add(inv.OutstandingAmount)
	}
	for _, c := range collections {
		stats.TotalCollections = stats.TotalCollections.Add(c.Amount)
	}
	for _, r := range returns {
		stats.TotalReturns = stats.TotalReturns.Add(r.TotalAmount)
	}

	netSales := accounts.Balance(CodeSalesRevenue).Sub(accounts.Balance(CodeSalesReturns))
	stats.GrossProfit = RoundMoney(netSales.Sub(accounts.Balance(CodeCOGS)))
	stats.NetIncome = stats.GrossProfit
	return stats
}
