package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/bookkeeping-engine/ledger"
	"github.com/warp/bookkeeping-engine/ledger/store"
	"go.uber.org/zap/zaptest"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type testServer struct {
	h      *Handler
	store  *store.Memory
	router http.Handler
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	mem := store.NewMemory()
	return setupWithStore(t, mem, mem)
}

func setupWithStore(t *testing.T, snapshots ledger.SnapshotStore, mem *store.Memory) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	engine := ledger.NewEngine(ledger.WithLogger(logger))
	h := NewHandler(engine, snapshots, logger)
	h.now = func() time.Time { return time.Date(2025, time.March, 10, 15, 30, 0, 0, time.UTC) }
	return &testServer{h: h, store: mem, router: NewRouter(h, DefaultRouterOptions())}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func saleRequest(method string, qty int64, price, cogs string) CreateSaleRequest {
	return CreateSaleRequest{
		CustomerName:  "Acme",
		Date:          "2025-03-10",
		PaymentMethod: method,
		Items: []ItemRequest{{
			Description: "Widget",
			Quantity:    decimal.NewFromInt(qty),
			UnitPrice:   decimal.RequireFromString(price),
			CogsUnit:    decimal.RequireFromString(cogs),
		}},
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

// failingStore accepts loads but refuses every write.
type failingStore struct{}

func (failingStore) Save(context.Context, ledger.Snapshot) error {
	return errors.New("disk full")
}

func (failingStore) Replace(context.Context, ledger.Snapshot) error {
	return errors.New("disk full")
}

func (failingStore) Load(context.Context) (ledger.Snapshot, bool, error) {
	return ledger.Snapshot{}, false, nil
}

// blockingStore pauses the first Replace until release is closed.
type blockingStore struct {
	*store.Memory
	entered chan struct{}
	release chan struct{}
}

func newBlockingStore() *blockingStore {
	return &blockingStore{
		Memory:  store.NewMemory(),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (b *blockingStore) Replace(ctx context.Context, snap ledger.Snapshot) error {
	select {
	case b.entered <- struct{}{}:
	default:
	}
	<-b.release
	return b.Memory.Replace(ctx, snap)
}

func encodeJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

// =============================================================================
// SALES
// =============================================================================

func TestCreateSale_CashSaleIsPaid(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/sales", saleRequest("cash", 2, "100", "40"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	inv := decodeBody[InvoiceDTO](t, rec)
	assert.Equal(t, "INV-000001", inv.InvoiceNumber)
	assert.Equal(t, ledger.InvoicePaid, inv.Status)
	assertDecimal(t, "200", inv.TotalAmount, "total")
	assertDecimal(t, "0", inv.OutstandingAmount, "outstanding")
	require.Len(t, inv.Items, 1)
	assertDecimal(t, "80", inv.Items[0].LineCogs, "line cogs")

	assert.Equal(t, 1, s.store.Saves())
	snap, found, err := s.store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, snap.Invoices, 1)
}

func TestCreateSale_EmptyDateMeansToday(t *testing.T) {
	s := setupTestServer(t)
	req := saleRequest("credit", 1, "50", "20")
	req.Date = ""

	rec := s.do(t, http.MethodPost, "/api/sales", req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	inv := decodeBody[InvoiceDTO](t, rec)
	assert.Equal(t, time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), inv.Date.UTC())
}

func TestCreateSale_ValidationProblem(t *testing.T) {
	s := setupTestServer(t)
	req := saleRequest("cash", 1, "10", "5")
	req.Items = nil

	rec := s.do(t, http.MethodPost, "/api/sales", req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	problem := decodeBody[ProblemDetail](t, rec)
	assert.Equal(t, http.StatusBadRequest, problem.Status)
	assert.NotEmpty(t, problem.Errors)
	assert.Equal(t, 0, s.store.Saves(), "rejected events are not flushed")
}

func TestCreateSale_BadDate(t *testing.T) {
	s := setupTestServer(t)
	req := saleRequest("cash", 1, "10", "5")
	req.Date = "10/03/2025"

	rec := s.do(t, http.MethodPost, "/api/sales", req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	problem := decodeBody[ProblemDetail](t, rec)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "date", problem.Errors[0].Field)
}

func TestCreateSale_MalformedJSON(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/sales", `{"customerName": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSale(t *testing.T) {
	s := setupTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/sales", saleRequest("credit", 3, "10", "4")).Code)

	rec := s.do(t, http.MethodGet, "/api/sales/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	inv := decodeBody[InvoiceDTO](t, rec)
	assert.Equal(t, ledger.InvoiceOpen, inv.Status)
	assert.Len(t, inv.Items, 1)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/sales/99", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/sales/abc", nil).Code)
}

func TestListSales_EmptyIsArray(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/sales", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

// =============================================================================
// COLLECTIONS
// =============================================================================

func TestCreateCollection(t *testing.T) {
	s := setupTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/sales", saleRequest("credit", 2, "100", "40")).Code)

	rec := s.do(t, http.MethodPost, "/api/collections", CreateCollectionRequest{
		InvoiceID: 1, Date: "2025-03-12", Amount: decimal.RequireFromString("50"), PaymentMethod: "bank transfer",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	col := decodeBody[ledger.Collection](t, rec)
	assert.Equal(t, "COL-000001", col.Reference)

	inv := decodeBody[InvoiceDTO](t, s.do(t, http.MethodGet, "/api/sales/1", nil))
	assert.Equal(t, ledger.InvoicePartial, inv.Status)
	assertDecimal(t, "150", inv.OutstandingAmount, "outstanding")

	list := decodeBody[[]ledger.Collection](t, s.do(t, http.MethodGet, "/api/collections", nil))
	assert.Len(t, list, 1)
}

func TestCreateCollection_ExceedsOutstanding(t *testing.T) {
	s := setupTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/sales", saleRequest("credit", 2, "100", "40")).Code)

	rec := s.do(t, http.MethodPost, "/api/collections", CreateCollectionRequest{
		InvoiceID: 1, Date: "2025-03-12", Amount: decimal.RequireFromString("300"), PaymentMethod: "cash",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	inv := decodeBody[InvoiceDTO](t, s.do(t, http.MethodGet, "/api/sales/1", nil))
	assertDecimal(t, "200", inv.OutstandingAmount, "outstanding unchanged")
}

func TestCreateCollection_UnknownInvoice(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/collections", CreateCollectionRequest{
		InvoiceID: 99, Date: "2025-03-12", Amount: decimal.RequireFromString("10"), PaymentMethod: "cash",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// RETURNS
// =============================================================================

func TestCreateReturn(t *testing.T) {
	s := setupTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/sales", saleRequest("cash", 3, "100", "33.33")).Code)

	rec := s.do(t, http.MethodPost, "/api/returns", CreateReturnRequest{
		InvoiceID:  1,
		Date:       "2025-03-11",
		ReturnType: "return",
		Reason:     "damaged",
		Items: []ItemRequest{{
			Description: "Widget",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.RequireFromString("100"),
			CogsUnit:    decimal.RequireFromString("30"),
		}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ret := decodeBody[ReturnDTO](t, rec)
	assert.Equal(t, "RET-000001", ret.ReturnNumber)
	assert.Len(t, ret.Items, 1)

	got := decodeBody[ReturnDTO](t, s.do(t, http.MethodGet, "/api/returns/1", nil))
	assertDecimal(t, "100", got.TotalAmount, "return total")
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/returns/7", nil).Code)

	bs := decodeBody[BalanceSheetDTO](t, s.do(t, http.MethodGet, "/api/reports/balance-sheet", nil))
	assert.True(t, bs.Balanced)
	assertDecimal(t, "200", bs.Cash, "cash")
}

// =============================================================================
// BOOKS & REPORTS
// =============================================================================

func TestBalanceSheetAndStats(t *testing.T) {
	s := setupTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/sales", saleRequest("cash", 2, "100", "40")).Code)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/sales", saleRequest("credit", 1, "500", "200")).Code)

	rec := s.do(t, http.MethodGet, "/api/reports/balance-sheet", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	bs := decodeBody[BalanceSheetDTO](t, rec)
	assert.True(t, bs.Balanced)
	assertDecimal(t, "200", bs.Cash, "cash")
	assertDecimal(t, "500", bs.AccountsReceivable, "receivable")
	assertDecimal(t, "-280", bs.Inventory, "inventory")
	assertDecimal(t, "420", bs.ShareCapital, "share capital")

	stats := decodeBody[ledger.AccountingStats](t, s.do(t, http.MethodGet, "/api/reports/stats", nil))
	assertDecimal(t, "700", stats.TotalSales, "total sales")
	assertDecimal(t, "500", stats.OutstandingReceivables, "outstanding")
	assertDecimal(t, "420", stats.GrossProfit, "gross profit")
}

func TestTransactionsAndJournal(t *testing.T) {
	s := setupTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/sales", saleRequest("cash", 2, "100", "40")).Code)

	txs := decodeBody[[]ledger.Transaction](t, s.do(t, http.MethodGet, "/api/transactions", nil))
	require.Len(t, txs, 1)
	assert.Equal(t, ledger.TxSale, txs[0].Type)

	tx := decodeBody[TransactionDTO](t, s.do(t, http.MethodGet, "/api/transactions/1", nil))
	assert.Len(t, tx.Entries, 4)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/transactions/2", nil).Code)

	entries := decodeBody[[]ledger.JournalEntry](t, s.do(t, http.MethodGet, "/api/journal", nil))
	assert.Len(t, entries, 4)

	accounts := decodeBody[[]ledger.Account](t, s.do(t, http.MethodGet, "/api/accounts", nil))
	assert.Len(t, accounts, 8)
}

func TestExportJournalCSV(t *testing.T) {
	s := setupTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/sales", saleRequest("cash", 2, "100", "40")).Code)

	rec := s.do(t, http.MethodGet, "/api/journal.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, journalCSVHeader, rows[0])

	var debits, credits decimal.Decimal
	for _, row := range rows[1:] {
		assert.Equal(t, "2025-03-10", row[2])
		assert.Equal(t, "INV-000001", row[3])
		debits = debits.Add(decimal.RequireFromString(row[6]))
		credits = credits.Add(decimal.RequireFromString(row[7]))
	}
	assertDecimal(t, "280", debits, "debits")
	assertDecimal(t, "280", credits, "credits")
}

// =============================================================================
// SNAPSHOT
// =============================================================================

func TestSnapshot_ExportImport(t *testing.T) {
	src := setupTestServer(t)
	require.Equal(t, http.StatusCreated, src.do(t, http.MethodPost, "/api/sales", saleRequest("credit", 2, "100", "40")).Code)

	exported := src.do(t, http.MethodGet, "/api/snapshot", nil)
	require.Equal(t, http.StatusOK, exported.Code)

	dst := setupTestServer(t)
	rec := dst.do(t, http.MethodPut, "/api/snapshot", exported.Body.String())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	bs := decodeBody[BalanceSheetDTO](t, rec)
	assert.True(t, bs.Balanced)
	assertDecimal(t, "200", bs.AccountsReceivable, "receivable")

	stored, found, err := dst.store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, stored.Invoices, 1)

	// Ids continue after the imported ones.
	next := decodeBody[InvoiceDTO](t, dst.do(t, http.MethodPost, "/api/sales", saleRequest("cash", 1, "10", "5")))
	assert.Equal(t, "INV-000002", next.InvoiceNumber)
}

func TestSnapshot_ImportRejectsDanglingReference(t *testing.T) {
	s := setupTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/sales", saleRequest("cash", 1, "10", "5")).Code)

	snap := ledger.Snapshot{
		Collections: []ledger.Collection{{
			ID: 1, InvoiceID: 42, Date: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
			Amount: decimal.NewFromInt(5), PaymentMethod: "cash", Reference: "COL-000001",
		}},
	}
	rec := s.do(t, http.MethodPut, "/api/snapshot", snap)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	list := decodeBody[[]ledger.SalesInvoice](t, s.do(t, http.MethodGet, "/api/sales", nil))
	assert.Len(t, list, 1, "state untouched after a rejected import")
}

func TestSnapshot_ImportRejectsTamperedBalance(t *testing.T) {
	src := setupTestServer(t)
	require.Equal(t, http.StatusCreated, src.do(t, http.MethodPost, "/api/sales", saleRequest("cash", 3, "100", "50")).Code)
	snap := src.h.Engine.ExportSnapshot()
	for i := range snap.Accounts {
		if snap.Accounts[i].Code == ledger.CodeCash {
			snap.Accounts[i].Balance = decimal.RequireFromString("999999")
		}
	}

	dst := setupTestServer(t)
	rec := dst.do(t, http.MethodPut, "/api/snapshot", snap)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decodeBody[ProblemDetail](t, rec)
	require.NotEmpty(t, problem.Errors)
	assert.Equal(t, "accounts", problem.Errors[0].Field)

	assert.True(t, dst.h.Engine.BalanceSheet().IsBalanced())
	assert.Equal(t, 0, dst.store.Saves())
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarios_LoadAndCurrent(t *testing.T) {
	s := setupTestServer(t)

	list := decodeBody[[]ScenarioDTO](t, s.do(t, http.MethodGet, "/api/scenarios", nil))
	assert.Len(t, list, len(scenarios))

	rec := s.do(t, http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	rec = s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "credit-cycle"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	current := decodeBody[ScenarioDTO](t, s.do(t, http.MethodGet, "/api/scenarios/current", nil))
	assert.Equal(t, "credit-cycle", current.ID)

	invoices := decodeBody[[]ledger.SalesInvoice](t, s.do(t, http.MethodGet, "/api/sales", nil))
	assert.Len(t, invoices, 2)

	stats := decodeBody[ledger.AccountingStats](t, s.do(t, http.MethodGet, "/api/reports/stats", nil))
	// 1000 + 20*21 + 4*18.75 = 1495, collected 1250
	assertDecimal(t, "1495", stats.TotalSales, "total sales")
	assertDecimal(t, "1250", stats.TotalCollections, "collections")
	assertDecimal(t, "245", stats.OutstandingReceivables, "outstanding")
}

func TestScenarios_AllLoadBalanced(t *testing.T) {
	for _, sc := range scenarios {
		t.Run(sc.ID, func(t *testing.T) {
			s := setupTestServer(t)
			require.NoError(t, s.h.LoadDemo(context.Background(), sc.ID))

			// Reloading resets instead of stacking.
			require.NoError(t, s.h.LoadDemo(context.Background(), sc.ID))

			bs := s.h.Engine.BalanceSheet()
			assert.True(t, bs.IsBalanced(), "%s: assets %s, liabilities+equity %s",
				sc.ID, bs.TotalAssets, bs.TotalLiabilitiesAndEquity)

			stored, found, err := s.store.Load(context.Background())
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, len(s.h.Engine.Transactions()), len(stored.Transactions))
		})
	}
}

func TestScenarios_Unknown(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetBooks(t *testing.T) {
	s := setupTestServer(t)
	require.NoError(t, s.h.LoadDemo(context.Background(), "retail-day"))

	rec := s.do(t, http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.JSONEq(t, "[]", s.do(t, http.MethodGet, "/api/sales", nil).Body.String())
	stored, _, err := s.store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored.Invoices)

	// Counters survive the reset.
	inv := decodeBody[InvoiceDTO](t, s.do(t, http.MethodPost, "/api/sales", saleRequest("cash", 1, "10", "5")))
	assert.Equal(t, "INV-000004", inv.InvoiceNumber)
}

// =============================================================================
// WHOLE-BOOK REPLACEMENTS
// =============================================================================

func TestImportSnapshot_EventsWaitForReplace(t *testing.T) {
	src := setupTestServer(t)
	require.Equal(t, http.StatusCreated, src.do(t, http.MethodPost, "/api/sales", saleRequest("credit", 2, "100", "40")).Code)
	snapshot := src.do(t, http.MethodGet, "/api/snapshot", nil).Body.String()

	blocking := newBlockingStore()
	s := setupWithStore(t, blocking, blocking.Memory)
	sale := encodeJSON(t, saleRequest("cash", 1, "10", "5"))

	imported := make(chan int, 1)
	go func() { imported <- s.do(t, http.MethodPut, "/api/snapshot", snapshot).Code }()
	<-blocking.entered

	sold := make(chan int, 1)
	go func() { sold <- s.do(t, http.MethodPost, "/api/sales", sale).Code }()

	select {
	case <-sold:
		t.Fatal("sale committed between the engine import and the store replace")
	case <-time.After(50 * time.Millisecond):
	}

	close(blocking.release)
	assert.Equal(t, http.StatusOK, <-imported)
	assert.Equal(t, http.StatusCreated, <-sold)

	stored, found, err := blocking.Load(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, stored.Invoices, 2)
	assert.Equal(t, s.h.Engine.ExportSnapshot(), stored)
}

func TestLoadDemo_EventsWaitForScenario(t *testing.T) {
	blocking := newBlockingStore()
	s := setupWithStore(t, blocking, blocking.Memory)
	sale := encodeJSON(t, saleRequest("cash", 1, "10", "5"))

	loaded := make(chan error, 1)
	go func() { loaded <- s.h.LoadDemo(context.Background(), "retail-day") }()
	<-blocking.entered

	sold := make(chan int, 1)
	go func() { sold <- s.do(t, http.MethodPost, "/api/sales", sale).Code }()

	select {
	case <-sold:
		t.Fatal("sale mixed into a scenario while it was loading")
	case <-time.After(50 * time.Millisecond):
	}

	close(blocking.release)
	require.NoError(t, <-loaded)
	require.Equal(t, http.StatusCreated, <-sold)

	invoices := s.h.Engine.Invoices()
	require.Len(t, invoices, 4)
	var newest ledger.InvoiceID
	for _, inv := range invoices {
		newest = max(newest, inv.ID)
	}
	assert.Equal(t, ledger.InvoiceID(4), newest, "the sale lands after the scenario")
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func TestFlushFailure_EventStaysCommitted(t *testing.T) {
	s := setupWithStore(t, failingStore{}, nil)

	rec := s.do(t, http.MethodPost, "/api/sales", saleRequest("cash", 1, "10", "5"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	problem := decodeBody[ProblemDetail](t, rec)
	assert.Equal(t, "Persistence Failed", problem.Title)

	invoices := decodeBody[[]ledger.SalesInvoice](t, s.do(t, http.MethodGet, "/api/sales", nil))
	assert.Len(t, invoices, 1)
}

func TestRestore(t *testing.T) {
	mem := store.NewMemory()
	first := setupWithStore(t, mem, mem)
	require.Equal(t, http.StatusCreated, first.do(t, http.MethodPost, "/api/sales", saleRequest("credit", 1, "75", "30")).Code)

	second := setupWithStore(t, mem, mem)
	restored, err := second.h.Restore(context.Background())
	require.NoError(t, err)
	assert.True(t, restored)
	assert.Len(t, second.h.Engine.Invoices(), 1)

	empty := setupTestServer(t)
	restored, err = empty.h.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, restored)
}

func TestHealth(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decodeBody[HealthDTO](t, rec)
	assert.Equal(t, "ok", health.Status)
}
