/*
handlers.go - HTTP API handlers for the bookkeeping engine

PURPOSE:
  Exposes the ledger engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the Engine.

ENDPOINTS:
  Sales:
    POST   /api/sales                 Record a sale
    GET    /api/sales                 List invoices
    GET    /api/sales/{id}            Invoice with items

  Collections:
    POST   /api/collections           Record cash received on an invoice
    GET    /api/collections           List collections

  Returns:
    POST   /api/returns               Record a return or allowance
    GET    /api/returns               List returns
    GET    /api/returns/{id}          Return with items

  Books:
    GET    /api/journal               All journal lines, newest first
    GET    /api/journal.csv           Same, as CSV
    GET    /api/transactions          All transactions
    GET    /api/transactions/{id}     Transaction with its lines
    GET    /api/accounts              Chart of accounts with balances

  Reports:
    GET    /api/reports/balance-sheet
    GET    /api/reports/stats

  Snapshot:
    GET    /api/snapshot              Export full state
    PUT    /api/snapshot              Replace full state

ARCHITECTURE:
  Handler holds:
  - Engine: in-memory books, the only writer
  - Store:  durable snapshot store (nil = no persistence)

REQUEST FLOW (writes):
  1. Decode body into a *Request DTO
  2. Convert to ledger input (dates parsed here)
  3. Engine validates and commits atomically
  4. Flush: export snapshot, Store.Save
  5. Serialize response

  Steps 3-4 run under a shared write gate. Snapshot import, reset and
  scenario loads take the gate exclusively, so they swap the engine and
  replace the store with no event in between.

  A flush failure does NOT undo the event: the books in memory already
  moved. The handler logs it and answers 500 so the client knows the event
  is not yet durable. The next successful flush writes it.

ERROR HANDLING:
  RFC 7807 problem JSON:
  - 400: Validation errors, malformed JSON, inconsistent snapshots
  - 404: Unknown invoice / return / transaction
  - 409: Collection exceeds outstanding
  - 500: Invariant violations, persistence failures

SECURITY NOTE:
  No authentication. Rate limiting and security headers only.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/bookkeeping-engine/ledger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// maxBodyBytes caps request bodies. Snapshots are the largest payload.
const maxBodyBytes = 32 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *ledger.Engine
	Store  ledger.SnapshotStore

	logger  *zap.Logger
	reports singleflight.Group
	now     func() time.Time

	// writes is held shared by single events and exclusively by whole-book
	// replacements (import, reset, scenario load), so no event lands between
	// a replacement's engine swap and its store write. Lock order: writes,
	// then flushMu.
	writes sync.RWMutex

	// flushMu orders export+save pairs so an older snapshot never
	// overwrites a newer one. It also guards currentScenario.
	flushMu         sync.Mutex
	currentScenario string
}

// NewHandler creates a handler. store may be nil to run without persistence.
func NewHandler(engine *ledger.Engine, store ledger.SnapshotStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Engine: engine,
		Store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Flush persists the current state. Safe to call with no store.
func (h *Handler) Flush(ctx context.Context) error {
	if h.Store == nil {
		return nil
	}
	h.flushMu.Lock()
	defer h.flushMu.Unlock()
	return h.Store.Save(ctx, h.Engine.ExportSnapshot())
}

// replaceStored swaps the stored state wholesale after an import or reset
// and records which scenario, if any, produced it.
func (h *Handler) replaceStored(ctx context.Context, scenario string) error {
	h.flushMu.Lock()
	defer h.flushMu.Unlock()
	h.currentScenario = scenario
	if h.Store == nil {
		return nil
	}
	return h.Store.Replace(ctx, h.Engine.ExportSnapshot())
}

// Restore loads the stored snapshot into the engine. Returns false when the
// store is empty.
func (h *Handler) Restore(ctx context.Context) (bool, error) {
	if h.Store == nil {
		return false, nil
	}
	snap, found, err := h.Store.Load(ctx)
	if err != nil || !found {
		return false, err
	}
	if err := h.Engine.ImportSnapshot(ctx, snap); err != nil {
		return false, fmt.Errorf("stored snapshot rejected: %w", err)
	}
	return true, nil
}

// committed flushes after a successful event and writes the response. The
// event is already in the books whatever the flush outcome.
func (h *Handler) committed(w http.ResponseWriter, r *http.Request, status int, body any) {
	if err := h.Flush(r.Context()); err != nil {
		h.logger.Error("event recorded but flush failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeProblem(w, http.StatusInternalServerError, "Persistence Failed",
			"the event was recorded but could not be saved; it will be saved with the next successful write")
		return
	}
	writeJSON(w, status, body)
}

// =============================================================================
// SALES
// =============================================================================

// CreateSale records a sale.
// POST /api/sales
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if !h.decode(w, r, &req) {
		return
	}
	input, err := req.toInput(h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writes.RLock()
	defer h.writes.RUnlock()

	inv, err := h.Engine.SubmitSale(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_, items, _ := h.Engine.Invoice(inv.ID)
	h.committed(w, r, http.StatusCreated, InvoiceDTO{SalesInvoice: inv, Items: items})
}

// ListSales returns all invoices.
// GET /api/sales
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Engine.Invoices()))
}

// GetSale returns an invoice with its items.
// GET /api/sales/{id}
func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	inv, items, err := h.Engine.Invoice(ledger.InvoiceID(id))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, InvoiceDTO{SalesInvoice: inv, Items: nonNil(items)})
}

// =============================================================================
// COLLECTIONS
// =============================================================================

// CreateCollection records cash received against an invoice.
// POST /api/collections
func (h *Handler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req CreateCollectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	input, err := req.toInput(h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writes.RLock()
	defer h.writes.RUnlock()

	c, err := h.Engine.SubmitCollection(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.committed(w, r, http.StatusCreated, c)
}

// ListCollections returns all collections.
// GET /api/collections
func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Engine.Collections()))
}

// =============================================================================
// RETURNS
// =============================================================================

// CreateReturn records a sales return or allowance.
// POST /api/returns
func (h *Handler) CreateReturn(w http.ResponseWriter, r *http.Request) {
	var req CreateReturnRequest
	if !h.decode(w, r, &req) {
		return
	}
	input, err := req.toInput(h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writes.RLock()
	defer h.writes.RUnlock()

	ret, err := h.Engine.SubmitReturn(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_, items, _ := h.Engine.Return(ret.ID)
	h.committed(w, r, http.StatusCreated, ReturnDTO{SalesReturn: ret, Items: items})
}

// ListReturns returns all sales returns.
// GET /api/returns
func (h *Handler) ListReturns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Engine.Returns()))
}

// GetReturn returns a sales return with its items.
// GET /api/returns/{id}
func (h *Handler) GetReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	ret, items, err := h.Engine.Return(ledger.ReturnID(id))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ReturnDTO{SalesReturn: ret, Items: nonNil(items)})
}

// =============================================================================
// BOOKS
// =============================================================================

// ListJournal returns every journal line, newest first.
// GET /api/journal
func (h *Handler) ListJournal(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Engine.JournalEntries()))
}

// ExportJournalCSV streams the journal as CSV.
// GET /api/journal.csv
func (h *Handler) ExportJournalCSV(w http.ResponseWriter, r *http.Request) {
	entries := h.Engine.JournalEntries()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="journal.csv"`)
	w.WriteHeader(http.StatusOK)

	if err := writeJournalCSV(w, entries); err != nil {
		// Headers are gone; all we can do is log.
		h.logger.Warn("journal csv export aborted", zap.Error(err))
	}
}

// ListTransactions returns every transaction, newest first.
// GET /api/transactions
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Engine.Transactions()))
}

// GetTransaction returns a transaction with its journal lines.
// GET /api/transactions/{id}
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	tx, entries, err := h.Engine.TransactionEntries(ledger.TransactionID(id))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TransactionDTO{Transaction: tx, Entries: nonNil(entries)})
}

// ListAccounts returns the chart of accounts with balances.
// GET /api/accounts
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Engine.Accounts())
}

// =============================================================================
// REPORTS
// =============================================================================

// GetBalanceSheet returns the balance sheet.
// GET /api/reports/balance-sheet
func (h *Handler) GetBalanceSheet(w http.ResponseWriter, r *http.Request) {
	v, err := h.report(r.Context(), "balance-sheet", func() (any, error) {
		bs := h.Engine.BalanceSheet()
		if !bs.IsBalanced() {
			h.logger.Error("accounting equation violated",
				zap.String("total_assets", bs.TotalAssets.String()),
				zap.String("total_liab_equity", bs.TotalLiabilitiesAndEquity.String()))
		}
		return BalanceSheetDTO{BalanceSheet: bs, Balanced: bs.IsBalanced()}, nil
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// GetStats returns accounting statistics.
// GET /api/reports/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	v, err := h.report(r.Context(), "stats", func() (any, error) {
		return h.Engine.Stats(), nil
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// report coalesces concurrent builds of the same report.
func (h *Handler) report(ctx context.Context, key string, build func() (any, error)) (any, error) {
	ch := h.reports.DoChan(key, build)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// ExportSnapshot returns the full state.
// GET /api/snapshot
func (h *Handler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Engine.ExportSnapshot())
}

// ImportSnapshot validates and installs a full state, replacing the stored
// copy as well.
// PUT /api/snapshot
func (h *Handler) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap ledger.Snapshot
	if !h.decode(w, r, &snap) {
		return
	}
	h.writes.Lock()
	defer h.writes.Unlock()

	if err := h.Engine.ImportSnapshot(r.Context(), snap); err != nil {
		var verr *ledger.ValidationError
		if errors.As(err, &verr) || r.Context().Err() != nil {
			h.writeError(w, r, err)
			return
		}
		// Dangling references and unknown accounts are bad input here.
		writeProblem(w, http.StatusBadRequest, "Invalid Snapshot", err.Error())
		return
	}
	if err := h.replaceStored(r.Context(), ""); err != nil {
		h.logger.Error("snapshot imported but not persisted", zap.Error(err))
		writeProblem(w, http.StatusInternalServerError, "Persistence Failed", "snapshot imported in memory but could not be saved")
		return
	}
	bs := h.Engine.BalanceSheet()
	writeJSON(w, http.StatusOK, BalanceSheetDTO{BalanceSheet: bs, Balanced: bs.IsBalanced()})
}

// Health reports liveness.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthDTO{Status: "ok", Transactions: len(h.Engine.Transactions())})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", fmt.Sprintf("%q is not a positive integer id", raw))
		return 0, false
	}
	return id, true
}

// writeError maps ledger errors to problem responses. Internal errors are
// logged with the request id and reported without detail.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		writeProblemDetail(w, ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Detail: verr.Error(),
			Errors: verr.Fields,
		})
	case errors.Is(err, ledger.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ledger.ErrExceedsOutstanding):
		writeProblem(w, http.StatusConflict, "Exceeds Outstanding", err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeProblem(w, http.StatusServiceUnavailable, "Request Cancelled", err.Error())
	default:
		h.logger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemDetail(w, ProblemDetail{Title: title, Status: status, Detail: detail})
}

func writeProblemDetail(w http.ResponseWriter, p ProblemDetail) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	json.NewEncoder(w).Encode(p)
}

// nonNil makes empty lists encode as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
