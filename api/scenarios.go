/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the books with realistic
	activity for demos. Each scenario replays sales, collections and returns
	through the Engine, so every posting rule and invariant applies exactly as
	it does for API writes.

AVAILABLE SCENARIOS:

	retail-day:          Cash sales only
	credit-cycle:        Credit sales collected in installments
	returns-allowances:  Goods returns and price allowances on both methods
	full-month:          A month of mixed activity

HOW SCENARIOS WORK:
 1. Reset the engine (records cleared, counters kept)
 2. Replay the scenario's events in date order
 3. Replace the stored snapshot with the result

 All three steps hold the handler's write gate; API events wait for them.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "credit-cycle"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxx(ctx, e)
 3. Register it in scenarioLoaders

NOTE:

	Scenarios reset the books. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Flush and replaceStored
  - ledger/engine.go: Submit* operations
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/bookkeeping-engine/ledger"
	"go.uber.org/zap"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "retail-day",
		Name:        "Retail Day",
		Description: "Three cash sales on a single day",
	},
	{
		ID:          "credit-cycle",
		Name:        "Credit Cycle",
		Description: "Credit sales collected in installments, one left partially open",
	},
	{
		ID:          "returns-allowances",
		Name:        "Returns & Allowances",
		Description: "Goods returned on a credit sale and a price allowance on a cash sale",
	},
	{
		ID:          "full-month",
		Name:        "Full Month",
		Description: "A month of cash and credit sales, collections, returns and allowances",
	},
}

type scenarioLoader func(ctx context.Context, e *ledger.Engine) error

var scenarioLoaders = map[string]scenarioLoader{
	"retail-day":         loadRetailDay,
	"credit-cycle":       loadCreditCycle,
	"returns-allowances": loadReturnsAllowances,
	"full-month":         loadFullMonth,
}

// scenarioStart anchors scenario dates so reloads are reproducible.
var scenarioStart = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

func scenarioDay(n int) time.Time {
	return scenarioStart.AddDate(0, 0, n)
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns all available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the last loaded scenario, or null.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.flushMu.Lock()
	current := h.currentScenario
	h.flushMu.Unlock()

	if s, ok := findScenario(current); ok {
		writeJSON(w, http.StatusOK, s)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the books and replays a scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, ok := scenarioLoaders[req.ScenarioID]; !ok {
		writeProblemDetail(w, ProblemDetail{
			Title:  "Unknown Scenario",
			Status: http.StatusBadRequest,
			Detail: fmt.Sprintf("no scenario named %q", req.ScenarioID),
			Errors: []ledger.FieldError{{Field: "scenario_id", Message: "unknown scenario"}},
		})
		return
	}

	if err := h.LoadDemo(r.Context(), req.ScenarioID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetBooks clears every record and the stored snapshot.
// POST /api/scenarios/reset
func (h *Handler) ResetBooks(w http.ResponseWriter, r *http.Request) {
	h.writes.Lock()
	defer h.writes.Unlock()

	if err := h.Engine.Reset(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.replaceStored(r.Context(), ""); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// LoadDemo resets the engine, replays scenario id and replaces the stored
// snapshot. Events submitted through the handler wait until it is done.
func (h *Handler) LoadDemo(ctx context.Context, id string) error {
	load, ok := scenarioLoaders[id]
	if !ok {
		return fmt.Errorf("unknown scenario %q", id)
	}
	h.writes.Lock()
	defer h.writes.Unlock()

	if err := h.Engine.Reset(ctx); err != nil {
		return err
	}
	if err := load(ctx, h.Engine); err != nil {
		return fmt.Errorf("load scenario %s: %w", id, err)
	}
	if err := h.replaceStored(ctx, id); err != nil {
		return fmt.Errorf("persist scenario %s: %w", id, err)
	}
	h.logger.Info("scenario loaded", zap.String("scenario", id))
	return nil
}

func findScenario(id string) (ScenarioDTO, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return ScenarioDTO{}, false
}

// =============================================================================
// LOADERS
// =============================================================================

func loadRetailDay(ctx context.Context, e *ledger.Engine) error {
	sales := []ledger.SaleInput{
		{
			CustomerName: "Walk-in", Date: scenarioDay(0), PaymentMethod: ledger.PaymentCash,
			Items: []ledger.ItemInput{scenarioItem("Espresso beans 1kg", 2, "24.00", "14.50")},
		},
		{
			CustomerName: "Walk-in", Date: scenarioDay(0), PaymentMethod: ledger.PaymentCash,
			Items: []ledger.ItemInput{
				scenarioItem("Pour-over kettle", 1, "65.00", "38.00"),
				scenarioItem("Paper filters", 3, "6.50", "2.10"),
			},
		},
		{
			CustomerName: "Corner Cafe", Date: scenarioDay(0), PaymentMethod: ledger.PaymentCash,
			Items: []ledger.ItemInput{scenarioItem("Espresso beans 1kg", 10, "22.00", "14.50")},
		},
	}
	for _, s := range sales {
		if _, err := e.SubmitSale(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func loadCreditCycle(ctx context.Context, e *ledger.Engine) error {
	first, err := e.SubmitSale(ctx, ledger.SaleInput{
		CustomerName: "Harbor Hotel", Date: scenarioDay(0), PaymentMethod: ledger.PaymentCredit,
		Items: []ledger.ItemInput{scenarioItem("Commercial grinder", 1, "1000.00", "600.00")},
	})
	if err != nil {
		return err
	}
	second, err := e.SubmitSale(ctx, ledger.SaleInput{
		CustomerName: "Bayside Bistro", Date: scenarioDay(2), PaymentMethod: ledger.PaymentCredit,
		Items: []ledger.ItemInput{
			scenarioItem("Espresso beans 1kg", 20, "21.00", "14.50"),
			scenarioItem("Milk jug", 4, "18.75", "9.00"),
		},
	})
	if err != nil {
		return err
	}

	collections := []ledger.CollectionInput{
		{InvoiceID: first.ID, Date: scenarioDay(7), Amount: ledger.MustParseMoney("400.00"), PaymentMethod: "bank transfer"},
		{InvoiceID: first.ID, Date: scenarioDay(21), Amount: ledger.MustParseMoney("600.00"), PaymentMethod: "bank transfer", Notes: "final installment"},
		{InvoiceID: second.ID, Date: scenarioDay(14), Amount: ledger.MustParseMoney("250.00"), PaymentMethod: "cheque"},
	}
	for _, c := range collections {
		if _, err := e.SubmitCollection(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func loadReturnsAllowances(ctx context.Context, e *ledger.Engine) error {
	credit, err := e.SubmitSale(ctx, ledger.SaleInput{
		CustomerName: "Harbor Hotel", Date: scenarioDay(0), PaymentMethod: ledger.PaymentCredit,
		Items: []ledger.ItemInput{scenarioItem("Ceramic cups", 24, "8.00", "3.20")},
	})
	if err != nil {
		return err
	}
	cash, err := e.SubmitSale(ctx, ledger.SaleInput{
		CustomerName: "Walk-in", Date: scenarioDay(1), PaymentMethod: ledger.PaymentCash,
		Items: []ledger.ItemInput{scenarioItem("Pour-over kettle", 1, "65.00", "38.00")},
	})
	if err != nil {
		return err
	}

	if _, err := e.SubmitReturn(ctx, ledger.ReturnInput{
		InvoiceID: credit.ID, Date: scenarioDay(3), ReturnType: ledger.ReturnGoods,
		Reason: "arrived chipped",
		Items:  []ledger.ItemInput{scenarioItem("Ceramic cups", 4, "8.00", "3.20")},
	}); err != nil {
		return err
	}
	if _, err := e.SubmitReturn(ctx, ledger.ReturnInput{
		InvoiceID: cash.ID, Date: scenarioDay(4), ReturnType: ledger.ReturnAllowance,
		Reason: "scratched lid",
		Items:  []ledger.ItemInput{scenarioItem("Pour-over kettle", 1, "10.00", allowanceCost)},
	}); err != nil {
		return err
	}
	return nil
}

func loadFullMonth(ctx context.Context, e *ledger.Engine) error {
	if err := loadRetailDay(ctx, e); err != nil {
		return err
	}

	wholesale, err := e.SubmitSale(ctx, ledger.SaleInput{
		CustomerName: "Harbor Hotel", Date: scenarioDay(5), PaymentMethod: ledger.PaymentCredit,
		Items: []ledger.ItemInput{
			scenarioItem("Espresso beans 1kg", 40, "20.00", "14.50"),
			scenarioItem("Ceramic cups", 48, "7.50", "3.20"),
		},
	})
	if err != nil {
		return err
	}
	if _, err := e.SubmitCollection(ctx, ledger.CollectionInput{
		InvoiceID: wholesale.ID, Date: scenarioDay(12), Amount: ledger.MustParseMoney("500.00"),
		PaymentMethod: "bank transfer", Reference: "HH-0312",
	}); err != nil {
		return err
	}
	if _, err := e.SubmitReturn(ctx, ledger.ReturnInput{
		InvoiceID: wholesale.ID, Date: scenarioDay(13), ReturnType: ledger.ReturnGoods,
		Reason: "over-ordered",
		Items:  []ledger.ItemInput{scenarioItem("Ceramic cups", 8, "7.50", "3.20")},
	}); err != nil {
		return err
	}

	bistro, err := e.SubmitSale(ctx, ledger.SaleInput{
		CustomerName: "Bayside Bistro", Date: scenarioDay(18), PaymentMethod: ledger.PaymentCredit,
		Items: []ledger.ItemInput{scenarioItem("Commercial grinder", 1, "950.00", "600.00")},
	})
	if err != nil {
		return err
	}
	if _, err := e.SubmitReturn(ctx, ledger.ReturnInput{
		InvoiceID: bistro.ID, Date: scenarioDay(20), ReturnType: ledger.ReturnAllowance,
		Reason: "late delivery",
		Items:  []ledger.ItemInput{scenarioItem("Commercial grinder", 1, "50.00", allowanceCost)},
	}); err != nil {
		return err
	}
	if _, err := e.SubmitCollection(ctx, ledger.CollectionInput{
		InvoiceID: bistro.ID, Date: scenarioDay(27), Amount: ledger.MustParseMoney("950.00"),
		PaymentMethod: "bank transfer",
	}); err != nil {
		return err
	}
	return nil
}

// allowanceCost is the nominal unit cost carried by price allowances, which
// return no goods but still need a positive cogsUnit.
const allowanceCost = "0.01"

func scenarioItem(desc string, qty int64, price, cogs string) ledger.ItemInput {
	return ledger.ItemInput{
		Description: desc,
		Quantity:    decimal.NewFromInt(qty),
		UnitPrice:   ledger.MustParseMoney(price),
		CogsUnit:    ledger.MustParseMoney(cogs),
	}
}
