package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/domain/inventory"
	"stockbook/internal/domain/ledger"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// InventoryHandler handles manual stock adjustments and ledger queries.
type InventoryHandler struct {
	*BaseHandler
	engine *inventory.Engine
	ledger *ledger.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, engine *inventory.Engine, ledgerSvc *ledger.Service) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, engine: engine, ledger: ledgerSvc}
}

// Adjust handles POST /inventory/adjust: a manual correction outside any
// document, recorded as a MANUAL ledger entry.
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req dto.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := dto.ParseID("productId", req.ProductID)
	if err != nil {
		h.Error(c, err)
		return
	}

	entry, err := h.engine.AdjustManually(c.Request.Context(), productID, req.Delta, req.Note, h.Actor(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, entry)
}

// Ledger handles GET /inventory/ledger/:id: the full movement history of
// one product, oldest first.
func (h *InventoryHandler) Ledger(c *gin.Context) {
	productID, ok := h.PathID(c)
	if !ok {
		return
	}

	var query dto.LedgerQuery
	if !h.BindQuery(c, &query) {
		return
	}

	entries, err := h.ledger.ByProduct(c.Request.Context(), productID, query.ToRange())
	if err != nil {
		h.Error(c, err)
		return
	}

	if entries == nil {
		entries = []ledger.Entry{}
	}
	h.OK(c, entries)
}

// Summary handles GET /inventory/summary: per-change-type totals.
func (h *InventoryHandler) Summary(c *gin.Context) {
	var query dto.LedgerQuery
	if !h.BindQuery(c, &query) {
		return
	}

	summaries, err := h.ledger.SummaryByChangeType(c.Request.Context(), query.ToRange())
	if err != nil {
		h.Error(c, err)
		return
	}

	if summaries == nil {
		summaries = []ledger.Summary{}
	}
	h.OK(c, summaries)
}
