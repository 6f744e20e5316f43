package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/domain/documents/checkreceipt"
	"stockbook/internal/domain/inventory"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// CheckReceiptHandler handles check receipt endpoints. The terminal
// balance operation goes through the reconciliation engine.
type CheckReceiptHandler struct {
	*BaseHandler
	service *checkreceipt.Service
	engine  *inventory.Engine
}

// NewCheckReceiptHandler creates a new check receipt handler.
func NewCheckReceiptHandler(base *BaseHandler, service *checkreceipt.Service, engine *inventory.Engine) *CheckReceiptHandler {
	return &CheckReceiptHandler{BaseHandler: base, service: service, engine: engine}
}

// List handles GET /receipts/checks. Each item carries aggregates summed
// in the database.
func (h *CheckReceiptHandler) List(c *gin.Context) {
	var query dto.CheckReceiptListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	result, aggregates, err := h.service.ListWithAggregates(c.Request.Context(), query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.CheckReceiptResponse, 0, len(result.Items))
	for _, doc := range result.Items {
		items = append(items, dto.CheckReceiptResponse{
			CheckReceipt: doc,
			Aggregates:   aggregates[doc.ID],
		})
	}

	h.OK(c, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Create handles POST /receipts/checks.
func (h *CheckReceiptHandler) Create(c *gin.Context) {
	var req dto.CreateCheckReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := req.ToModel()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, doc.ID.String())
}

// Get handles GET /receipts/checks/:id, including derived aggregates.
func (h *CheckReceiptHandler) Get(c *gin.Context) {
	docID, ok := h.PathID(c)
	if !ok {
		return
	}

	doc, agg, err := h.service.GetWithAggregates(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.CheckReceiptResponse{CheckReceipt: doc, Aggregates: agg})
}

// Update handles PUT /receipts/checks/:id.
func (h *CheckReceiptHandler) Update(c *gin.Context) {
	docID, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.UpdateCheckReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if req.Date != nil {
		doc.Date = req.Date.UTC()
	}
	doc.Note = req.Note
	doc.Version = req.Version
	doc.Lines = doc.Lines[:0]
	for _, line := range req.Lines {
		productID, perr := dto.ParseID("lines", line.ProductID)
		if perr != nil {
			h.Error(c, perr)
			return
		}
		doc.AddLine(productID, line.SystemQuantity, line.CountedQuantity, line.UnitCost)
	}

	if err := h.service.Update(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Delete handles DELETE /receipts/checks/:id.
func (h *CheckReceiptHandler) Delete(c *gin.Context) {
	docID, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Transition handles POST /receipts/checks/:id/transition for
// non-balancing status changes.
func (h *CheckReceiptHandler) Transition(c *gin.Context) {
	docID, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.TransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Transition(c.Request.Context(), docID, checkreceipt.Status(req.To), h.Actor(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Balance handles POST /receipts/checks/:id/balance: reconciles counted
// quantities against live stock and writes adjustment entries, exactly once.
func (h *CheckReceiptHandler) Balance(c *gin.Context) {
	docID, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.BalanceCheckRequest
	if !h.BindJSON(c, &req) {
		return
	}

	counted := make([]inventory.CountedLine, 0, len(req.Counted))
	for _, line := range req.Counted {
		productID, perr := dto.ParseID("counted", line.ProductID)
		if perr != nil {
			h.Error(c, perr)
			return
		}
		counted = append(counted, inventory.CountedLine{
			ProductID:       productID,
			CountedQuantity: line.CountedQuantity,
		})
	}

	doc, entries, err := h.engine.BalanceCheckReceipt(c.Request.Context(), docID, h.Actor(c), counted)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ApplyResponse{Document: doc, Entries: entries})
}
