package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/domain/documents/importreceipt"
	"stockbook/internal/domain/inventory"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// ImportReceiptHandler handles import receipt endpoints. CRUD and plain
// status transitions go through the document service; the stock-applying
// completion goes through the reconciliation engine.
type ImportReceiptHandler struct {
	*BaseHandler
	service *importreceipt.Service
	engine  *inventory.Engine
}

// NewImportReceiptHandler creates a new import receipt handler.
func NewImportReceiptHandler(base *BaseHandler, service *importreceipt.Service, engine *inventory.Engine) *ImportReceiptHandler {
	return &ImportReceiptHandler{BaseHandler: base, service: service, engine: engine}
}

// List handles GET /receipts/imports.
func (h *ImportReceiptHandler) List(c *gin.Context) {
	var query dto.ImportReceiptListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	result, err := h.service.List(c.Request.Context(), query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromListResult(result))
}

// Create handles POST /receipts/imports.
func (h *ImportReceiptHandler) Create(c *gin.Context) {
	var req dto.CreateImportReceiptRequest
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

// Get handles GET /receipts/imports/:id.
func (h *ImportReceiptHandler) Get(c *gin.Context) {
	docID, ok := h.PathID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Update handles PUT /receipts/imports/:id.
func (h *ImportReceiptHandler) Update(c *gin.Context) {
	docID, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.UpdateImportReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	doc.SupplierName = req.SupplierName
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
		doc.AddLine(productID, line.Quantity, line.UnitCost)
	}

	if err := h.service.Update(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Delete handles DELETE /receipts/imports/:id.
func (h *ImportReceiptHandler) Delete(c *gin.Context) {
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

// Transition handles POST /receipts/imports/:id/transition for
// non-applying status changes.
func (h *ImportReceiptHandler) Transition(c *gin.Context) {
	docID, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.TransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Transition(c.Request.Context(), docID, importreceipt.Status(req.To), h.Actor(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Apply handles POST /receipts/imports/:id/apply: commits the receipt's
// stock effect to the ledger, exactly once.
func (h *ImportReceiptHandler) Apply(c *gin.Context) {
	docID, ok := h.PathID(c)
	if !ok {
		return
	}

	doc, entries, err := h.engine.ApplyImportReceipt(c.Request.Context(), docID, h.Actor(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ApplyResponse{Document: doc, Entries: entries})
}
