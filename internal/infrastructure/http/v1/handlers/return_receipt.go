package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/domain/documents/returnreceipt"
	"stockbook/internal/domain/inventory"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// ReturnReceiptHandler handles return receipt endpoints.
type ReturnReceiptHandler struct {
	*BaseHandler
	service *returnreceipt.Service
	engine  *inventory.Engine
}

// NewReturnReceiptHandler creates a new return receipt handler.
func NewReturnReceiptHandler(base *BaseHandler, service *returnreceipt.Service, engine *inventory.Engine) *ReturnReceiptHandler {
	return &ReturnReceiptHandler{BaseHandler: base, service: service, engine: engine}
}

// List handles GET /receipts/returns.
func (h *ReturnReceiptHandler) List(c *gin.Context) {
	var query dto.ReturnReceiptListQuery
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

// Create handles POST /receipts/returns.
func (h *ReturnReceiptHandler) Create(c *gin.Context) {
	var req dto.CreateReturnReceiptRequest
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

// Get handles GET /receipts/returns/:id.
func (h *ReturnReceiptHandler) Get(c *gin.Context) {
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

// Update handles PUT /receipts/returns/:id.
func (h *ReturnReceiptHandler) Update(c *gin.Context) {
	docID, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.UpdateReturnReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	doc.CounterpartyName = req.CounterpartyName
	doc.ReturnType = returnreceipt.ReturnType(req.ReturnType)
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

// Delete handles DELETE /receipts/returns/:id.
func (h *ReturnReceiptHandler) Delete(c *gin.Context) {
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

// Transition handles POST /receipts/returns/:id/transition.
func (h *ReturnReceiptHandler) Transition(c *gin.Context) {
	docID, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.TransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Transition(c.Request.Context(), docID, returnreceipt.Status(req.To), h.Actor(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Apply handles POST /receipts/returns/:id/apply: commits the return's
// stock effect (sign depends on the return type), exactly once.
func (h *ReturnReceiptHandler) Apply(c *gin.Context) {
	docID, ok := h.PathID(c)
	if !ok {
		return
	}

	doc, entries, err := h.engine.ApplyReturnReceipt(c.Request.Context(), docID, h.Actor(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ApplyResponse{Document: doc, Entries: entries})
}
