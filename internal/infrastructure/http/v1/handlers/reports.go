package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/domain/reports"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// ReportHandler handles the read-only report projections.
type ReportHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportHandler creates a new report handler.
func NewReportHandler(base *BaseHandler, service *reports.Service) *ReportHandler {
	return &ReportHandler{BaseHandler: base, service: service}
}

// Inventory handles GET /reports/inventory: daily closing totals.
func (h *ReportHandler) Inventory(c *gin.Context) {
	var query dto.ReportQuery
	if !h.BindQuery(c, &query) {
		return
	}

	points, err := h.service.InventoryDataset(c.Request.Context(), query.ToRange())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, points)
}

// Value handles GET /reports/value: daily inbound value totals.
func (h *ReportHandler) Value(c *gin.Context) {
	var query dto.ReportQuery
	if !h.BindQuery(c, &query) {
		return
	}

	points, err := h.service.ValueDataset(c.Request.Context(), query.ToRange())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, points)
}

// Changes handles GET /reports/changes: per-change-type totals.
func (h *ReportHandler) Changes(c *gin.Context) {
	var query dto.ReportQuery
	if !h.BindQuery(c, &query) {
		return
	}

	summary, err := h.service.ChangeSummary(c.Request.Context(), query.ToRange())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, summary)
}

// Turnover handles GET /reports/turnover.
func (h *ReportHandler) Turnover(c *gin.Context) {
	var query dto.ReportQuery
	if !h.BindQuery(c, &query) {
		return
	}

	result, err := h.service.Turnover(c.Request.Context(), query.ToRange(), query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromListResult(result))
}

// DeadStock handles GET /reports/dead-stock.
func (h *ReportHandler) DeadStock(c *gin.Context) {
	var query dto.ReportQuery
	if !h.BindQuery(c, &query) {
		return
	}

	result, err := h.service.DeadStock(c.Request.Context(), query.ToRange(), query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromListResult(result))
}

// Forecast handles GET /reports/out-of-stock-forecast.
func (h *ReportHandler) Forecast(c *gin.Context) {
	var query dto.ReportQuery
	if !h.BindQuery(c, &query) {
		return
	}

	result, err := h.service.OutOfStockForecast(c.Request.Context(), query.ToRange(), query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromListResult(result))
}

// TopStock handles GET /reports/top-stock.
func (h *ReportHandler) TopStock(c *gin.Context) {
	var query dto.TopStockQuery
	if !h.BindQuery(c, &query) {
		return
	}

	items, err := h.service.TopStock(c.Request.Context(), reports.TopStockSort(query.SortBy), query.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	if items == nil {
		items = []reports.TopStockItem{}
	}
	h.OK(c, items)
}
