package dto

import (
	"time"

	"stockbook/internal/core/types"
	"stockbook/internal/domain/ledger"
)

// AdjustStockRequest is a manual stock correction outside any document.
type AdjustStockRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Delta     types.Quantity `json:"delta" binding:"required"`
	Note      string         `json:"note"`
}

// LedgerQuery bounds a ledger history request.
type LedgerQuery struct {
	From *time.Time `form:"from" time_format:"2006-01-02"`
	To   *time.Time `form:"to" time_format:"2006-01-02"`
}

// ToRange converts the query to a ledger date range. Zero bounds mean
// unbounded.
func (q LedgerQuery) ToRange() ledger.DateRange {
	var r ledger.DateRange
	if q.From != nil {
		r.From = q.From.UTC()
	}
	if q.To != nil {
		r.To = q.To.UTC()
	}
	return r
}
