package dto

import (
	"stockbook/internal/domain"
	"stockbook/internal/domain/ledger"
)

// ReportQuery bounds a report request: date range plus pagination.
type ReportQuery struct {
	DateRangeQuery
	Search string `form:"search"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=1000"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

// ToRange converts the query bounds to a ledger date range. Zero bounds
// let the report service apply its default window.
func (q ReportQuery) ToRange() ledger.DateRange {
	var r ledger.DateRange
	if q.From != nil {
		r.From = q.From.UTC()
	}
	if q.To != nil {
		r.To = q.To.UTC()
	}
	return r
}

// ToFilter converts the query pagination to a domain filter. The report
// service applies its own limit defaults.
func (q ReportQuery) ToFilter() domain.ListFilter {
	return domain.ListFilter{
		Search: q.Search,
		Limit:  q.Limit,
		Offset: q.Offset,
	}
}

// TopStockQuery selects the top-stock ranking dimension.
type TopStockQuery struct {
	SortBy string `form:"sortBy"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
}
