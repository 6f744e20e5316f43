package dto

import (
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/documents/checkreceipt"
	"stockbook/internal/domain/documents/importreceipt"
	"stockbook/internal/domain/documents/returnreceipt"
	"stockbook/internal/domain/ledger"
)

// ReceiptLineRequest is one goods line on an import or return receipt.
type ReceiptLineRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Quantity  types.Quantity `json:"quantity" binding:"required"`
	UnitCost  types.Money    `json:"unitCost"`
}

// parseLineProductID parses a line's product ID, tagging validation
// errors with the line number.
func parseLineProductID(lineNo int, raw string) (id.ID, error) {
	parsed, err := id.Parse(raw)
	if err != nil {
		return id.Nil(), apperror.NewValidation("invalid product id").
			WithDetail("field", "lines").
			WithDetail("lineNo", lineNo).
			WithDetail("value", raw)
	}
	return parsed, nil
}

// TransitionRequest moves a document to a new status.
type TransitionRequest struct {
	To string `json:"to" binding:"required"`
}

// ApplyResponse returns the applied document together with the ledger
// entries the application produced.
type ApplyResponse struct {
	Document any            `json:"document"`
	Entries  []ledger.Entry `json:"entries"`
}

// --- Import receipts ---

// CreateImportReceiptRequest for creating import receipts.
type CreateImportReceiptRequest struct {
	SupplierName string               `json:"supplierName"`
	Date         *time.Time           `json:"date"`
	Note         string               `json:"note"`
	Lines        []ReceiptLineRequest `json:"lines" binding:"required,min=1"`
}

// ToModel builds a draft import receipt from the request.
func (r CreateImportReceiptRequest) ToModel() (*importreceipt.ImportReceipt, error) {
	doc := importreceipt.New(r.SupplierName)
	if r.Date != nil {
		doc.Date = r.Date.UTC()
	}
	doc.Note = r.Note

	for i, line := range r.Lines {
		productID, err := parseLineProductID(i+1, line.ProductID)
		if err != nil {
			return nil, err
		}
		doc.AddLine(productID, line.Quantity, line.UnitCost)
	}
	return doc, nil
}

// UpdateImportReceiptRequest rewrites header fields and lines.
type UpdateImportReceiptRequest struct {
	SupplierName string               `json:"supplierName"`
	Date         *time.Time           `json:"date"`
	Note         string               `json:"note"`
	Lines        []ReceiptLineRequest `json:"lines" binding:"required,min=1"`
	Version      int                  `json:"version" binding:"required,min=1"`
}

// ImportReceiptListQuery filters import receipt listings.
type ImportReceiptListQuery struct {
	ListQuery
	Status   string     `form:"status"`
	Applied  *bool      `form:"applied"`
	DateFrom *time.Time `form:"dateFrom" time_format:"2006-01-02"`
	DateTo   *time.Time `form:"dateTo" time_format:"2006-01-02"`
}

// ToFilter converts the query to the repository filter.
func (q ImportReceiptListQuery) ToFilter() importreceipt.ListFilter {
	filter := importreceipt.ListFilter{
		ListFilter: q.ListQuery.ToFilter(),
		Applied:    q.Applied,
		DateFrom:   q.DateFrom,
		DateTo:     q.DateTo,
	}
	if q.Status != "" {
		status := importreceipt.Status(q.Status)
		filter.Status = &status
	}
	return filter
}

// --- Return receipts ---

// CreateReturnReceiptRequest for creating return receipts.
type CreateReturnReceiptRequest struct {
	CounterpartyName string               `json:"counterpartyName"`
	ReturnType       string               `json:"returnType" binding:"required"`
	Date             *time.Time           `json:"date"`
	Note             string               `json:"note"`
	Lines            []ReceiptLineRequest `json:"lines" binding:"required,min=1"`
}

// ToModel builds a draft return receipt from the request.
func (r CreateReturnReceiptRequest) ToModel() (*returnreceipt.ReturnReceipt, error) {
	doc := returnreceipt.New(r.CounterpartyName, returnreceipt.ReturnType(r.ReturnType))
	if r.Date != nil {
		doc.Date = r.Date.UTC()
	}
	doc.Note = r.Note

	for i, line := range r.Lines {
		productID, err := parseLineProductID(i+1, line.ProductID)
		if err != nil {
			return nil, err
		}
		doc.AddLine(productID, line.Quantity, line.UnitCost)
	}
	return doc, nil
}

// UpdateReturnReceiptRequest rewrites header fields and lines.
type UpdateReturnReceiptRequest struct {
	CounterpartyName string               `json:"counterpartyName"`
	ReturnType       string               `json:"returnType" binding:"required"`
	Date             *time.Time           `json:"date"`
	Note             string               `json:"note"`
	Lines            []ReceiptLineRequest `json:"lines" binding:"required,min=1"`
	Version          int                  `json:"version" binding:"required,min=1"`
}

// ReturnReceiptListQuery filters return receipt listings.
type ReturnReceiptListQuery struct {
	ListQuery
	Status     string     `form:"status"`
	ReturnType string     `form:"returnType"`
	Applied    *bool      `form:"applied"`
	DateFrom   *time.Time `form:"dateFrom" time_format:"2006-01-02"`
	DateTo     *time.Time `form:"dateTo" time_format:"2006-01-02"`
}

// ToFilter converts the query to the repository filter.
func (q ReturnReceiptListQuery) ToFilter() returnreceipt.ListFilter {
	filter := returnreceipt.ListFilter{
		ListFilter: q.ListQuery.ToFilter(),
		Applied:    q.Applied,
		DateFrom:   q.DateFrom,
		DateTo:     q.DateTo,
	}
	if q.Status != "" {
		status := returnreceipt.Status(q.Status)
		filter.Status = &status
	}
	if q.ReturnType != "" {
		rt := returnreceipt.ReturnType(q.ReturnType)
		filter.ReturnType = &rt
	}
	return filter
}

// --- Check receipts ---

// CheckLineRequest is one counted product on a check receipt.
type CheckLineRequest struct {
	ProductID       string         `json:"productId" binding:"required"`
	SystemQuantity  types.Quantity `json:"systemQuantity"`
	CountedQuantity types.Quantity `json:"countedQuantity"`
	UnitCost        types.Money    `json:"unitCost"`
}

// CreateCheckReceiptRequest for creating check receipts.
type CreateCheckReceiptRequest struct {
	Date  *time.Time         `json:"date"`
	Note  string             `json:"note"`
	Lines []CheckLineRequest `json:"lines" binding:"required,min=1"`
}

// ToModel builds a pending check receipt from the request.
func (r CreateCheckReceiptRequest) ToModel() (*checkreceipt.CheckReceipt, error) {
	doc := checkreceipt.New()
	if r.Date != nil {
		doc.Date = r.Date.UTC()
	}
	doc.Note = r.Note

	for i, line := range r.Lines {
		productID, err := parseLineProductID(i+1, line.ProductID)
		if err != nil {
			return nil, err
		}
		doc.AddLine(productID, line.SystemQuantity, line.CountedQuantity, line.UnitCost)
	}
	return doc, nil
}

// UpdateCheckReceiptRequest rewrites header fields and counted lines.
type UpdateCheckReceiptRequest struct {
	Date    *time.Time         `json:"date"`
	Note    string             `json:"note"`
	Lines   []CheckLineRequest `json:"lines" binding:"required,min=1"`
	Version int                `json:"version" binding:"required,min=1"`
}

// BalanceCheckRequest optionally overrides counted quantities at balance
// time. Lines not listed keep their stored counted values.
type BalanceCheckRequest struct {
	Counted []CountedLineRequest `json:"counted"`
}

// CountedLineRequest is one counted override.
type CountedLineRequest struct {
	ProductID       string         `json:"productId" binding:"required"`
	CountedQuantity types.Quantity `json:"countedQuantity"`
}

// CheckReceiptListQuery filters check receipt listings.
type CheckReceiptListQuery struct {
	ListQuery
	Status   string     `form:"status"`
	Applied  *bool      `form:"applied"`
	DateFrom *time.Time `form:"dateFrom" time_format:"2006-01-02"`
	DateTo   *time.Time `form:"dateTo" time_format:"2006-01-02"`
}

// ToFilter converts the query to the repository filter.
func (q CheckReceiptListQuery) ToFilter() checkreceipt.ListFilter {
	filter := checkreceipt.ListFilter{
		ListFilter: q.ListQuery.ToFilter(),
		Applied:    q.Applied,
		DateFrom:   q.DateFrom,
		DateTo:     q.DateTo,
	}
	if q.Status != "" {
		status := checkreceipt.Status(q.Status)
		filter.Status = &status
	}
	return filter
}

// CheckReceiptResponse pairs a check with its derived aggregates.
type CheckReceiptResponse struct {
	*checkreceipt.CheckReceipt
	Aggregates checkreceipt.Aggregates `json:"aggregates"`
}
