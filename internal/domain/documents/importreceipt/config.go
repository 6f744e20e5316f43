package importreceipt

import "stockbook/internal/core/numerator"

const (
	// NumberPrefix is the receipt number prefix (NK-2026-00001).
	NumberPrefix = "NK"

	// NumeratorStrategy defines the numbering strategy for this document type.
	// Import receipts are primary accounting documents, so numbers must be
	// sequential without gaps.
	NumeratorStrategy = numerator.StrategyStrict
)
