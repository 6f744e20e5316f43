package returnreceipt

import "stockbook/internal/core/numerator"

const (
	// NumberPrefix is the receipt number prefix (TH-2026-00001).
	NumberPrefix = "TH"

	// NumeratorStrategy defines the numbering strategy for this document type.
	NumeratorStrategy = numerator.StrategyStrict
)
