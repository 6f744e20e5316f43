package checkreceipt

import "stockbook/internal/core/numerator"

const (
	// NumberPrefix is the receipt number prefix (KIEM-2026-00001).
	NumberPrefix = "KIEM"

	// NumeratorStrategy defines the numbering strategy for this document type.
	// Checks are internal documents; gaps in numbering are acceptable.
	NumeratorStrategy = numerator.StrategyCached
)
