// Package numerator provides the PostgreSQL-backed implementation of the
// core numerator.Generator contract, delegating to pkg/numerator.
package numerator

import (
	"context"
	"time"

	corenumerator "stockbook/internal/core/numerator"
	"stockbook/pkg/numerator"
)

// Service adapts pkg/numerator to the domain Generator contract.
type Service struct {
	impl *numerator.Service
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a generator backed by the given querier (usually the pool:
// number generation intentionally runs outside business transactions, so
// a rolled-back document never holds a gap hostage).
func New(querier numerator.Querier) *Service {
	return &Service{impl: numerator.New(querier)}
}

// GetNextNumber generates the next document number.
// Pattern: PREFIX-YEAR-XXXXX (e.g., NK-2026-00001).
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, opts *corenumerator.Options, period time.Time) (string, error) {
	return s.impl.GetNextNumber(ctx, toConfig(cfg), toOptions(opts), period)
}

// SetNextNumber sets the next number value (for migration purposes).
func (s *Service) SetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time, value int64) error {
	return s.impl.SetNextNumber(ctx, toConfig(cfg), period, value)
}

func toConfig(cfg corenumerator.Config) numerator.Config {
	return numerator.Config{
		Prefix:      cfg.Prefix,
		IncludeYear: cfg.IncludeYear,
		PadWidth:    cfg.PadWidth,
		ResetPeriod: cfg.ResetPeriod,
	}
}

func toOptions(opts *corenumerator.Options) *numerator.Options {
	if opts == nil {
		return nil
	}
	out := &numerator.Options{RangeSize: opts.RangeSize}
	switch opts.Strategy {
	case corenumerator.StrategyCached:
		out.Strategy = numerator.StrategyCached
	default:
		out.Strategy = numerator.StrategyStrict
	}
	return out
}
