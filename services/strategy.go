package services

import (
	"context"

	"VeggieMate/utils"
)

// StrategyStatus tags the outcome of one strategy attempt.
type StrategyStatus int

const (
	StrategyAccepted StrategyStatus = iota
	StrategyInsufficient
	StrategyFailed
)

// StrategyResult is the tagged result of running one strategy.
type StrategyResult[T any] struct {
	Status StrategyStatus
	Value  T
	Reason string
}

func Accepted[T any](value T) StrategyResult[T] {
	return StrategyResult[T]{Status: StrategyAccepted, Value: value}
}

func Insufficient[T any](reason string) StrategyResult[T] {
	return StrategyResult[T]{Status: StrategyInsufficient, Reason: reason}
}

func Failed[T any](reason string) StrategyResult[T] {
	return StrategyResult[T]{Status: StrategyFailed, Reason: reason}
}

// Strategy is one named way of producing a T.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) StrategyResult[T]
}

// FirstAccepted runs strategies in order and returns the first accepted
// value. Insufficient and failed attempts are recorded and the iteration
// moves on; the locator, extractor and classifier all cascade through their
// fallbacks this way instead of nesting conditionals.
func FirstAccepted[T any](ctx context.Context, diag *utils.Diagnostics, strategies []Strategy[T]) (T, bool) {
	var zero T
	for _, s := range strategies {
		if ctx.Err() != nil {
			return zero, false
		}
		result := s.Run(ctx)
		switch result.Status {
		case StrategyAccepted:
			diag.Record("strategy", "%s accepted", s.Name)
			return result.Value, true
		case StrategyInsufficient:
			diag.Record("strategy", "%s insufficient: %s", s.Name, result.Reason)
		case StrategyFailed:
			diag.Record("strategy", "%s failed: %s", s.Name, result.Reason)
		}
	}
	return zero, false
}
