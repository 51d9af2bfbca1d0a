package dashboard

import (
	"fmt"
)

// ErrorKind classifies a per-ticker step failure
type ErrorKind string

const (
	KindNotFound      ErrorKind = "not_found"
	KindPriceError    ErrorKind = "price_error"
	KindSearchError   ErrorKind = "search_error"
	KindAnalysisError ErrorKind = "analysis_error"
	KindEmptyAnalysis ErrorKind = "empty_analysis"
	KindCancelled     ErrorKind = "cancelled"
)

// StepError is a failed step for one ticker. Its message is what the page shows.
type StepError struct {
	Kind   ErrorKind
	Ticker string
	Err    error
}

func (e *StepError) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("No data found for %s", e.Ticker)
	case KindPriceError:
		return fmt.Sprintf("Error fetching %s: %v", e.Ticker, e.Err)
	case KindSearchError:
		return fmt.Sprintf("News search failed: %v", e.Err)
	case KindAnalysisError:
		return fmt.Sprintf("LLM analysis failed: %v", e.Err)
	case KindEmptyAnalysis:
		return fmt.Sprintf("empty analysis for %s", e.Ticker)
	case KindCancelled:
		return fmt.Sprintf("Analysis of %s stopped: %v", e.Ticker, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Ticker, e.Err)
	}
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Result carries either a step's value or the reason it failed
type Result[T any] struct {
	Value T
	Err   *StepError
}

// Ok reports whether the step succeeded
func (r Result[T]) Ok() bool {
	return r.Err == nil
}

func ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func fail[T any](kind ErrorKind, ticker string, err error) Result[T] {
	return Result[T]{Err: &StepError{Kind: kind, Ticker: ticker, Err: err}}
}

// guard runs fn and turns a panic into an error so one ticker cannot take down the run
func guard[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
