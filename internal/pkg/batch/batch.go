package batch

import (
	"context"
	"errors"
)

// Progress is reported after every processed item.
type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Failure describes one item that could not be processed.
type Failure struct {
	Index int    `json:"index"`
	Key   string `json:"key"`
	Error string `json:"error"`
}

// Result is the aggregated tally of a batch run.
type Result struct {
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	Cancelled bool      `json:"cancelled"`
	Failures  []Failure `json:"failures,omitempty"`
}

// ProgressFunc receives a snapshot after each item. May be nil.
type ProgressFunc func(Progress)

// Run processes items one at a time. A failing item is recorded and the run moves on;
// cancellation of ctx is checked between items and leaves the remaining ones skipped.
func Run[T any](
	ctx context.Context,
	items []T,
	key func(T) string,
	fn func(ctx context.Context, item T) error,
	onProgress ProgressFunc,
) Result {
	result := Result{Total: len(items)}

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			result.Cancelled = true
			result.Skipped = len(items) - i
			return result
		}

		if err := fn(ctx, item); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				result.Cancelled = true
			}
			result.Failed++
			result.Failures = append(result.Failures, Failure{
				Index: i,
				Key:   key(item),
				Error: err.Error(),
			})
		} else {
			result.Succeeded++
		}

		if onProgress != nil {
			onProgress(Progress{
				Processed: i + 1,
				Total:     len(items),
				Succeeded: result.Succeeded,
				Failed:    result.Failed,
			})
		}
	}

	return result
}
