// Package batcher splits work into bounded batches.
package batcher

import "context"

// Chunk splits items into consecutive batches of at most size elements.
// A size below 1 yields a single batch. The batches share the backing array of items.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size < 1 || size >= len(items) {
		return [][]T{items}
	}
	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end:end])
	}
	return batches
}

// Run flushes items batch by batch in order and stops at the first failing batch.
func Run[T any](ctx context.Context, items []T, size int, flush func(context.Context, []T) error) error {
	for _, batch := range Chunk(items, size) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := flush(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}
