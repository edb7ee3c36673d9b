// Package chunk partitions ordered sequences into bounded, order-preserving chunks.
package chunk

import (
	"fmt"

	"github.com/cognicore/txthistory/pkg/txthistory/internalerr"
)

// Overhead is added to every element's size estimate to account for
// separators and formatting. It is a fixed allowance, not a measured count.
const Overhead = 50

// EstimateSize returns the approximate serialized size of one message.
func EstimateSize(sender, content string) int {
	return len(sender) + len(content) + Overhead
}

type kind int

const (
	kindWhole kind = iota
	kindCount
	kindSize
)

// Strategy selects how a sequence is partitioned. The zero value keeps the
// whole sequence in a single chunk.
type Strategy struct {
	kind   kind
	count  int
	budget int64
}

// Whole keeps the entire sequence in one chunk.
func Whole() Strategy { return Strategy{} }

// ByCount groups n elements per chunk.
func ByCount(n int) Strategy { return Strategy{kind: kindCount, count: n} }

// BySize closes a chunk before its estimated size would exceed budget bytes.
func BySize(budget int64) Strategy { return Strategy{kind: kindSize, budget: budget} }

func (s Strategy) String() string {
	switch s.kind {
	case kindCount:
		return fmt.Sprintf("count(%d)", s.count)
	case kindSize:
		return fmt.Sprintf("size(%d)", s.budget)
	}
	return "whole"
}

// Validate rejects non-positive counts and budgets.
func (s Strategy) Validate() error {
	switch s.kind {
	case kindCount:
		if s.count <= 0 {
			return fmt.Errorf("%w: chunk count must be positive, got %d", internalerr.ErrInvalidInput, s.count)
		}
	case kindSize:
		if s.budget <= 0 {
			return fmt.Errorf("%w: chunk size must be positive, got %d", internalerr.ErrInvalidInput, s.budget)
		}
	}
	return nil
}

// Chunk is a contiguous run of the input with its 1-based position.
type Chunk[T any] struct {
	Index int
	Items []T
}

// Split partitions items according to strategy. sizer estimates the size of
// one element and is only consulted by size-based strategies. Chunks are never
// empty; empty input yields no chunks.
func Split[T any](items []T, strategy Strategy, sizer func(T) int) ([]Chunk[T], error) {
	if err := strategy.Validate(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	switch strategy.kind {
	case kindCount:
		return byCount(items, strategy.count), nil
	case kindSize:
		if sizer == nil {
			return nil, fmt.Errorf("%w: size strategy requires a sizer", internalerr.ErrInvalidInput)
		}
		return bySize(items, strategy.budget, sizer), nil
	}
	return []Chunk[T]{{Index: 1, Items: items[:len(items):len(items)]}}, nil
}

func byCount[T any](items []T, n int) []Chunk[T] {
	chunks := make([]Chunk[T], 0, (len(items)+n-1)/n)
	for start := 0; start < len(items); start += n {
		end := start + n
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, Chunk[T]{Index: len(chunks) + 1, Items: items[start:end:end]})
	}
	return chunks
}

func bySize[T any](items []T, budget int64, sizer func(T) int) []Chunk[T] {
	var chunks []Chunk[T]
	start := 0
	var current int64
	for i, item := range items {
		size := int64(sizer(item))
		// Never split a single element, even when it alone exceeds the budget.
		if current+size > budget && i > start {
			chunks = append(chunks, Chunk[T]{Index: len(chunks) + 1, Items: items[start:i:i]})
			start = i
			current = 0
		}
		current += size
	}
	end := len(items)
	chunks = append(chunks, Chunk[T]{Index: len(chunks) + 1, Items: items[start:end:end]})
	return chunks
}

// Size sums the estimated size of a chunk's elements.
func Size[T any](c Chunk[T], sizer func(T) int) int64 {
	var total int64
	for _, item := range c.Items {
		total += int64(sizer(item))
	}
	return total
}
