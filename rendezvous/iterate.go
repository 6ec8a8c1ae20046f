package rendezvous

import (
	"context"
	"iter"
)

// Iterate returns a range-over-func sequence that repeatedly calls Read and
// yields each claimed value, stopping (without error) the first time Read
// fails — either the channel closed or ctx became done — or the consumer's
// range body breaks early. Errors are not observable through this API: both
// ErrClosed and ErrReadCancelled mean "no more values," which is exactly
// what a for-range loop over a closed or exhausted source expects.
func (c *Channel[T]) Iterate(ctx context.Context) iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, err := c.Read(ctx)
			if err != nil {
				return
			}
			if !yield(v) {
				return
			}
		}
	}
}
