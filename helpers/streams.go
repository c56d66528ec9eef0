// Package helpers holds small utilities shared by the repository and
// controller layers for working with observed query channels.
package helpers

import "context"

// Map applies fn to every value received from in. The returned channel
// closes when in closes or ctx is done.
func Map[A, B any](ctx context.Context, in <-chan A, fn func(A) B) <-chan B {
	out := make(chan B)
	go func() {
		defer close(out)
		for {
			select {
			case v, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- fn(v):
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// CombineLatest emits fn(a, b) with the latest value of each input once both
// have produced one, and again whenever either produces another. It keeps
// running while at least one input is open.
func CombineLatest[A, B, R any](ctx context.Context, as <-chan A, bs <-chan B, fn func(A, B) R) <-chan R {
	out := make(chan R)
	go func() {
		defer close(out)

		var a A
		var b B
		var haveA, haveB bool
		aIn, bIn := as, bs
		for aIn != nil || bIn != nil {
			select {
			case v, ok := <-aIn:
				if !ok {
					aIn = nil
					continue
				}
				a, haveA = v, true
			case v, ok := <-bIn:
				if !ok {
					bIn = nil
					continue
				}
				b, haveB = v, true
			case <-ctx.Done():
				return
			}

			if !haveA || !haveB {
				continue
			}
			select {
			case out <- fn(a, b):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// First waits for the next value from in. It reports false if ctx is done
// or in closes first.
func First[T any](ctx context.Context, in <-chan T) (T, bool) {
	select {
	case v, ok := <-in:
		return v, ok
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}
