// Package output models the result of an asynchronous call as a sequence of
// Loading followed by exactly one Success or Error.
package output

import "context"

// Kind tags the state carried by an Output.
type Kind int

const (
	KindLoading Kind = iota
	KindSuccess
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindLoading:
		return "loading"
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	}
	return "unknown"
}

// Output is a tagged union over Loading, Success(data) and Error(message).
// Construct it with Loading, Success or Error; inspect it with Match.
type Output[T any] struct {
	kind    Kind
	data    T
	message string
}

func Loading[T any]() Output[T] {
	return Output[T]{kind: KindLoading}
}

func Success[T any](data T) Output[T] {
	return Output[T]{kind: KindSuccess, data: data}
}

func Error[T any](message string) Output[T] {
	return Output[T]{kind: KindError, message: message}
}

func (o Output[T]) Kind() Kind { return o.kind }

// Terminal reports whether o ends its sequence.
func (o Output[T]) Terminal() bool { return o.kind != KindLoading }

// Match dispatches on the state of o. All three handlers are required.
func Match[T, R any](o Output[T], onLoading func() R, onSuccess func(T) R, onError func(string) R) R {
	switch o.kind {
	case KindSuccess:
		return onSuccess(o.data)
	case KindError:
		return onError(o.message)
	default:
		return onLoading()
	}
}

// Await reads ch until its terminal value, calling onLoading for each
// Loading emission. ok is false when ch closed early or ctx ended first.
func Await[T any](ctx context.Context, ch <-chan Output[T], onLoading func()) (result Output[T], ok bool) {
	for {
		select {
		case <-ctx.Done():
			return Output[T]{}, false
		case o, open := <-ch:
			if !open {
				return Output[T]{}, false
			}
			if !o.Terminal() {
				if onLoading != nil {
					onLoading()
				}
				continue
			}
			return o, true
		}
	}
}
