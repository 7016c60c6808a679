package domain

// Result carries either a live value or a fallback substituted after a failure.
// Value is always usable; Err records why the fallback was chosen.
type Result[T any] struct {
	Value    T
	Fallback bool
	Err      error
}

// Live wraps a successfully fetched value.
func Live[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fallback wraps a substitute value together with the failure that caused it.
func Fallback[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Fallback: true, Err: err}
}

// Source reports SourceFallback or SourceLive.
func (r Result[T]) Source() string {
	if r.Fallback {
		return SourceFallback
	}
	return SourceLive
}
