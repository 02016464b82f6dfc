package optional

// Value marks whether a field was supplied in a partial update.
// The zero value is "not set".
type Value[T any] struct {
	v   T
	set bool
}

func Of[T any](v T) Value[T] {
	return Value[T]{v: v, set: true}
}

func (o Value[T]) Get() (T, bool) { return o.v, o.set }
func (o Value[T]) IsSet() bool    { return o.set }
