package resource

type typedTable[T any] struct {
	table *Table
	kind  Kind
}

// NewTypedTable returns a view of table restricted to entries of kind.
func NewTypedTable[T any](table *Table, kind Kind) TypedTable[T] {
	return &typedTable[T]{table: table, kind: kind}
}

func (t *typedTable[T]) Insert(value T) Handle {
	return t.table.Insert(t.kind, value)
}

func (t *typedTable[T]) Get(h Handle) (T, bool) {
	v, ok := t.table.GetTyped(h, t.kind)
	return as[T](v, ok)
}

func (t *typedTable[T]) Remove(h Handle) (T, bool) {
	return as[T](t.table.release(h, t.kind, true))
}

func (t *typedTable[T]) Take(h Handle) (T, bool) {
	return as[T](t.table.release(h, t.kind, false))
}

func (t *typedTable[T]) Len() int {
	n := 0
	t.table.Each(func(_ Handle, k Kind, _ any) bool {
		if k == t.kind {
			n++
		}
		return true
	})
	return n
}

func (t *typedTable[T]) Each(fn func(Handle, T) bool) {
	t.table.Each(func(h Handle, k Kind, v any) bool {
		if k != t.kind {
			return true
		}
		typed, ok := v.(T)
		if !ok {
			return true
		}
		return fn(h, typed)
	})
}

func as[T any](v any, ok bool) (T, bool) {
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}
