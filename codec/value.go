package codec

import (
	"fmt"
	"math"
)

// Value is a dynamically typed payload exchanged over a channel.
// The concrete types are the ones listed below; a nil Value means Null.
type Value interface {
	isValue()
}

type (
	Null        struct{}
	Bool        bool
	Int32       int32
	Int64       int64
	Float64     float64
	String      string
	ByteList    []byte
	Int32List   []int32
	Int64List   []int64
	Float64List []float64
	List        []Value
	// Map keeps entries in insertion order. Keys may be any Value.
	Map []MapEntry
)

// MapEntry is one key/value pair of a Map.
type MapEntry struct {
	Key   Value
	Value Value
}

func (Null) isValue()        {}
func (Bool) isValue()        {}
func (Int32) isValue()       {}
func (Int64) isValue()       {}
func (Float64) isValue()     {}
func (String) isValue()      {}
func (ByteList) isValue()    {}
func (Int32List) isValue()   {}
func (Int64List) isValue()   {}
func (Float64List) isValue() {}
func (List) isValue()        {}
func (Map) isValue()         {}

// Normalize maps a nil Value to Null.
func Normalize(v Value) Value {
	if v == nil {
		return Null{}
	}
	return v
}

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// Get returns the value stored under the string key, if any.
func (m Map) Get(key string) (Value, bool) {
	for _, e := range m {
		if s, ok := e.Key.(String); ok && string(s) == key {
			return Normalize(e.Value), true
		}
	}
	return nil, false
}

// Set replaces the value under a string key or appends a new entry.
func (m Map) Set(key string, v Value) Map {
	for i, e := range m {
		if s, ok := e.Key.(String); ok && string(s) == key {
			m[i].Value = v
			return m
		}
	}
	return append(m, MapEntry{Key: String(key), Value: v})
}

// TypeName returns a short name for the concrete type of v.
func TypeName(v Value) string {
	switch Normalize(v).(type) {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case String:
		return "string"
	case ByteList:
		return "uint8list"
	case Int32List:
		return "int32list"
	case Int64List:
		return "int64list"
	case Float64List:
		return "float64list"
	case List:
		return "list"
	case Map:
		return "map"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Equal reports whether a and b hold the same type and contents.
// Float64 values compare bitwise so NaN equals itself.
func Equal(a, b Value) bool {
	a, b = Normalize(a), Normalize(b)
	switch x := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int32:
		y, ok := b.(Int32)
		return ok && x == y
	case Int64:
		y, ok := b.(Int64)
		return ok && x == y
	case Float64:
		y, ok := b.(Float64)
		return ok && math.Float64bits(float64(x)) == math.Float64bits(float64(y))
	case String:
		y, ok := b.(String)
		return ok && x == y
	case ByteList:
		y, ok := b.(ByteList)
		return ok && equalSlices(x, y, func(p, q byte) bool { return p == q })
	case Int32List:
		y, ok := b.(Int32List)
		return ok && equalSlices(x, y, func(p, q int32) bool { return p == q })
	case Int64List:
		y, ok := b.(Int64List)
		return ok && equalSlices(x, y, func(p, q int64) bool { return p == q })
	case Float64List:
		y, ok := b.(Float64List)
		return ok && equalSlices(x, y, func(p, q float64) bool {
			return math.Float64bits(p) == math.Float64bits(q)
		})
	case List:
		y, ok := b.(List)
		return ok && equalSlices(x, y, Equal)
	case Map:
		y, ok := b.(Map)
		return ok && equalSlices(x, y, func(p, q MapEntry) bool {
			return Equal(p.Key, q.Key) && Equal(p.Value, q.Value)
		})
	default:
		return false
	}
}

func equalSlices[T any](a, b []T, eq func(T, T) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !eq(a[i], b[i]) {
			return false
		}
	}
	return true
}
