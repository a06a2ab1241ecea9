package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/wippyai/flutter-host/errors"
)

// FromGo converts a native Go value to a Value.
// Common scalar, slice and map types convert directly; anything else is
// routed through its JSON encoding, so struct tags apply.
func FromGo(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return intValue(int64(x)), nil
	case int8:
		return Int32(x), nil
	case int16:
		return Int32(x), nil
	case int32:
		return Int32(x), nil
	case int64:
		return intValue(x), nil
	case uint8:
		return Int32(x), nil
	case uint16:
		return Int32(x), nil
	case uint32:
		return intValue(int64(x)), nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			return nil, errors.Overflow(errors.PhaseEncode, nil, x, "int64")
		}
		return intValue(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, errors.Overflow(errors.PhaseEncode, nil, x, "int64")
		}
		return intValue(int64(x)), nil
	case float32:
		return Float64(x), nil
	case float64:
		return Float64(x), nil
	case string:
		return String(x), nil
	case []byte:
		return ByteList(x), nil
	case []int32:
		return Int32List(x), nil
	case []int64:
		return Int64List(x), nil
	case []float64:
		return Float64List(x), nil
	case []string:
		out := make(List, len(x))
		for i, s := range x {
			out[i] = String(s)
		}
		return out, nil
	case []any:
		out := make(List, len(x))
		for i, item := range x {
			cv, err := FromGo(item)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(Map, 0, len(x))
		for _, k := range keys {
			cv, err := FromGo(x[k])
			if err != nil {
				return nil, err
			}
			out = append(out, MapEntry{Key: String(k), Value: cv})
		}
		return out, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseEncode, errors.KindUnsupported, err, fmt.Sprintf("convert %T", v))
		}
		cv, ok := decodeJSON(data)
		if !ok {
			return nil, errors.InvalidData(errors.PhaseEncode, nil, fmt.Sprintf("convert %T", v))
		}
		return cv, nil
	}
}

// MustFromGo is FromGo for values known to convert, such as literals.
func MustFromGo(v any) Value {
	cv, err := FromGo(v)
	if err != nil {
		panic(err)
	}
	return cv
}

func intValue(i int64) Value {
	if i >= math.MinInt32 && i <= math.MaxInt32 {
		return Int32(int32(i))
	}
	return Int64(i)
}

// ToGo converts a Value to plain Go values: nil, bool, int64, float64,
// string, typed slices, []any and map[any]any or map[string]any when every
// key is a string.
func ToGo(v Value) any {
	switch x := Normalize(v).(type) {
	case Null:
		return nil
	case Bool:
		return bool(x)
	case Int32:
		return int64(x)
	case Int64:
		return int64(x)
	case Float64:
		return float64(x)
	case String:
		return string(x)
	case ByteList:
		return []byte(x)
	case Int32List:
		return []int32(x)
	case Int64List:
		return []int64(x)
	case Float64List:
		return []float64(x)
	case List:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = ToGo(item)
		}
		return out
	case Map:
		if allStringKeys(x) {
			out := make(map[string]any, len(x))
			for _, e := range x {
				out[string(e.Key.(String))] = ToGo(e.Value)
			}
			return out
		}
		out := make(map[any]any, len(x))
		for _, e := range x {
			out[hashableKey(e.Key)] = ToGo(e.Value)
		}
		return out
	default:
		return nil
	}
}

func allStringKeys(m Map) bool {
	for _, e := range m {
		if _, ok := e.Key.(String); !ok {
			return false
		}
	}
	return true
}

// hashableKey falls back to a formatted string for keys that are not comparable.
func hashableKey(v Value) any {
	switch x := ToGo(v).(type) {
	case nil, bool, int64, float64, string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Unmarshal decodes v into out using out's JSON field tags.
func Unmarshal(v Value, out any) error {
	data, err := appendJSON(nil, v, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(errors.PhaseDecode, errors.KindTypeMismatch, err, fmt.Sprintf("unmarshal into %T", out))
	}
	return nil
}
