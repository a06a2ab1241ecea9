package codec

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/wippyai/flutter-host/errors"
)

// JSON is the UTF-8 JSON codec used by text-oriented system channels.
//
// Numeric widths collapse on the wire: integral numbers decode to Int32
// when they fit and Int64 otherwise, and every typed list decodes to List.
var JSON MethodCodec = jsonCodec{}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) EncodeMessage(v Value) ([]byte, error) {
	return appendJSON(nil, v, nil)
}

func (jsonCodec) DecodeMessage(data []byte) (Value, bool) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Null{}, true
	}
	return decodeJSON(data)
}

func (jsonCodec) EncodeMethodCall(call MethodCall) ([]byte, error) {
	return appendJSON(nil, Map{
		{Key: String("method"), Value: String(call.Method)},
		{Key: String("args"), Value: Normalize(call.Args)},
	}, nil)
}

func (jsonCodec) DecodeMethodCall(data []byte) (MethodCall, bool) {
	v, ok := decodeJSON(data)
	if !ok {
		return MethodCall{}, false
	}
	obj, ok := v.(Map)
	if !ok {
		return MethodCall{}, false
	}
	mv, ok := obj.Get("method")
	if !ok {
		return MethodCall{}, false
	}
	method, ok := mv.(String)
	if !ok {
		return MethodCall{}, false
	}
	args, ok := obj.Get("args")
	if !ok {
		args = Null{}
	}
	return MethodCall{Method: string(method), Args: args}, true
}

func (jsonCodec) EncodeSuccessEnvelope(v Value) ([]byte, error) {
	return appendJSON(nil, List{Normalize(v)}, nil)
}

func (jsonCodec) EncodeErrorEnvelope(code, message string, details Value) ([]byte, error) {
	return appendJSON(nil, List{String(code), String(message), Normalize(details)}, nil)
}

func (jsonCodec) DecodeEnvelope(data []byte) (MethodCallResult, bool) {
	if len(data) == 0 {
		return NotImplemented{}, true
	}
	v, ok := decodeJSON(data)
	if !ok {
		return nil, false
	}
	items, ok := v.(List)
	if !ok {
		return nil, false
	}
	switch len(items) {
	case 1:
		return Ok{Value: items[0]}, true
	case 2, 3:
		code, ok := items[0].(String)
		if !ok {
			return nil, false
		}
		var message string
		switch m := items[1].(type) {
		case String:
			message = string(m)
		case Null:
		default:
			return nil, false
		}
		var details Value = Null{}
		if len(items) == 3 {
			details = items[2]
		}
		return Err{Code: string(code), Message: message, Details: details}, true
	default:
		return nil, false
	}
}

func appendJSON(b []byte, v Value, path []string) ([]byte, error) {
	switch v := Normalize(v).(type) {
	case Null:
		return append(b, "null"...), nil
	case Bool:
		return strconv.AppendBool(b, bool(v)), nil
	case Int32:
		return strconv.AppendInt(b, int64(v), 10), nil
	case Int64:
		return strconv.AppendInt(b, int64(v), 10), nil
	case Float64:
		return appendFloat(b, float64(v), path)
	case String:
		if err := validUTF8(string(v), path); err != nil {
			return nil, err
		}
		return appendString(b, string(v)), nil
	case ByteList:
		return appendArray(b, len(v), func(b []byte, i int) ([]byte, error) {
			return strconv.AppendUint(b, uint64(v[i]), 10), nil
		})
	case Int32List:
		return appendArray(b, len(v), func(b []byte, i int) ([]byte, error) {
			return strconv.AppendInt(b, int64(v[i]), 10), nil
		})
	case Int64List:
		return appendArray(b, len(v), func(b []byte, i int) ([]byte, error) {
			return strconv.AppendInt(b, v[i], 10), nil
		})
	case Float64List:
		return appendArray(b, len(v), func(b []byte, i int) ([]byte, error) {
			return appendFloat(b, v[i], append(path, strconv.Itoa(i)))
		})
	case List:
		return appendArray(b, len(v), func(b []byte, i int) ([]byte, error) {
			return appendJSON(b, v[i], append(path, strconv.Itoa(i)))
		})
	case Map:
		b = append(b, '{')
		for i, e := range v {
			key, ok := e.Key.(String)
			if !ok {
				return nil, errors.New(errors.PhaseEncode, errors.KindUnsupported).
					Path(path...).
					Detail("JSON object keys must be strings, got %s", TypeName(e.Key)).
					Build()
			}
			if err := validUTF8(string(key), path); err != nil {
				return nil, err
			}
			if i > 0 {
				b = append(b, ',')
			}
			b = appendString(b, string(key))
			b = append(b, ':')
			var err error
			if b, err = appendJSON(b, e.Value, append(path, string(key))); err != nil {
				return nil, err
			}
		}
		return append(b, '}'), nil
	default:
		return nil, errors.Unsupported(errors.PhaseEncode, "value type "+TypeName(v))
	}
}

func appendArray(b []byte, n int, item func([]byte, int) ([]byte, error)) ([]byte, error) {
	b = append(b, '[')
	for i := range n {
		if i > 0 {
			b = append(b, ',')
		}
		var err error
		if b, err = item(b, i); err != nil {
			return nil, err
		}
	}
	return append(b, ']'), nil
}

// appendFloat keeps a fraction or exponent so the number decodes as Float64.
func appendFloat(b []byte, f float64, path []string) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errors.New(errors.PhaseEncode, errors.KindUnsupported).
			Path(path...).
			Value(f).
			Detail("%v has no JSON representation", f).
			Build()
	}
	start := len(b)
	b = strconv.AppendFloat(b, f, 'g', -1, 64)
	if !strings.ContainsAny(string(b[start:]), ".eE") {
		b = append(b, '.', '0')
	}
	return b, nil
}

func appendString(b []byte, s string) []byte {
	// Marshal of a string never fails.
	q, _ := json.Marshal(s)
	return append(b, q...)
}

func decodeJSON(data []byte) (Value, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, ok := readJSON(dec, 0)
	if !ok {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return v, true
}

func readJSON(dec *json.Decoder, depth int) (Value, bool) {
	if depth > maxDepth {
		return nil, false
	}
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	switch t := tok.(type) {
	case nil:
		return Null{}, true
	case bool:
		return Bool(t), true
	case string:
		return String(t), true
	case json.Number:
		return numberValue(t)
	case json.Delim:
		switch t {
		case '[':
			out := List{}
			for dec.More() {
				item, ok := readJSON(dec, depth+1)
				if !ok {
					return nil, false
				}
				out = append(out, item)
			}
			if end, err := dec.Token(); err != nil || end != json.Delim(']') {
				return nil, false
			}
			return out, true
		case '{':
			out := Map{}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, false
				}
				key, ok := kt.(string)
				if !ok {
					return nil, false
				}
				val, ok := readJSON(dec, depth+1)
				if !ok {
					return nil, false
				}
				out = append(out, MapEntry{Key: String(key), Value: val})
			}
			if end, err := dec.Token(); err != nil || end != json.Delim('}') {
				return nil, false
			}
			return out, true
		}
	}
	return nil, false
}

func numberValue(n json.Number) (Value, bool) {
	s := string(n)
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			if i >= math.MinInt32 && i <= math.MaxInt32 {
				return Int32(int32(i)), true
			}
			return Int64(i), true
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}
	return Float64(f), true
}
