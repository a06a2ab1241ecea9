package codec

import (
	"math"
	"unicode/utf8"

	"github.com/wippyai/flutter-host/errors"
)

// Wire tags of the standard binary format.
const (
	tagNull        byte = 0
	tagTrue        byte = 1
	tagFalse       byte = 2
	tagInt32       byte = 3
	tagInt64       byte = 4
	tagLargeInt    byte = 5
	tagFloat64     byte = 6
	tagString      byte = 7
	tagUint8List   byte = 8
	tagInt32List   byte = 9
	tagInt64List   byte = 10
	tagFloat64List byte = 11
	tagList        byte = 12
	tagMap         byte = 13
	tagFloat32List byte = 14
)

// Envelope discriminators.
const (
	envelopeSuccess byte = 0
	envelopeError   byte = 1
)

// maxDepth bounds container nesting accepted by the decoder.
const maxDepth = 512

// Standard is the binary codec shared with the engine's standard method codec.
var Standard MethodCodec = standardCodec{}

type standardCodec struct{}

func (standardCodec) Name() string { return "standard" }

func (standardCodec) EncodeMessage(v Value) ([]byte, error) {
	w := getWriter()
	defer putWriter(w)
	if err := w.value(v, nil); err != nil {
		return nil, err
	}
	return w.bytes(), nil
}

func (standardCodec) DecodeMessage(data []byte) (Value, bool) {
	if len(data) == 0 {
		return Null{}, true
	}
	r := reader{data: data}
	v, ok := r.value(0)
	if !ok || !r.done() {
		return nil, false
	}
	return v, true
}

func (standardCodec) EncodeMethodCall(call MethodCall) ([]byte, error) {
	w := getWriter()
	defer putWriter(w)
	if err := w.value(String(call.Method), nil); err != nil {
		return nil, err
	}
	if err := w.value(call.Args, []string{"args"}); err != nil {
		return nil, err
	}
	return w.bytes(), nil
}

func (standardCodec) DecodeMethodCall(data []byte) (MethodCall, bool) {
	r := reader{data: data}
	name, ok := r.value(0)
	if !ok {
		return MethodCall{}, false
	}
	method, ok := name.(String)
	if !ok {
		return MethodCall{}, false
	}
	args, ok := r.value(0)
	if !ok || !r.done() {
		return MethodCall{}, false
	}
	return MethodCall{Method: string(method), Args: args}, true
}

func (standardCodec) EncodeSuccessEnvelope(v Value) ([]byte, error) {
	w := getWriter()
	defer putWriter(w)
	w.byte(envelopeSuccess)
	if err := w.value(v, nil); err != nil {
		return nil, err
	}
	return w.bytes(), nil
}

func (standardCodec) EncodeErrorEnvelope(code, message string, details Value) ([]byte, error) {
	w := getWriter()
	defer putWriter(w)
	w.byte(envelopeError)
	if err := w.value(String(code), []string{"code"}); err != nil {
		return nil, err
	}
	if err := w.value(String(message), []string{"message"}); err != nil {
		return nil, err
	}
	if err := w.value(details, []string{"details"}); err != nil {
		return nil, err
	}
	return w.bytes(), nil
}

func (standardCodec) DecodeEnvelope(data []byte) (MethodCallResult, bool) {
	if len(data) == 0 {
		return NotImplemented{}, true
	}
	r := reader{data: data}
	kind, _ := r.byte()
	switch kind {
	case envelopeSuccess:
		v, ok := r.value(0)
		if !ok || !r.done() {
			return nil, false
		}
		return Ok{Value: v}, true
	case envelopeError:
		code, ok := r.value(0)
		if !ok {
			return nil, false
		}
		codeStr, ok := code.(String)
		if !ok {
			return nil, false
		}
		msg, ok := r.value(0)
		if !ok {
			return nil, false
		}
		var message string
		switch m := msg.(type) {
		case String:
			message = string(m)
		case Null:
		default:
			return nil, false
		}
		details, ok := r.value(0)
		if !ok || !r.done() {
			return nil, false
		}
		return Err{Code: string(codeStr), Message: message, Details: details}, true
	default:
		return nil, false
	}
}

// writer appends standard-format values to a byte buffer.
// Alignment is relative to the start of the buffer.
type writer struct {
	buf []byte
}

func (w *writer) bytes() []byte {
	out := make([]byte, len(w.buf))
	copy(out, w.buf)
	return out
}

func (w *writer) byte(b byte) {
	w.buf = append(w.buf, b)
}

func (w *writer) uint16(v uint16) {
	w.buf = append(w.buf, byte(v), byte(v>>8))
}

func (w *writer) uint32(v uint32) {
	w.buf = append(w.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (w *writer) uint64(v uint64) {
	w.buf = append(w.buf,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

func (w *writer) align(n int) {
	if mod := len(w.buf) % n; mod != 0 {
		for i := mod; i < n; i++ {
			w.buf = append(w.buf, 0)
		}
	}
}

func (w *writer) size(n int, path []string) error {
	switch {
	case n < 254:
		w.byte(byte(n))
	case n <= math.MaxUint16:
		w.byte(254)
		w.uint16(uint16(n))
	case uint64(n) <= math.MaxUint32:
		w.byte(255)
		w.uint32(uint32(n))
	default:
		return errors.Overflow(errors.PhaseEncode, path, n, "uint32 size")
	}
	return nil
}

// validUTF8 rejects strings no decoder would return unchanged.
func validUTF8(s string, path []string) error {
	if utf8.ValidString(s) {
		return nil
	}
	return errors.New(errors.PhaseEncode, errors.KindInvalidData).
		Path(path...).
		Value(s).
		Detail("string is not valid UTF-8").
		Build()
}

func (w *writer) value(v Value, path []string) error {
	switch v := Normalize(v).(type) {
	case Null:
		w.byte(tagNull)
	case Bool:
		if v {
			w.byte(tagTrue)
		} else {
			w.byte(tagFalse)
		}
	case Int32:
		w.byte(tagInt32)
		w.uint32(uint32(v))
	case Int64:
		w.byte(tagInt64)
		w.uint64(uint64(v))
	case Float64:
		w.byte(tagFloat64)
		w.align(8)
		w.uint64(math.Float64bits(float64(v)))
	case String:
		if err := validUTF8(string(v), path); err != nil {
			return err
		}
		w.byte(tagString)
		if err := w.size(len(v), path); err != nil {
			return err
		}
		w.buf = append(w.buf, v...)
	case ByteList:
		w.byte(tagUint8List)
		if err := w.size(len(v), path); err != nil {
			return err
		}
		w.buf = append(w.buf, v...)
	case Int32List:
		w.byte(tagInt32List)
		if err := w.size(len(v), path); err != nil {
			return err
		}
		w.align(4)
		for _, x := range v {
			w.uint32(uint32(x))
		}
	case Int64List:
		w.byte(tagInt64List)
		if err := w.size(len(v), path); err != nil {
			return err
		}
		w.align(8)
		for _, x := range v {
			w.uint64(uint64(x))
		}
	case Float64List:
		w.byte(tagFloat64List)
		if err := w.size(len(v), path); err != nil {
			return err
		}
		w.align(8)
		for _, x := range v {
			w.uint64(math.Float64bits(x))
		}
	case List:
		w.byte(tagList)
		if err := w.size(len(v), path); err != nil {
			return err
		}
		for _, item := range v {
			if err := w.value(item, path); err != nil {
				return err
			}
		}
	case Map:
		w.byte(tagMap)
		if err := w.size(len(v), path); err != nil {
			return err
		}
		for _, e := range v {
			if err := w.value(e.Key, path); err != nil {
				return err
			}
			if err := w.value(e.Value, path); err != nil {
				return err
			}
		}
	default:
		return errors.Unsupported(errors.PhaseEncode, "value type "+TypeName(v))
	}
	return nil
}

// reader decodes standard-format values. Every method reports ok=false
// instead of reading past the end of data.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) done() bool {
	return r.pos == len(r.data)
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) byte() (byte, bool) {
	if r.pos >= len(r.data) {
		return 0, false
	}
	b := r.data[r.pos]
	r.pos++
	return b, true
}

func (r *reader) take(n int) ([]byte, bool) {
	if n < 0 || n > r.remaining() {
		return nil, false
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, true
}

func (r *reader) uint16() (uint16, bool) {
	b, ok := r.take(2)
	if !ok {
		return 0, false
	}
	return uint16(b[0]) | uint16(b[1])<<8, true
}

func (r *reader) uint32() (uint32, bool) {
	b, ok := r.take(4)
	if !ok {
		return 0, false
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, true
}

func (r *reader) uint64() (uint64, bool) {
	b, ok := r.take(8)
	if !ok {
		return 0, false
	}
	lo := uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24
	hi := uint64(b[4]) | uint64(b[5])<<8 | uint64(b[6])<<16 | uint64(b[7])<<24
	return lo | hi<<32, true
}

func (r *reader) align(n int) bool {
	if mod := r.pos % n; mod != 0 {
		_, ok := r.take(n - mod)
		return ok
	}
	return true
}

func (r *reader) size() (int, bool) {
	b, ok := r.byte()
	if !ok {
		return 0, false
	}
	switch b {
	case 254:
		v, ok := r.uint16()
		return int(v), ok
	case 255:
		v, ok := r.uint32()
		return int(v), ok
	default:
		return int(b), true
	}
}

// elements reads a size prefix and checks that count items of width bytes fit.
func (r *reader) elements(width int) (int, bool) {
	n, ok := r.size()
	if !ok {
		return 0, false
	}
	if width > 0 && n > r.remaining()/width {
		return 0, false
	}
	return n, true
}

func (r *reader) value(depth int) (Value, bool) {
	if depth > maxDepth {
		return nil, false
	}
	tag, ok := r.byte()
	if !ok {
		return nil, false
	}
	switch tag {
	case tagNull:
		return Null{}, true
	case tagTrue:
		return Bool(true), true
	case tagFalse:
		return Bool(false), true
	case tagInt32:
		v, ok := r.uint32()
		return Int32(int32(v)), ok
	case tagInt64:
		v, ok := r.uint64()
		return Int64(int64(v)), ok
	case tagFloat64:
		if !r.align(8) {
			return nil, false
		}
		v, ok := r.uint64()
		return Float64(math.Float64frombits(v)), ok
	case tagString:
		n, ok := r.elements(1)
		if !ok {
			return nil, false
		}
		b, _ := r.take(n)
		if !utf8.Valid(b) {
			return nil, false
		}
		return String(b), true
	case tagUint8List:
		n, ok := r.elements(1)
		if !ok {
			return nil, false
		}
		b, _ := r.take(n)
		out := make(ByteList, n)
		copy(out, b)
		return out, true
	case tagInt32List:
		n, ok := r.size()
		if !ok || !r.align(4) || n > r.remaining()/4 {
			return nil, false
		}
		out := make(Int32List, n)
		for i := range out {
			v, _ := r.uint32()
			out[i] = int32(v)
		}
		return out, true
	case tagInt64List:
		n, ok := r.size()
		if !ok || !r.align(8) || n > r.remaining()/8 {
			return nil, false
		}
		out := make(Int64List, n)
		for i := range out {
			v, _ := r.uint64()
			out[i] = int64(v)
		}
		return out, true
	case tagFloat64List:
		n, ok := r.size()
		if !ok || !r.align(8) || n > r.remaining()/8 {
			return nil, false
		}
		out := make(Float64List, n)
		for i := range out {
			v, _ := r.uint64()
			out[i] = math.Float64frombits(v)
		}
		return out, true
	case tagList:
		n, ok := r.elements(1)
		if !ok {
			return nil, false
		}
		out := make(List, 0, n)
		for range n {
			item, ok := r.value(depth + 1)
			if !ok {
				return nil, false
			}
			out = append(out, item)
		}
		return out, true
	case tagMap:
		n, ok := r.elements(2)
		if !ok {
			return nil, false
		}
		out := make(Map, 0, n)
		for range n {
			k, ok := r.value(depth + 1)
			if !ok {
				return nil, false
			}
			v, ok := r.value(depth + 1)
			if !ok {
				return nil, false
			}
			out = append(out, MapEntry{Key: k, Value: v})
		}
		return out, true
	default:
		// tagLargeInt, tagFloat32List and unknown tags are outside the value model.
		return nil, false
	}
}
