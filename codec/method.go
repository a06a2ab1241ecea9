package codec

// MethodCall is a named remote invocation with one argument value.
type MethodCall struct {
	Method string
	Args   Value
}

// MethodCallResult is the outcome of a method call: Ok, Err or NotImplemented.
type MethodCallResult interface {
	isResult()
}

// Ok carries a successful return value.
type Ok struct {
	Value Value
}

// Err carries a structured failure reported by the handler.
type Err struct {
	Code    string
	Message string
	Details Value
}

// NotImplemented means the receiver does not handle the method.
// It is encoded as an empty response.
type NotImplemented struct{}

func (Ok) isResult()             {}
func (Err) isResult()            {}
func (NotImplemented) isResult() {}

// MethodCodec converts method calls, envelopes and plain messages to and
// from bytes. Decoding never panics; malformed input reports ok=false.
type MethodCodec interface {
	Name() string

	EncodeMessage(v Value) ([]byte, error)
	DecodeMessage(data []byte) (Value, bool)

	EncodeMethodCall(call MethodCall) ([]byte, error)
	DecodeMethodCall(data []byte) (MethodCall, bool)

	EncodeSuccessEnvelope(v Value) ([]byte, error)
	EncodeErrorEnvelope(code, message string, details Value) ([]byte, error)
	DecodeEnvelope(data []byte) (MethodCallResult, bool)
}

// EncodeResult encodes any MethodCallResult with c.
// NotImplemented encodes to an empty, non-nil slice.
func EncodeResult(c MethodCodec, r MethodCallResult) ([]byte, error) {
	switch r := r.(type) {
	case Ok:
		return c.EncodeSuccessEnvelope(r.Value)
	case Err:
		return c.EncodeErrorEnvelope(r.Code, r.Message, r.Details)
	default:
		return []byte{}, nil
	}
}
