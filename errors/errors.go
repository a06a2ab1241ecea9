package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in message processing the error occurred
type Phase string

const (
	PhaseEncode   Phase = "encode"   // Value to bytes
	PhaseDecode   Phase = "decode"   // bytes to Value
	PhaseDispatch Phase = "dispatch" // channel routing and handler execution
	PhaseRegister Phase = "register" // channel and plugin registration
	PhaseEngine   Phase = "engine"   // calls across the engine boundary
	PhaseTask     Phase = "task"     // platform task scheduling
	PhaseLoad     Phase = "load"     // engine library loading
	PhaseConfig   Phase = "config"   // configuration parsing and validation
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch   Kind = "type_mismatch"
	KindInvalidData    Kind = "invalid_data"
	KindUnsupported    Kind = "unsupported"
	KindOverflow       Kind = "overflow"
	KindNotFound       Kind = "not_found"
	KindNotInitialized Kind = "not_initialized"
	KindInvalidInput   Kind = "invalid_input"
	KindDuplicate      Kind = "duplicate"
	KindUnhandled      Kind = "unhandled"
	KindThreadAffinity Kind = "thread_affinity"
	KindConsumed       Kind = "consumed"
	KindEngine         Kind = "engine"
	KindClosed         Kind = "closed"
)

// Error is the structured error type used throughout the host
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	Channel string
	Method  string
	Detail  string
	Path    []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Channel != "" {
		b.WriteString(" on channel ")
		b.WriteString(e.Channel)
		if e.Method != "" {
			b.WriteString(" method ")
			b.WriteString(e.Method)
		}
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if
// there is none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HasKind reports whether err's chain holds an *Error of kind, whatever
// its phase.
func HasKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				if HasKind(inner, kind) {
					return true
				}
			}
			return false
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		default:
			return false
		}
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the value path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Channel sets the channel name
func (b *Builder) Channel(name string) *Builder {
	b.err.Channel = name
	return b
}

// Method sets the method name
func (b *Builder) Method(name string) *Builder {
	b.err.Method = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, want, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		Detail: fmt.Sprintf("expected %s, got %s", want, got),
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, target string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Detail: fmt.Sprintf("value %v overflows %s", value, target),
		Value:  value,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Dispatch and registration constructors

// DecodeFailed reports an inbound message the channel codec could not decode
func DecodeFailed(channel, codec string, size int) *Error {
	return &Error{
		Phase:   PhaseDecode,
		Kind:    KindInvalidData,
		Channel: channel,
		Detail:  fmt.Sprintf("%s codec rejected %d byte message", codec, size),
	}
}

// UnhandledChannel reports a message for a channel with no registration or no handler
func UnhandledChannel(channel string) *Error {
	return &Error{
		Phase:   PhaseDispatch,
		Kind:    KindUnhandled,
		Channel: channel,
		Detail:  "no handler registered",
	}
}

// DuplicateRegistration reports a second registration under an existing name
func DuplicateRegistration(what, name string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindDuplicate,
		Detail: fmt.Sprintf("%s %q already registered", what, name),
		Value:  name,
	}
}

// ThreadAffinity reports a platform-thread-only call made from another goroutine
func ThreadAffinity(op string) *Error {
	return &Error{
		Phase:  PhaseEngine,
		Kind:   KindThreadAffinity,
		Detail: fmt.Sprintf("%s must be called on the platform thread", op),
	}
}

// AlreadyConsumed reports a second use of a one-shot response handle
func AlreadyConsumed(channel string) *Error {
	return &Error{
		Phase:   PhaseEngine,
		Kind:    KindConsumed,
		Channel: channel,
		Detail:  "response handle already consumed",
	}
}

// EngineResult reports a non-success result code returned by the engine
func EngineResult(op string, code int) *Error {
	return &Error{
		Phase:  PhaseEngine,
		Kind:   KindEngine,
		Detail: fmt.Sprintf("%s returned %s", op, engineResultName(code)),
		Value:  code,
	}
}

func engineResultName(code int) string {
	switch code {
	case 1:
		return "kInvalidLibraryVersion"
	case 2:
		return "kInvalidArguments"
	case 3:
		return "kInternalInconsistency"
	default:
		return fmt.Sprintf("result %d", code)
	}
}

// Closed reports use of a component after shutdown
func Closed(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s closed", component),
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Load creates an engine library loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// Config creates a configuration error
func Config(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}
