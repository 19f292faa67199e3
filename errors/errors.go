package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode   Phase = "decode"   // guest memory to Go
	PhaseEncode   Phase = "encode"   // Go to guest memory
	PhaseAlloc    Phase = "alloc"    // guest allocator calls
	PhaseHost     Phase = "host"     // host capability surface calls
	PhaseRegister Phase = "register" // binding table registration
	PhaseConfig   Phase = "config"   // option and config validation
)

// Kind categorizes the error
type Kind string

const (
	KindOutOfBounds   Kind = "out_of_bounds"
	KindInvalidUTF8   Kind = "invalid_utf8"
	KindMissingExport Kind = "missing_export"
	KindTypeMismatch  Kind = "type_mismatch"
	KindAllocation    Kind = "allocation"
	KindHost          Kind = "host_failure"
	KindRegistration  Kind = "registration"
	KindInvalidInput  Kind = "invalid_input"
)

// Error is the structured error type used throughout the module.
// Every Error surfaced by a binding aborts the current guest call.
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
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
		b.WriteString(strings.Join(e.Path, "#"))
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

// Path sets the binding path, usually namespace and function name
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
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

// BufferTooSmall reports an access whose end overflows or exceeds the region.
func BufferTooSmall(phase Phase, offset, length, size uint32) *Error {
	return New(phase, KindOutOfBounds).
		Detail("buffer too small: offset=%d length=%d size=%d", offset, length, size).
		Value(offset).
		Build()
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return New(phase, KindInvalidUTF8).
		Detail("invalid UTF-8 sequence: %x", preview).
		Build()
}

// MissingExport reports a guest export the adapter requires.
func MissingExport(phase Phase, name string) *Error {
	return New(phase, KindMissingExport).
		Detail("missing required export %q", name).
		Value(name).
		Build()
}

// ExportTypeMismatch reports a guest export with an unexpected signature.
func ExportTypeMismatch(phase Phase, name, want, got string) *Error {
	return New(phase, KindTypeMismatch).
		Detail("export %q must be %s, got %s", name, want, got).
		Value(name).
		Build()
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(size uint32, cause error) *Error {
	return New(PhaseAlloc, KindAllocation).
		Detail("failed to allocate %d bytes", size).
		Cause(cause).
		Value(size).
		Build()
}

// HostFailed wraps a host surface failure that cannot be returned as data.
func HostFailed(namespace, name string, cause error) *Error {
	return New(PhaseHost, KindHost).
		Path(namespace, name).
		Cause(cause).
		Build()
}

// Registration creates a registration error
func Registration(namespace, name string, cause error) *Error {
	return New(PhaseRegister, KindRegistration).
		Detail("register %s#%s", namespace, name).
		Cause(cause).
		Build()
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return New(phase, KindInvalidInput).Detail("%s", detail).Build()
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return New(phase, kind).Detail("%s", detail).Cause(cause).Build()
}

// At returns a copy of the *Error in err's chain with its path set to the
// binding that raised it. Errors with no *Error in their chain are wrapped
// as host failures.
func At(err error, namespace, name string) *Error {
	var e *Error
	if !stderrors.As(err, &e) {
		return HostFailed(namespace, name, err)
	}
	c := *e
	c.Path = []string{namespace, name}
	return &c
}
