package host

import (
	"fmt"
	"time"
)

// MethodKind is the fixed part of the method variant. The numeric value is
// the wire discriminant.
type MethodKind uint8

const (
	MethodGet MethodKind = iota
	MethodHead
	MethodPost
	MethodPut
	MethodDelete
	MethodConnect
	MethodOptions
	MethodTrace
	MethodPatch
	// MethodOther carries a method name outside the fixed set.
	MethodOther
)

var methodNames = [...]string{
	MethodGet:     "GET",
	MethodHead:    "HEAD",
	MethodPost:    "POST",
	MethodPut:     "PUT",
	MethodDelete:  "DELETE",
	MethodConnect: "CONNECT",
	MethodOptions: "OPTIONS",
	MethodTrace:   "TRACE",
	MethodPatch:   "PATCH",
}

// Method is an HTTP method: one of the fixed kinds, or Other.
type Method struct {
	Other string
	Kind  MethodKind
}

// OtherMethod returns the open arm of the method variant.
func OtherMethod(name string) Method {
	return Method{Kind: MethodOther, Other: name}
}

// String returns the request-line token.
func (m Method) String() string {
	if m.Kind < MethodOther {
		return methodNames[m.Kind]
	}
	return m.Other
}

// SchemeKind is the fixed part of the scheme variant.
type SchemeKind uint8

const (
	SchemeHTTP SchemeKind = iota
	SchemeHTTPS
	SchemeOther
)

// Scheme is a URL scheme: http, https or Other.
type Scheme struct {
	Other string
	Kind  SchemeKind
}

// OtherScheme returns the open arm of the scheme variant.
func OtherScheme(name string) Scheme {
	return Scheme{Kind: SchemeOther, Other: name}
}

func (s Scheme) String() string {
	switch s.Kind {
	case SchemeHTTP:
		return "http"
	case SchemeHTTPS:
		return "https"
	default:
		return s.Other
	}
}

// ErrorKind is the discriminant of an HTTP error returned to the guest.
type ErrorKind uint8

const (
	ErrorInvalidURL ErrorKind = iota
	ErrorTimeout
	ErrorProtocol
	ErrorUnexpected
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorInvalidURL:
		return "invalid-url"
	case ErrorTimeout:
		return "timeout-error"
	case ErrorProtocol:
		return "protocol-error"
	default:
		return "unexpected-error"
	}
}

// Error is an HTTP failure the guest receives as data.
type Error struct {
	Message string
	Kind    ErrorKind
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// RequestOptions carries the optional per-request timeouts.
type RequestOptions struct {
	ConnectTimeout      *time.Duration
	FirstByteTimeout    *time.Duration
	BetweenBytesTimeout *time.Duration
}

// StreamStatus reports whether a stream can produce or accept more data.
type StreamStatus uint32

const (
	StreamOpen StreamStatus = iota
	StreamEnded
)

// StreamError is a stream failure the guest receives as data.
type StreamError struct {
	Reason string
}

func (e *StreamError) Error() string {
	if e.Reason == "" {
		return "stream error"
	}
	return "stream error: " + e.Reason
}

// Field is one header-like name/value pair. Values are raw bytes.
type Field struct {
	Name  string
	Value []byte
}

// FutureResponse is the state of a pending outgoing request.
// Ready is false while the response is still in flight.
type FutureResponse struct {
	Err      *Error
	Response uint32
	Ready    bool
}
