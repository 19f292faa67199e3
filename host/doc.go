// Package host defines the capability surface the bindings delegate to and
// the semantic values that cross it.
//
// Implementations own every handle they mint and sequence all state (open
// streams, pending futures, live fields). Methods receive the guest call's
// context and may block; the guest stays suspended until they return.
//
// A returned Go error aborts the guest call. Conditions the guest is meant to
// observe are returned as values instead: an *Error inside FutureResponse, a
// *StreamError from Read or Write, or ok=false from the body accessors.
package host
