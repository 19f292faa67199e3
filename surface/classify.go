package surface

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/url"
	"strings"

	"github.com/wippyai/wasi-http-abi/host"
)

// classify maps a send failure to the error kind the guest sees. A cause
// recorded on ctx (a guest timeout firing) takes precedence over err.
func classify(ctx context.Context, err error) *host.Error {
	if cause := context.Cause(ctx); cause != nil && errors.Is(cause, context.DeadlineExceeded) {
		return &host.Error{Kind: host.ErrorTimeout, Message: cause.Error()}
	}
	return &host.Error{Kind: errorKind(err), Message: err.Error()}
}

func errorKind(err error) host.ErrorKind {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return host.ErrorTimeout
	}

	var ue *url.Error
	if errors.As(err, &ue) && ue.Op == "parse" {
		return host.ErrorInvalidURL
	}
	msg := err.Error()
	if strings.Contains(msg, "unsupported protocol scheme") ||
		strings.Contains(msg, "no Host in request URL") ||
		strings.Contains(msg, "invalid URL") {
		return host.ErrorInvalidURL
	}

	var rhe tls.RecordHeaderError
	if errors.As(err, &rhe) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		strings.Contains(msg, "malformed HTTP") ||
		strings.Contains(msg, "invalid method") ||
		strings.Contains(msg, "server gave HTTP response to HTTPS client") {
		return host.ErrorProtocol
	}
	return host.ErrorUnexpected
}
