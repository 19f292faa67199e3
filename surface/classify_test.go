package surface

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wippyai/wasi-http-abi/host"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want host.ErrorKind
	}{
		{context.DeadlineExceeded, "deadline", host.ErrorTimeout},
		{errFirstByteTimeout, "first byte", host.ErrorTimeout},
		{&url.Error{Op: "parse", URL: "::", Err: errors.New("missing protocol scheme")}, "parse", host.ErrorInvalidURL},
		{&url.Error{Op: "Get", URL: "ftp://x", Err: errors.New(`unsupported protocol scheme "ftp"`)}, "scheme", host.ErrorInvalidURL},
		{&url.Error{Op: "Get", URL: "http://x", Err: io.ErrUnexpectedEOF}, "eof", host.ErrorProtocol},
		{fmt.Errorf("net/http: HTTP/1.x transport connection broken: malformed HTTP response"), "malformed", host.ErrorProtocol},
		{errors.New("connection refused"), "refused", host.ErrorUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorKind(tt.err))
		})
	}
}

func TestClassify_CausePrecedence(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(errBetweenBytesTimeout)

	got := classify(ctx, context.Canceled)
	assert.Equal(t, host.ErrorTimeout, got.Kind)
	assert.Equal(t, "between-bytes timeout", got.Message)

	plain, stop := context.WithCancel(context.Background())
	stop()
	got = classify(plain, errors.New("boom"))
	assert.Equal(t, host.ErrorUnexpected, got.Kind)
	assert.Equal(t, "boom", got.Message)
}
