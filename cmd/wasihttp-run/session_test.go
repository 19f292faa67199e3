package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasi-http-abi/bindings"
	"github.com/wippyai/wasi-http-abi/internal/guesttest"
	"github.com/wippyai/wasi-http-abi/resource"
)

var (
	importNewFields = guesttest.Import{
		Namespace: bindings.NamespaceTypes,
		Name:      "new-fields",
		Params:    []api.ValueType{api.ValueTypeI32, api.ValueTypeI32},
		Results:   []api.ValueType{api.ValueTypeI32},
	}
	importDropFields = guesttest.Import{
		Namespace: bindings.NamespaceTypes,
		Name:      "drop-fields",
		Params:    []api.ValueType{api.ValueTypeI32},
	}
)

func newTestSession(t *testing.T) *session {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guest.wasm")
	require.NoError(t, os.WriteFile(path, guesttest.Module(importNewFields, importDropFields), 0o600))

	cfg := defaultConfig()
	cfg.Wasm = path
	var out bytes.Buffer
	sess, err := newSession(context.Background(), cfg, zap.NewNop(), &out, &out)
	require.NoError(t, err)
	t.Cleanup(func() { sess.close(context.Background()) })
	return sess
}

func TestSession_CallsBindingsAndTracksHandles(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)

	assert.Equal(t, "", sess.entryPoint())
	var names []string
	for _, def := range sess.exports() {
		names = append(names, def.ExportNames()[0])
	}
	assert.Contains(t, names, "call_new-fields")

	results, err := sess.call(ctx, guesttest.CallExport(importNewFields), []uint64{0, 0})
	require.NoError(t, err)
	require.Len(t, results, 1)
	fields := results[0]
	assert.Equal(t, []string{fmt.Sprintf("fields:%d", fields)}, sess.handles.leaked())

	traces := sess.takeTraces()
	require.Len(t, traces, 1)
	assert.Equal(t, "new-fields", traces[0].Name)
	assert.NoError(t, traces[0].Err)

	_, err = sess.call(ctx, guesttest.CallExport(importDropFields), []uint64{fields})
	require.NoError(t, err)
	assert.Empty(t, sess.handles.leaked())
}

func TestSession_UnknownExport(t *testing.T) {
	sess := newTestSession(t)
	_, err := sess.call(context.Background(), "missing", nil)
	assert.Error(t, err)
}

func TestHandleTracker(t *testing.T) {
	table := resource.NewTable()
	tr := trackHandles(table)

	a, err := table.Insert(resource.KindFields, "a")
	require.NoError(t, err)
	_, err = table.Insert(resource.KindPollable, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"fields:1", "pollable:2"}, tr.leaked())

	_, err = table.Remove(a, resource.KindFields)
	require.NoError(t, err)
	assert.Equal(t, []string{"pollable:2"}, tr.leaked())
}
