package surface

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/wippyai/wasi-http-abi/host"
	"github.com/wippyai/wasi-http-abi/resource"
)

type fields struct {
	entries []host.Field
}

func (f *fields) clone() []host.Field {
	return cloneFields(f.entries)
}

func cloneFields(entries []host.Field) []host.Field {
	out := make([]host.Field, len(entries))
	for i, e := range entries {
		out[i] = host.Field{Name: e.Name, Value: append([]byte(nil), e.Value...)}
	}
	return out
}

// fromHeader converts response headers to fields with lower-case names,
// sorted by name with values in received order.
func fromHeader(h http.Header) []host.Field {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []host.Field
	for _, name := range names {
		lower := strings.ToLower(name)
		for _, v := range h[name] {
			out = append(out, host.Field{Name: lower, Value: []byte(v)})
		}
	}
	return out
}

// NewFields stores a copy of entries as a new fields resource.
func (s *Surface) NewFields(_ context.Context, entries []host.Field) (uint32, error) {
	return s.insert(resource.KindFields, &fields{entries: cloneFields(entries)})
}

// FieldsEntries returns a copy of the entries held by fields h.
func (s *Surface) FieldsEntries(_ context.Context, h uint32) ([]host.Field, error) {
	f, err := resource.Lookup[*fields](s.table, resource.Handle(h), resource.KindFields)
	if err != nil {
		return nil, err
	}
	return f.clone(), nil
}

// DropFields releases fields h.
func (s *Surface) DropFields(_ context.Context, h uint32) error {
	return s.remove(resource.KindFields, h)
}
