package bindings

import "go.bytecodealliance.org/wit"

func typedef(kind wit.TypeDefKind) *wit.TypeDef {
	return &wit.TypeDef{Kind: kind}
}

func option(t wit.Type) wit.Type {
	return typedef(&wit.Option{Type: t})
}

func list(t wit.Type) wit.Type {
	return typedef(&wit.List{Type: t})
}

func result(ok, err wit.Type) wit.Type {
	return typedef(&wit.Result{OK: ok, Err: err})
}

func tuple(types ...wit.Type) wit.Type {
	return typedef(&wit.Tuple{Types: types})
}

// Handles are plain u32 type aliases in this interface version.
var (
	handle = wit.U32{}

	method = typedef(&wit.Variant{Cases: []wit.Case{
		{Name: "get"},
		{Name: "head"},
		{Name: "post"},
		{Name: "put"},
		{Name: "delete"},
		{Name: "connect"},
		{Name: "options"},
		{Name: "trace"},
		{Name: "patch"},
		{Name: "other", Type: wit.String{}},
	}})

	scheme = typedef(&wit.Variant{Cases: []wit.Case{
		{Name: "HTTP"},
		{Name: "HTTPS"},
		{Name: "other", Type: wit.String{}},
	}})

	httpError = typedef(&wit.Variant{Cases: []wit.Case{
		{Name: "invalid-url", Type: wit.String{}},
		{Name: "timeout-error", Type: wit.String{}},
		{Name: "protocol-error", Type: wit.String{}},
		{Name: "unexpected-error", Type: wit.String{}},
	}})

	requestOptions = typedef(&wit.Record{Fields: []wit.Field{
		{Name: "connect-timeout-ms", Type: option(wit.U32{})},
		{Name: "first-byte-timeout-ms", Type: option(wit.U32{})},
		{Name: "between-bytes-timeout-ms", Type: option(wit.U32{})},
	}})

	streamStatus = typedef(&wit.Enum{Cases: []wit.EnumCase{
		{Name: "open"},
		{Name: "ended"},
	}})

	streamError = typedef(&wit.Record{})

	bytes   = list(wit.U8{})
	entries = list(tuple(wit.String{}, wit.String{}))
)
