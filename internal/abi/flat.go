package abi

import (
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
)

const (
	// MaxFlatParams is the parameter count above which arguments are passed
	// through memory.
	MaxFlatParams = 16
	// MaxFlatResults is the result count above which results are written to
	// a caller-supplied pointer.
	MaxFlatResults = 1
)

// Signature is a function in WIT terms.
type Signature struct {
	Params  []wit.Type
	Results []wit.Type
}

// FlatCount returns the number of core values t flattens to.
func FlatCount(t wit.Type) int {
	return len(FlatTypes(t))
}

// FlatTypes returns the core value types t flattens to. Variant payloads are
// joined position by position: equal types stay, i32 and f32 become i32,
// anything else becomes i64.
func FlatTypes(t wit.Type) []api.ValueType {
	switch t := t.(type) {
	case wit.Bool, wit.U8, wit.S8, wit.U16, wit.S16, wit.U32, wit.S32, wit.Char:
		return []api.ValueType{api.ValueTypeI32}
	case wit.U64, wit.S64:
		return []api.ValueType{api.ValueTypeI64}
	case wit.F32:
		return []api.ValueType{api.ValueTypeF32}
	case wit.F64:
		return []api.ValueType{api.ValueTypeF64}
	case wit.String:
		return []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}
	case *wit.TypeDef:
		switch kind := t.Kind.(type) {
		case *wit.Record:
			var out []api.ValueType
			for _, f := range kind.Fields {
				out = append(out, FlatTypes(f.Type)...)
			}
			return out
		case *wit.Tuple:
			var out []api.ValueType
			for _, elem := range kind.Types {
				out = append(out, FlatTypes(elem)...)
			}
			return out
		case *wit.List:
			return []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}
		case *wit.Option:
			return variant(nil, kind.Type)
		case *wit.Result:
			return variant(kind.OK, kind.Err)
		case *wit.Variant:
			cases := make([]wit.Type, len(kind.Cases))
			for i, c := range kind.Cases {
				cases[i] = c.Type
			}
			return variant(cases...)
		case *wit.Enum, *wit.Flags, *wit.Own, *wit.Borrow:
			return []api.ValueType{api.ValueTypeI32}
		case wit.Type:
			return FlatTypes(kind)
		}
	}
	return []api.ValueType{api.ValueTypeI32}
}

// variant flattens a discriminant followed by the joined case payloads.
// Nil entries are cases without a payload.
func variant(cases ...wit.Type) []api.ValueType {
	var payload []api.ValueType
	for _, c := range cases {
		if c == nil {
			continue
		}
		for i, vt := range FlatTypes(c) {
			if i < len(payload) {
				payload[i] = join(payload[i], vt)
			} else {
				payload = append(payload, vt)
			}
		}
	}
	return append([]api.ValueType{api.ValueTypeI32}, payload...)
}

func join(a, b api.ValueType) api.ValueType {
	if a == b {
		return a
	}
	if (a == api.ValueTypeI32 && b == api.ValueTypeF32) || (a == api.ValueTypeF32 && b == api.ValueTypeI32) {
		return api.ValueTypeI32
	}
	return api.ValueTypeI64
}

// Lower returns the core signature an imported function with sig has.
// Results that do not fit in MaxFlatResults become a trailing i32 out-pointer
// parameter and the function returns nothing.
func Lower(sig Signature) (params, results []api.ValueType) {
	for _, p := range sig.Params {
		params = append(params, FlatTypes(p)...)
	}
	if len(params) > MaxFlatParams {
		params = []api.ValueType{api.ValueTypeI32}
	}

	for _, r := range sig.Results {
		results = append(results, FlatTypes(r)...)
	}
	if len(results) > MaxFlatResults {
		params = append(params, api.ValueTypeI32)
		results = nil
	}
	return params, results
}

// UsesRetptr reports whether sig returns through an out-pointer.
func UsesRetptr(sig Signature) bool {
	n := 0
	for _, r := range sig.Results {
		n += FlatCount(r)
	}
	return n > MaxFlatResults
}
