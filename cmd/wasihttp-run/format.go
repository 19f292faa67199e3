package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasi-http-abi/bindings"
	"github.com/wippyai/wasi-http-abi/host"
)

// parseArg encodes one textual argument as a core value of type t.
func parseArg(value string, t api.ValueType) (uint64, error) {
	value = strings.TrimSpace(value)
	switch t {
	case api.ValueTypeI32:
		v, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			return 0, err
		}
		if v < math.MinInt32 || v > math.MaxUint32 {
			return 0, fmt.Errorf("%s out of range for i32", value)
		}
		return uint64(uint32(v)), nil
	case api.ValueTypeI64:
		v, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			u, uerr := strconv.ParseUint(value, 0, 64)
			if uerr != nil {
				return 0, err
			}
			return u, nil
		}
		return api.EncodeI64(v), nil
	case api.ValueTypeF32:
		v, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return 0, err
		}
		return api.EncodeF32(float32(v)), nil
	case api.ValueTypeF64:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, err
		}
		return api.EncodeF64(v), nil
	default:
		return 0, fmt.Errorf("unsupported parameter type %s", api.ValueTypeName(t))
	}
}

// parseArgs splits a comma-separated argument list and encodes it against
// the parameter types of def.
func parseArgs(list string, params []api.ValueType) ([]uint64, error) {
	var fields []string
	if strings.TrimSpace(list) != "" {
		fields = strings.Split(list, ",")
	}
	if len(fields) != len(params) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(params), len(fields))
	}
	out := make([]uint64, len(params))
	for i, f := range fields {
		v, err := parseArg(f, params[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func formatResults(results []uint64, types []api.ValueType) string {
	if len(results) == 0 {
		return "()"
	}
	parts := make([]string, len(results))
	for i, r := range results {
		switch types[i] {
		case api.ValueTypeI32:
			parts[i] = strconv.FormatInt(int64(api.DecodeI32(r)), 10)
		case api.ValueTypeF32:
			parts[i] = strconv.FormatFloat(float64(api.DecodeF32(r)), 'g', -1, 32)
		case api.ValueTypeF64:
			parts[i] = strconv.FormatFloat(api.DecodeF64(r), 'g', -1, 64)
		default:
			parts[i] = strconv.FormatInt(int64(r), 10)
		}
	}
	return strings.Join(parts, ", ")
}

func coreSig(params, results []api.ValueType) string {
	names := func(ts []api.ValueType) string {
		s := make([]string, len(ts))
		for i, t := range ts {
			s[i] = api.ValueTypeName(t)
		}
		return strings.Join(s, ", ")
	}
	out := "(" + names(params) + ")"
	if len(results) > 0 {
		out += " -> " + names(results)
	}
	return out
}

func witSig(params, results []wit.Type) string {
	names := func(ts []wit.Type) string {
		s := make([]string, len(ts))
		for i, t := range ts {
			s[i] = witTypeStr(t)
		}
		return strings.Join(s, ", ")
	}
	out := "func(" + names(params) + ")"
	if len(results) > 0 {
		out += " -> " + names(results)
	}
	return out
}

func witTypeStr(t wit.Type) string {
	switch v := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if v.Name != nil {
			return *v.Name
		}
		switch k := v.Kind.(type) {
		case *wit.Option:
			return "option<" + witTypeStr(k.Type) + ">"
		case *wit.List:
			return "list<" + witTypeStr(k.Type) + ">"
		case *wit.Result:
			ok, err := "_", "_"
			if k.OK != nil {
				ok = witTypeStr(k.OK)
			}
			if k.Err != nil {
				err = witTypeStr(k.Err)
			}
			if k.Err == nil {
				return "result<" + ok + ">"
			}
			return "result<" + ok + ", " + err + ">"
		case *wit.Tuple:
			parts := make([]string, len(k.Types))
			for i, e := range k.Types {
				parts[i] = witTypeStr(e)
			}
			return "tuple<" + strings.Join(parts, ", ") + ">"
		case *wit.Variant:
			parts := make([]string, len(k.Cases))
			for i, c := range k.Cases {
				parts[i] = c.Name
			}
			return "variant{" + strings.Join(parts, ", ") + "}"
		case *wit.Enum:
			parts := make([]string, len(k.Cases))
			for i, c := range k.Cases {
				parts[i] = c.Name
			}
			return "enum{" + strings.Join(parts, ", ") + "}"
		case *wit.Record:
			parts := make([]string, len(k.Fields))
			for i, f := range k.Fields {
				parts[i] = f.Name
			}
			return "record{" + strings.Join(parts, ", ") + "}"
		}
		return "typedef"
	default:
		return fmt.Sprintf("%T", t)
	}
}

// printBindings writes the binding table with both signatures.
func printBindings(w io.Writer, h host.Host) error {
	defs, err := bindings.Table(h)
	if err != nil {
		return err
	}
	ns := ""
	for _, d := range defs {
		if d.Namespace != ns {
			ns = d.Namespace
			fmt.Fprintf(w, "\n%s\n", ns)
		}
		retptr := ""
		if d.Retptr {
			retptr = " [out-pointer]"
		}
		fmt.Fprintf(w, "  %s%s%s\n", d.Name, coreSig(d.Params, d.Results), retptr)
		fmt.Fprintf(w, "    %s\n", witSig(d.Signature.Params, d.Signature.Results))
	}
	return nil
}
