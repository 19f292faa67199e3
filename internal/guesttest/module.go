package guesttest

import (
	"github.com/tetratelabs/wazero/api"
)

// Import names a host function the compiled guest imports.
type Import struct {
	Namespace string
	Name      string
	Params    []api.ValueType
	Results   []api.ValueType
}

// CallExport is the name of the export that forwards to imp.
func CallExport(imp Import) string {
	return "call_" + imp.Name
}

const (
	sectionType     = 1
	sectionImport   = 2
	sectionFunction = 3
	sectionMemory   = 5
	sectionGlobal   = 6
	sectionExport   = 7
	sectionCode     = 10

	externFunc   = 0x00
	externMemory = 0x02

	opEnd       = 0x0b
	opCall      = 0x10
	opLocalGet  = 0x20
	opLocalSet  = 0x21
	opGlobalGet = 0x23
	opGlobalSet = 0x24
	opI32Const  = 0x41
	opI32Add    = 0x6a
	opI32And    = 0x71
)

// Module encodes a core WebAssembly module that imports every entry of
// imports, exports one page of "memory", a bump "cabi_realloc" starting at
// HeapBase, and for each import an export named CallExport(imp) with the
// same signature that forwards its arguments to the import.
func Module(imports ...Import) []byte {
	n := uint32(len(imports))
	i32 := api.ValueTypeI32

	// Types: one per import, then cabi_realloc.
	var types [][]byte
	for _, imp := range imports {
		types = append(types, funcType(imp.Params, imp.Results))
	}
	types = append(types, funcType([]api.ValueType{i32, i32, i32, i32}, []api.ValueType{i32}))

	var importSec [][]byte
	for i, imp := range imports {
		entry := append(name(imp.Namespace), name(imp.Name)...)
		entry = append(entry, externFunc)
		entry = append(entry, uleb(uint32(i))...)
		importSec = append(importSec, entry)
	}

	// Functions: cabi_realloc, then one forwarder per import.
	funcs := [][]byte{uleb(n)}
	for i := range imports {
		funcs = append(funcs, uleb(uint32(i)))
	}

	memories := [][]byte{{0x00, 0x01}}

	heapInit := append([]byte{opI32Const}, sleb(HeapBase)...)
	heapInit = append(heapInit, opEnd)
	globals := [][]byte{append([]byte{byte(i32), 0x01}, heapInit...)}

	exports := [][]byte{
		append(name("memory"), externMemory, 0x00),
		append(name("cabi_realloc"), append([]byte{externFunc}, uleb(n)...)...),
	}
	for i, imp := range imports {
		entry := append(name(CallExport(imp)), externFunc)
		entry = append(entry, uleb(n+1+uint32(i))...)
		exports = append(exports, entry)
	}

	// cabi_realloc(old_ptr, old_size, align, size): ptr = heap;
	// heap = (heap + size + 3) &^ 3; return ptr.
	realloc := []byte{
		0x01, 0x01, byte(i32), // one i32 local
		opGlobalGet, 0x00,
		opLocalSet, 0x04,
		opGlobalGet, 0x00,
		opLocalGet, 0x03,
		opI32Add,
		opI32Const, 0x03,
		opI32Add,
		opI32Const, 0x7c, // -4
		opI32And,
		opGlobalSet, 0x00,
		opLocalGet, 0x04,
		opEnd,
	}
	code := [][]byte{withSize(realloc)}
	for i, imp := range imports {
		body := []byte{0x00} // no locals
		for p := range imp.Params {
			body = append(body, opLocalGet)
			body = append(body, uleb(uint32(p))...)
		}
		body = append(body, opCall)
		body = append(body, uleb(uint32(i))...)
		body = append(body, opEnd)
		code = append(code, withSize(body))
	}

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	out = append(out, section(sectionType, types)...)
	if len(importSec) > 0 {
		out = append(out, section(sectionImport, importSec)...)
	}
	out = append(out, section(sectionFunction, funcs)...)
	out = append(out, section(sectionMemory, memories)...)
	out = append(out, section(sectionGlobal, globals)...)
	out = append(out, section(sectionExport, exports)...)
	out = append(out, section(sectionCode, code)...)
	return out
}

func funcType(params, results []api.ValueType) []byte {
	out := []byte{0x60}
	out = append(out, uleb(uint32(len(params)))...)
	for _, p := range params {
		out = append(out, byte(p))
	}
	out = append(out, uleb(uint32(len(results)))...)
	for _, r := range results {
		out = append(out, byte(r))
	}
	return out
}

func section(id byte, entries [][]byte) []byte {
	body := uleb(uint32(len(entries)))
	for _, e := range entries {
		body = append(body, e...)
	}
	return append(append([]byte{id}, uleb(uint32(len(body)))...), body...)
}

func withSize(body []byte) []byte {
	return append(uleb(uint32(len(body))), body...)
}

func name(s string) []byte {
	return append(uleb(uint32(len(s))), s...)
}

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func sleb(v int32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}
