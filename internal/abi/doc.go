// Package abi flattens WIT function signatures into core wasm signatures
// following the canonical ABI.
//
// Binding tables declare each operation's WIT types; the core parameter and
// result lists registered with the engine are derived here, so an arity
// mistake shows up as a signature mismatch rather than as a misread argument.
package abi
