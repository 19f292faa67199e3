// Package memory provides the guest memory accessor and the cabi_realloc
// bridge used by every binding.
//
// Both are resolved from the calling wazero module at the start of a host
// call and discarded when it returns.
package memory
