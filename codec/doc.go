// Package codec maps canonical ABI byte layouts to host values and back.
//
// Decoders read guest memory through a wasihttp.Memory and never allocate in
// the guest. Encoders obtain every block they hand back from the guest's
// allocator, one fresh block per value, including zero-length ones, so the
// reading side never has to special-case a null pointer.
//
// Layouts (all integers little-endian u32 unless noted):
//
//	option<T>           presence, payload...        presence must be exactly 1
//	method / scheme     tag, ptr, len               ptr/len read only for "other"
//	list<tuple<s,s>>    base, count                 16-byte records name_ptr, name_len, value_ptr, value_len
//	future get result   is_some, is_error, ok_or_tag, err_ptr, err_len
//	stream read result  is_error, body_ptr, body_len, status
//	stream write result is_error, pad, written (u64), status
//	poll results        base, count                 one u32 word per pollable
package codec
