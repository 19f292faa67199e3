// Package resource maps u32 handles to host-side values.
//
// Handles are what the guest sees for requests, responses, fields, futures,
// streams and pollables. Every handle carries the kind it was minted for, so
// passing a fields handle where a stream is expected fails instead of
// aliasing another value:
//
//	table := resource.NewTable()
//
//	h, err := table.Insert(resource.KindFields, fields)
//	v, err := resource.Lookup[*Fields](table, h, resource.KindFields)
//	_, err = table.Remove(h, resource.KindFields)
//
// Handle 0 is reserved and never minted. Freed handles are reused.
//
// # Observers
//
// Observers receive an Event on every insert and remove:
//
//	table.Subscribe(myObserver)
//
// # Cleanup
//
// Values implementing Dropper have Drop called when they are removed or
// when the table is closed. Handles are not garbage collected; the guest
// must issue the matching drop call.
package resource
