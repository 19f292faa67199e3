// Package surface is a host.Host backed by net/http.
//
// Requests are assembled from fields and outgoing-request handles and sent
// when the guest calls handle. Each send runs on its own goroutine and
// resolves a future; the response body is read in full, bounded by the
// configured maximum, before the future becomes ready. Consuming a response
// yields an input stream over the buffered body.
//
// Streams are always ready, so their pollables never block. Future
// pollables become ready when the request completes. PollOneoff blocks
// until at least one pollable is ready or the context is done.
//
// All handles live in one resource.Table. Close cancels in-flight requests
// and drops every live handle.
package surface
