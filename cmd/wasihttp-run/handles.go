package main

import (
	"fmt"
	"sort"
	"sync"

	"github.com/wippyai/wasi-http-abi/resource"
)

// handleTracker follows the surface's handle table so that handles the
// guest never dropped can be reported when the session ends.
type handleTracker struct {
	mu   sync.Mutex
	live map[resource.Handle]resource.Kind
}

func trackHandles(t *resource.Table) *handleTracker {
	tr := &handleTracker{live: make(map[resource.Handle]resource.Kind)}
	t.Subscribe(resource.ObserverFunc(tr.observe))
	return tr
}

func (tr *handleTracker) observe(e resource.Event) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	switch e.Type {
	case resource.EventCreated:
		tr.live[e.Handle] = e.Kind
	case resource.EventDropped:
		delete(tr.live, e.Handle)
	}
}

// leaked lists the live handles as "kind:handle", lowest handle first.
func (tr *handleTracker) leaked() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	handles := make([]resource.Handle, 0, len(tr.live))
	for h := range tr.live {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })

	out := make([]string, len(handles))
	for i, h := range handles {
		out[i] = fmt.Sprintf("%s:%d", tr.live[h], h)
	}
	return out
}
