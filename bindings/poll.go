package bindings

import (
	"fmt"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasi-http-abi/codec"
	"github.com/wippyai/wasi-http-abi/errors"
)

func (b *binder) poll() {
	h := b.host
	ns := NamespacePoll

	b.bind(ns, "poll-oneoff",
		[]wit.Type{list(handle)},
		[]wit.Type{list(wit.Bool{})},
		func(c *call) error {
			mem, err := c.memory()
			if err != nil {
				return err
			}
			ids, err := codec.ReadPollables(mem, c.u32(0), c.u32(1))
			if err != nil {
				return err
			}
			ready, err := h.PollOneoff(c.ctx, ids)
			if err != nil {
				return err
			}
			if len(ready) != len(ids) {
				return errors.InvalidInput(errors.PhaseHost,
					fmt.Sprintf("poll-oneoff returned %d results for %d pollables", len(ready), len(ids)))
			}
			ptr, count, err := codec.WritePollResults(c.ctx, mem, c, ready)
			if err != nil {
				return err
			}
			return c.out(c.u32(2), ptr, count)
		})

	b.bind(ns, "drop-pollable",
		[]wit.Type{handle}, nil,
		func(c *call) error {
			return h.DropPollable(c.ctx, c.u32(0))
		})
}
