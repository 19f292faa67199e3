package bindings

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasi-http-abi/codec"
)

func (b *binder) streams() {
	h := b.host
	ns := NamespaceStreams

	b.bind(ns, "read",
		[]wit.Type{handle, wit.U64{}},
		[]wit.Type{result(tuple(bytes, streamStatus), streamError)},
		func(c *call) error {
			body, status, err := h.Read(c.ctx, c.u32(0), c.u64(1))
			if err != nil {
				if asStreamError(err) {
					words := codec.StreamReadError()
					return c.out(c.u32(2), words[:]...)
				}
				return err
			}
			mem, err := c.memory()
			if err != nil {
				return err
			}
			words, err := codec.EncodeStreamRead(c.ctx, mem, c, body, status)
			if err != nil {
				return err
			}
			return c.out(c.u32(2), words[:]...)
		})

	b.bind(ns, "write",
		[]wit.Type{handle, bytes},
		[]wit.Type{result(tuple(wit.U64{}, streamStatus), streamError)},
		func(c *call) error {
			mem, err := c.memory()
			if err != nil {
				return err
			}
			body, err := mem.Read(c.u32(1), c.u32(2))
			if err != nil {
				return err
			}
			n, status, err := h.Write(c.ctx, c.u32(0), body)
			if err != nil {
				if asStreamError(err) {
					words := codec.StreamWriteError()
					return c.out(c.u32(3), words[:]...)
				}
				return err
			}
			words := codec.EncodeStreamWrite(n, status)
			return c.out(c.u32(3), words[:]...)
		})

	b.bind(ns, "subscribe-to-input-stream",
		[]wit.Type{handle},
		[]wit.Type{handle},
		func(c *call) error {
			p, err := h.SubscribeToInputStream(c.ctx, c.u32(0))
			if err != nil {
				return err
			}
			c.ret(p)
			return nil
		})

	b.bind(ns, "subscribe-to-output-stream",
		[]wit.Type{handle},
		[]wit.Type{handle},
		func(c *call) error {
			p, err := h.SubscribeToOutputStream(c.ctx, c.u32(0))
			if err != nil {
				return err
			}
			c.ret(p)
			return nil
		})

	b.bind(ns, "drop-input-stream",
		[]wit.Type{handle}, nil,
		func(c *call) error {
			return h.DropInputStream(c.ctx, c.u32(0))
		})

	b.bind(ns, "drop-output-stream",
		[]wit.Type{handle}, nil,
		func(c *call) error {
			return h.DropOutputStream(c.ctx, c.u32(0))
		})
}
