package bindings

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasi-http-abi/codec"
)

func (b *binder) outgoingHandler() {
	h := b.host

	b.bind(NamespaceOutgoingHandler, "handle",
		[]wit.Type{handle, option(requestOptions)},
		[]wit.Type{handle},
		func(c *call) error {
			opts := codec.DecodeRequestOptions(c.u32(1), c.u32(2), c.u32(3), c.u32(4), c.u32(5), c.u32(6), c.u32(7))
			future, err := h.Handle(c.ctx, c.u32(0), opts)
			if err != nil {
				return err
			}
			c.ret(future)
			return nil
		})
}

func (b *binder) types() {
	h := b.host
	ns := NamespaceTypes

	b.bind(ns, "new-outgoing-request",
		[]wit.Type{method, option(wit.String{}), option(scheme), option(wit.String{}), handle},
		[]wit.Type{handle},
		func(c *call) error {
			mem, err := c.memory()
			if err != nil {
				return err
			}
			m, err := codec.ReadMethod(mem, c.u32(0), c.u32(1), c.u32(2))
			if err != nil {
				return err
			}
			path, err := codec.ReadOptionalString(mem, c.u32(3), c.u32(4), c.u32(5))
			if err != nil {
				return err
			}
			s, err := codec.ReadScheme(mem, c.u32(6), c.u32(7), c.u32(8), c.u32(9))
			if err != nil {
				return err
			}
			authority, err := codec.ReadOptionalString(mem, c.u32(10), c.u32(11), c.u32(12))
			if err != nil {
				return err
			}
			req, err := h.NewOutgoingRequest(c.ctx, m, path, &s, authority, c.u32(13))
			if err != nil {
				return err
			}
			c.ret(req)
			return nil
		})

	b.bind(ns, "outgoing-request-write",
		[]wit.Type{handle},
		[]wit.Type{result(handle, nil)},
		func(c *call) error {
			stream, ok, err := h.OutgoingRequestWrite(c.ctx, c.u32(0))
			if err != nil {
				return err
			}
			words := codec.EncodeResultHandle(stream, ok)
			return c.out(c.u32(1), words[:]...)
		})

	b.bind(ns, "drop-outgoing-request",
		[]wit.Type{handle}, nil,
		func(c *call) error {
			return h.DropOutgoingRequest(c.ctx, c.u32(0))
		})

	b.bind(ns, "future-incoming-response-get",
		[]wit.Type{handle},
		[]wit.Type{option(result(handle, httpError))},
		func(c *call) error {
			r, err := h.FutureIncomingResponseGet(c.ctx, c.u32(0))
			if err != nil {
				return err
			}
			mem, err := c.memory()
			if err != nil {
				return err
			}
			words, err := codec.EncodeFutureResponse(c.ctx, mem, c, r)
			if err != nil {
				return err
			}
			return c.out(c.u32(1), words[:]...)
		})

	b.bind(ns, "listen-to-future-incoming-response",
		[]wit.Type{handle},
		[]wit.Type{handle},
		func(c *call) error {
			p, err := h.ListenToFutureIncomingResponse(c.ctx, c.u32(0))
			if err != nil {
				return err
			}
			c.ret(p)
			return nil
		})

	b.bind(ns, "drop-future-incoming-response",
		[]wit.Type{handle}, nil,
		func(c *call) error {
			return h.DropFutureIncomingResponse(c.ctx, c.u32(0))
		})

	b.bind(ns, "incoming-response-status",
		[]wit.Type{handle},
		[]wit.Type{wit.U16{}},
		func(c *call) error {
			status, err := h.IncomingResponseStatus(c.ctx, c.u32(0))
			if err != nil {
				return err
			}
			c.ret(uint32(status))
			return nil
		})

	b.bind(ns, "incoming-response-headers",
		[]wit.Type{handle},
		[]wit.Type{handle},
		func(c *call) error {
			fields, err := h.IncomingResponseHeaders(c.ctx, c.u32(0))
			if err != nil {
				return err
			}
			c.ret(fields)
			return nil
		})

	b.bind(ns, "incoming-response-consume",
		[]wit.Type{handle},
		[]wit.Type{result(handle, nil)},
		func(c *call) error {
			stream, ok, err := h.IncomingResponseConsume(c.ctx, c.u32(0))
			if err != nil {
				return err
			}
			words := codec.EncodeResultHandle(stream, ok)
			return c.out(c.u32(1), words[:]...)
		})

	b.bind(ns, "drop-incoming-response",
		[]wit.Type{handle}, nil,
		func(c *call) error {
			return h.DropIncomingResponse(c.ctx, c.u32(0))
		})

	b.bind(ns, "new-fields",
		[]wit.Type{entries},
		[]wit.Type{handle},
		func(c *call) error {
			mem, err := c.memory()
			if err != nil {
				return err
			}
			fields, err := codec.ReadFields(mem, c.u32(0), c.u32(1))
			if err != nil {
				return err
			}
			id, err := h.NewFields(c.ctx, fields)
			if err != nil {
				return err
			}
			c.ret(id)
			return nil
		})

	b.bind(ns, "fields-entries",
		[]wit.Type{handle},
		[]wit.Type{entries},
		func(c *call) error {
			fields, err := h.FieldsEntries(c.ctx, c.u32(0))
			if err != nil {
				return err
			}
			mem, err := c.memory()
			if err != nil {
				return err
			}
			ptr, count, err := codec.WriteFields(c.ctx, mem, c, fields)
			if err != nil {
				return err
			}
			return c.out(c.u32(1), ptr, count)
		})

	b.bind(ns, "drop-fields",
		[]wit.Type{handle}, nil,
		func(c *call) error {
			return h.DropFields(c.ctx, c.u32(0))
		})
}
