// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package converse

import (
	"context"
	"encoding/xml"
	"fmt"

	"mellium.im/converse/frame"
	"mellium.im/converse/internal/attr"
	"mellium.im/converse/stanza"
)

// SendQuery transmits a request frame and blocks until the response carrying
// the same correlation id arrives. If the frame has no id attribute a random
// one is attached; the correlation id must be unique among outstanding
// requests so responses cannot be cross-matched.
//
// A structured error response is returned as a stanza.Error so that callers
// can inspect the server-supplied condition; transport-level failures are
// wrapped with a generic message instead.
//
// A Disconnect while the request is outstanding does not resolve it; the
// caller's context deadline bounds the wait.
//
// SendQuery is safe for concurrent use by multiple goroutines.
func (c *Client) SendQuery(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	id := f.Attr("id")
	if id == "" {
		id = attr.RandomID()
		g := *f
		g.Attrs = append(append([]xml.Attr(nil), f.Attrs...),
			xml.Attr{Name: xml.Name{Local: "id"}, Value: id})
		f = &g
	}

	c.mu.Lock()
	if c.status != StatusOnline || c.transport == nil {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	if _, exists := c.pending[id]; exists {
		c.mu.Unlock()
		return nil, ErrDuplicateID
	}
	ch := make(chan *frame.Frame, 1)
	c.pending[id] = ch
	t := c.transport
	c.mu.Unlock()
	c.metrics.queriesInflight.Inc()
	defer c.metrics.queriesInflight.Dec()

	if err := t.Send(ctx, f); err != nil {
		c.removePending(id)
		return nil, fmt.Errorf("converse: send failed: %w", err)
	}

	select {
	case resp := <-ch:
		if stanza.IsIQ(resp, stanza.ErrorIQ) {
			if se, ok := stanza.ParseError(resp); ok {
				return nil, se
			}
			return nil, fmt.Errorf("converse: malformed error response for %s", id)
		}
		return resp, nil
	case <-ctx.Done():
		c.removePending(id)
		return nil, ctx.Err()
	}
}

func (c *Client) removePending(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// handleFrame routes one inbound frame: responses to outstanding correlated
// requests resolve those requests; everything else is handed to the frame
// handlers in delivery order.
func (c *Client) handleFrame(t Transport, f *frame.Frame) {
	if f == nil {
		return
	}
	c.metrics.framesReceived.WithLabelValues(f.Name.Local).Inc()

	if stanza.IsIQ(f, stanza.ResultIQ) || stanza.IsIQ(f, stanza.ErrorIQ) {
		id := f.Attr("id")
		c.mu.Lock()
		stale := c.transport != t
		ch, ok := c.pending[id]
		if ok && !stale {
			delete(c.pending, id)
		}
		c.mu.Unlock()
		if stale {
			return
		}
		if ok {
			ch <- f
			return
		}
	}

	c.mu.Lock()
	stale := c.transport != t
	handlers := c.onFrame
	c.mu.Unlock()
	if stale {
		return
	}
	for _, fn := range handlers {
		fn(f)
	}
}
