// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package dispatch classifies inbound frames and routes them to typed event
// handlers.
//
// Classification is a fixed-precedence match over frame shape: presence
// first, then archive items and terminals, then receipts, then plain
// messages. Frames that match nothing (unrelated iq chatter, service
// notifications) are dropped silently; that is intentional, not an
// omission.
package dispatch // import "mellium.im/converse/dispatch"

import (
	"context"
	"fmt"
	"log/slog"

	"mellium.im/converse"
	"mellium.im/converse/archive"
	"mellium.im/converse/frame"
	"mellium.im/converse/internal/attr"
	"mellium.im/converse/stanza"
)

// Dispatcher subscribes to a client's inbound frame stream and turns it into
// typed domain events. Archive items and terminals are routed through the
// aggregator so that consumers only ever see complete results.
type Dispatcher struct {
	client *converse.Client
	agg    *archive.Aggregator
	logger *slog.Logger

	onMessage  []func(stanza.Message)
	onPresence []func(stanza.Presence)
	onReceipt  []func(stanza.Receipt)
	onArchive  []func(archive.Result)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for dropped-frame logging.
// It defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// OnMessage registers a handler for chat and file messages.
func OnMessage(fn func(stanza.Message)) Option {
	return func(d *Dispatcher) {
		d.onMessage = append(d.onMessage, fn)
	}
}

// OnPresence registers a handler for presence updates.
func OnPresence(fn func(stanza.Presence)) Option {
	return func(d *Dispatcher) {
		d.onPresence = append(d.onPresence, fn)
	}
}

// OnReceipt registers a handler for delivery and display receipts.
func OnReceipt(fn func(stanza.Receipt)) Option {
	return func(d *Dispatcher) {
		d.onReceipt = append(d.onReceipt, fn)
	}
}

// OnArchive registers a handler for completed archive results.
// It fires once per query, when the terminal frame arrives; partial results
// are never surfaced.
func OnArchive(fn func(archive.Result)) Option {
	return func(d *Dispatcher) {
		d.onArchive = append(d.onArchive, fn)
	}
}

// New attaches a dispatcher to the client's frame stream. It may be created
// before or after Connect; frames delivered before it attached are not
// replayed.
//
// Handlers run on the client's event delivery goroutine and must not block
// on the client's own round trips (SendQuery, QueryArchive, the receipts
// operations): the response such a call waits for is delivered by the very
// goroutine the handler is holding. Spawn a goroutine for that work.
func New(c *converse.Client, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client: c,
		agg:    archive.NewAggregator(),
	}
	for _, o := range opts {
		o(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	c.OnFrame(d.dispatch)
	c.OnStatus(d.statusChanged)
	return d
}

// statusChanged discards in-flight archive partials whenever the session
// leaves the online state: a query interrupted by a reconnect is not
// resumed, the caller re-issues it.
func (d *Dispatcher) statusChanged(s converse.Status) {
	if s != converse.StatusOnline {
		d.agg.Reset()
	}
}

// dispatch classifies one inbound frame, first match wins.
func (d *Dispatcher) dispatch(f *frame.Frame) {
	if p, ok := stanza.ParsePresence(f); ok {
		for _, fn := range d.onPresence {
			fn(p)
		}
		return
	}
	if queryID, msg, ok := archive.ParseItem(f); ok {
		d.agg.OnItem(queryID, msg)
		return
	}
	if fin, ok := archive.ParseFin(f); ok {
		d.complete(fin)
		return
	}
	if r, ok := stanza.ParseReceipt(f); ok {
		for _, fn := range d.onReceipt {
			fn(r)
		}
		return
	}
	if m, ok := stanza.ParseMessage(f); ok {
		for _, fn := range d.onMessage {
			fn(m)
		}
		return
	}
	d.logger.Debug("dropping unclassified frame", "name", f.Name.Local)
}

func (d *Dispatcher) complete(fin archive.Fin) archive.Result {
	res := d.agg.OnTerminal(fin.QueryID, fin.Complete, fin.Set)
	for _, fn := range d.onArchive {
		fn(res)
	}
	return res
}

// QueryArchive issues an archive query and blocks until the complete result
// has been assembled. The item frames are routed through the dispatch loop
// while the query's iq is outstanding; the terminal arrives as the iq
// response. The completed result is returned and also delivered to the
// OnArchive handlers.
//
// A query interrupted by a connection loss is not retried; re-issue it after
// reconnecting.
func (d *Dispatcher) QueryArchive(ctx context.Context, to string, q archive.Query) (archive.Result, error) {
	queryID := attr.RandomID()
	resp, err := d.client.SendQuery(ctx, q.IQ(to, queryID))
	if err != nil {
		return archive.Result{}, err
	}
	fin, ok := archive.ParseFin(resp)
	if !ok {
		return archive.Result{}, fmt.Errorf("dispatch: archive response for %s carries no terminal", queryID)
	}
	if fin.QueryID == "" {
		fin.QueryID = queryID
	}
	return d.complete(fin), nil
}
