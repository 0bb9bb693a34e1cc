// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package transporttest provides a scripted transport for testing the
// connection layer without a network.
package transporttest

import (
	"context"
	"sync"

	"mellium.im/converse"
	"mellium.im/converse/frame"
)

// Transport is a fake transport session. Tests drive it by calling GoOnline,
// GoOffline, Fail and Deliver, or let it respond to outbound frames through
// a responder function.
type Transport struct {
	mu      sync.Mutex
	events  chan converse.Event
	sent    []*frame.Frame
	stopped bool

	startErr   error
	autoOnline bool
	respond    func(*frame.Frame) *frame.Frame
	sendErr    func(*frame.Frame) error
}

// Option configures a Transport.
type Option func(*Transport)

// AutoOnline makes the transport emit its online event as soon as Start is
// called.
func AutoOnline() Option {
	return func(t *Transport) {
		t.autoOnline = true
	}
}

// StartError makes Start fail with the provided error.
func StartError(err error) Option {
	return func(t *Transport) {
		t.startErr = err
	}
}

// Respond installs an auto-responder: every frame passed to Send is handed
// to fn and a non-nil result is delivered back as an inbound frame.
func Respond(fn func(*frame.Frame) *frame.Frame) Option {
	return func(t *Transport) {
		t.respond = fn
	}
}

// SendError makes Send fail with the error fn returns for a frame.
// Frames for which fn returns nil are sent normally.
func SendError(fn func(*frame.Frame) error) Option {
	return func(t *Transport) {
		t.sendErr = fn
	}
}

// New allocates a fake transport.
func New(opts ...Option) *Transport {
	t := &Transport{events: make(chan converse.Event, 64)}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Factory returns a transport factory that hands out t on every call.
func Factory(t *Transport) converse.TransportFactory {
	return func(converse.Config) (converse.Transport, error) {
		return t, nil
	}
}

// Start implements converse.Transport.
func (t *Transport) Start(context.Context) error {
	if t.startErr != nil {
		return t.startErr
	}
	if t.autoOnline {
		t.GoOnline()
	}
	return nil
}

// Stop implements converse.Transport. It closes the event stream.
func (t *Transport) Stop(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.stopped {
		t.stopped = true
		close(t.events)
	}
	return nil
}

// Send implements converse.Transport, recording the frame and running the
// responder if one is installed.
func (t *Transport) Send(_ context.Context, f *frame.Frame) error {
	t.mu.Lock()
	sendErr := t.sendErr
	t.mu.Unlock()
	if sendErr != nil {
		if err := sendErr(f); err != nil {
			return err
		}
	}
	t.mu.Lock()
	t.sent = append(t.sent, f)
	respond := t.respond
	t.mu.Unlock()
	if respond != nil {
		if resp := respond(f); resp != nil {
			t.Deliver(resp)
		}
	}
	return nil
}

// Events implements converse.Transport.
func (t *Transport) Events() <-chan converse.Event {
	return t.events
}

// GoOnline emits the online event.
func (t *Transport) GoOnline() {
	t.emit(converse.Event{Kind: converse.EventOnline})
}

// GoOffline emits the offline event.
func (t *Transport) GoOffline() {
	t.emit(converse.Event{Kind: converse.EventOffline})
}

// Fail emits a transport error event.
func (t *Transport) Fail(err error) {
	t.emit(converse.Event{Kind: converse.EventError, Err: err})
}

// Deliver emits one inbound frame.
func (t *Transport) Deliver(f *frame.Frame) {
	t.emit(converse.Event{Kind: converse.EventFrame, Frame: f})
}

func (t *Transport) emit(ev converse.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.events <- ev
}

// Sent returns a copy of every frame passed to Send so far.
func (t *Transport) Sent() []*frame.Frame {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*frame.Frame, len(t.sent))
	copy(out, t.sent)
	return out
}
