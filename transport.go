// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package converse

import (
	"context"

	"mellium.im/converse/frame"
)

// EventKind identifies the kind of a transport event.
type EventKind uint8

const (
	// EventOnline is emitted once the session is established and stanzas
	// may flow.
	EventOnline EventKind = iota

	// EventOffline is emitted when the session ends, whether by the peer
	// closing the stream or by a local Stop.
	EventOffline

	// EventError reports a transport failure. The Err field carries the
	// cause.
	EventError

	// EventFrame delivers one inbound stanza. The Frame field carries it.
	EventFrame
)

// Event is one occurrence on a transport session.
type Event struct {
	Kind  EventKind
	Frame *frame.Frame
	Err   error
}

// Transport is the underlying engine that owns the socket, TLS and
// authentication. The Client drives it through Start, Stop and Send and
// consumes its event stream.
//
// Events must be delivered in the order they occur; inbound frames in
// particular must arrive in network delivery order. The events channel is
// closed when the session ends for any reason.
type Transport interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, f *frame.Frame) error
	Events() <-chan Event
}

// TransportFactory creates a fresh transport session.
// The Client calls it for the initial connect and once per reconnect
// attempt; sessions are never reused across attempts.
type TransportFactory func(Config) (Transport, error)
