// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package ws provides a WebSocket transport for the connection layer.
//
// Each WebSocket message carries exactly one stanza. Sessions are framed
// with open and close elements in the WebSocket framing namespace; receipt
// of the server's open element is what makes the session online.
// Stream-level security and authentication are the endpoint's concern: the
// handshake carries the account's credentials as a basic Authorization
// header and the gateway is expected to reject the connection if they are
// wrong.
package ws // import "mellium.im/converse/ws"

import (
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"mellium.im/converse"
	"mellium.im/converse/frame"
)

// NS is the XML namespace of the session framing elements.
const NS = "urn:ietf:params:xml:ns:xmpp-framing"

// Transport is one WebSocket session. It implements converse.Transport and
// is discarded after the session ends; the factory hands the client a fresh
// one for every attempt.
type Transport struct {
	config converse.Config
	dialer *websocket.Dialer

	writeMu sync.Mutex
	conn    *websocket.Conn

	events    chan converse.Event
	closeOnce sync.Once
	stopping  chan struct{}
	stopOnce  sync.Once
}

// New creates an unstarted WebSocket session for the provided
// configuration. It is a converse.TransportFactory.
func New(cfg converse.Config) (converse.Transport, error) {
	return &Transport{
		config: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.ConnectTimeout,
			Subprotocols:     []string{"xmpp"},
		},
		events:   make(chan converse.Event, 32),
		stopping: make(chan struct{}),
	}, nil
}

// Start implements converse.Transport: it performs the WebSocket handshake,
// opens the stream, and spawns the read loop. The online event is emitted
// once the server answers with its own open element.
func (t *Transport) Start(ctx context.Context) error {
	header := http.Header{}
	creds := t.config.JID + ":" + t.config.Password
	header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(creds)))

	conn, resp, err := t.dialer.DialContext(ctx, t.config.Service, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("ws: dial %s: %s: %w", t.config.Service, resp.Status, err)
		}
		return fmt.Errorf("ws: dial %s: %w", t.config.Service, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.conn = conn

	open := frame.New(xml.Name{Space: NS, Local: "open"}).
		WithAttr("to", t.config.Domain).
		WithAttr("version", "1.0")
	if err := t.write(open); err != nil {
		_ = conn.Close()
		return err
	}

	go t.readLoop(conn)
	return nil
}

func (t *Transport) readLoop(conn *websocket.Conn) {
	defer t.closeOnce.Do(func() { close(t.events) })
	online := false
	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-t.stopping:
				// A local Stop closed the socket under us.
				t.events <- converse.Event{Kind: converse.EventOffline}
			default:
				if online {
					t.events <- converse.Event{Kind: converse.EventOffline}
				} else {
					t.events <- converse.Event{Kind: converse.EventError, Err: err}
				}
			}
			return
		}
		f, err := frame.Parse(p)
		if err != nil {
			// One unparseable message must not kill the session.
			continue
		}
		switch {
		case f.Name == (xml.Name{Space: NS, Local: "open"}):
			if !online {
				online = true
				t.events <- converse.Event{Kind: converse.EventOnline}
			}
		case f.Name == (xml.Name{Space: NS, Local: "close"}):
			t.events <- converse.Event{Kind: converse.EventOffline}
			_ = conn.Close()
			return
		default:
			t.events <- converse.Event{Kind: converse.EventFrame, Frame: f}
		}
	}
}

// Stop implements converse.Transport: it announces the close, tears the
// socket down, and lets the read loop drain.
func (t *Transport) Stop(context.Context) error {
	var err error
	t.stopOnce.Do(func() {
		close(t.stopping)
		if t.conn != nil {
			_ = t.write(frame.New(xml.Name{Space: NS, Local: "close"}))
			err = t.conn.Close()
		} else {
			t.closeOnce.Do(func() { close(t.events) })
		}
	})
	return err
}

// Send implements converse.Transport. Each frame goes out as one text
// message.
func (t *Transport) Send(_ context.Context, f *frame.Frame) error {
	return t.write(f)
}

func (t *Transport) write(f *frame.Frame) error {
	p, err := xml.Marshal(f)
	if err != nil {
		return fmt.Errorf("ws: marshal: %w", err)
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if t.conn == nil {
		return converse.ErrNotConnected
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return fmt.Errorf("ws: write: %w", err)
	}
	return nil
}

// Events implements converse.Transport.
func (t *Transport) Events() <-chan converse.Event {
	return t.events
}
