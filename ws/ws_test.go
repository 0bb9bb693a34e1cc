// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package ws_test

import (
	"context"
	"encoding/base64"
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mellium.im/converse"
	"mellium.im/converse/frame"
	"mellium.im/converse/stanza"
	"mellium.im/converse/ws"
)

var upgrader = websocket.Upgrader{Subprotocols: []string{"xmpp"}}

// gateway is a minimal server side of the WebSocket session: it answers the
// client's open element and then hands every further message to handle.
type gateway struct {
	srv *httptest.Server

	mu   sync.Mutex
	auth string
	open *frame.Frame
}

func newGateway(t *testing.T, handle func(c *websocket.Conn, f *frame.Frame)) *gateway {
	t.Helper()
	gw := &gateway{}
	gw.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gw.mu.Lock()
		gw.auth = r.Header.Get("Authorization")
		gw.mu.Unlock()
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			_, p, err := c.ReadMessage()
			if err != nil {
				return
			}
			f, err := frame.Parse(p)
			if err != nil {
				continue
			}
			if f.Name == (xml.Name{Space: ws.NS, Local: "open"}) {
				gw.mu.Lock()
				gw.open = f
				gw.mu.Unlock()
				ack := frame.New(xml.Name{Space: ws.NS, Local: "open"}).
					WithAttr("from", "example.com").
					WithAttr("version", "1.0")
				if err := writeFrame(c, ack); err != nil {
					return
				}
				continue
			}
			if handle != nil {
				handle(c, f)
			}
		}
	}))
	t.Cleanup(gw.srv.Close)
	return gw
}

func writeFrame(c *websocket.Conn, f *frame.Frame) error {
	p, err := xml.Marshal(f)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, p)
}

func (gw *gateway) url() string {
	return "ws" + strings.TrimPrefix(gw.srv.URL, "http")
}

func (gw *gateway) config() converse.Config {
	return converse.Config{
		Service:  gw.url(),
		Domain:   "example.com",
		JID:      "me@example.com",
		Password: "secret",
	}
}

func start(t *testing.T, gw *gateway) converse.Transport {
	t.Helper()
	tr, err := ws.New(gw.config())
	require.NoError(t, err)
	require.NoError(t, tr.Start(context.Background()))
	t.Cleanup(func() { _ = tr.Stop(context.Background()) })
	return tr
}

func next(t *testing.T, tr converse.Transport) converse.Event {
	t.Helper()
	select {
	case ev, ok := <-tr.Events():
		require.True(t, ok, "event channel closed")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for an event")
	}
	panic("unreachable")
}

func TestHandshake(t *testing.T) {
	gw := newGateway(t, nil)
	tr := start(t, gw)

	ev := next(t, tr)
	assert.Equal(t, converse.EventOnline, ev.Kind)

	gw.mu.Lock()
	defer gw.mu.Unlock()
	require.NotNil(t, gw.open, "no open element reached the server")
	assert.Equal(t, "example.com", gw.open.Attr("to"))
	creds := base64.StdEncoding.EncodeToString([]byte("me@example.com:secret"))
	assert.Equal(t, "Basic "+creds, gw.auth)
}

func TestDialFailed(t *testing.T) {
	tr, err := ws.New(converse.Config{
		Service:  "ws://127.0.0.1:1/ws",
		Domain:   "example.com",
		JID:      "me@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	require.Error(t, tr.Start(context.Background()))
}

func TestRoundTrip(t *testing.T) {
	gw := newGateway(t, func(c *websocket.Conn, f *frame.Frame) {
		// Echo every message stanza back with from and to swapped.
		if f.Name.Local != "message" {
			return
		}
		echo := frame.New(f.Name, f.Children...).
			WithAttr("from", f.Attr("to")).
			WithAttr("id", f.Attr("id"))
		_ = writeFrame(c, echo)
	})
	tr := start(t, gw)
	require.Equal(t, converse.EventOnline, next(t, tr).Kind)

	msg := stanza.Chat("bob@example.com", "ping", stanza.ChatOptions{})
	require.NoError(t, tr.Send(context.Background(), msg))

	ev := next(t, tr)
	require.Equal(t, converse.EventFrame, ev.Kind)
	assert.Equal(t, "bob@example.com", ev.Frame.Attr("from"))
	assert.Equal(t, "ping", ev.Frame.ChildText("body"))
}

func TestServerClose(t *testing.T) {
	gw := newGateway(t, func(c *websocket.Conn, f *frame.Frame) {
		if f.Name.Local == "presence" {
			_ = writeFrame(c, frame.New(xml.Name{Space: ws.NS, Local: "close"}))
		}
	})
	tr := start(t, gw)
	require.Equal(t, converse.EventOnline, next(t, tr).Kind)

	require.NoError(t, tr.Send(context.Background(), stanza.NewPresence(stanza.UnavailablePresence, "", "", "")))

	ev := next(t, tr)
	assert.Equal(t, converse.EventOffline, ev.Kind)

	_, ok := <-tr.Events()
	assert.False(t, ok, "event channel must close after the session ends")
}

func TestStop(t *testing.T) {
	gw := newGateway(t, nil)
	tr := start(t, gw)
	require.Equal(t, converse.EventOnline, next(t, tr).Kind)

	require.NoError(t, tr.Stop(context.Background()))

	ev := next(t, tr)
	assert.Equal(t, converse.EventOffline, ev.Kind)
	_, ok := <-tr.Events()
	assert.False(t, ok)
}

func TestClientIntegration(t *testing.T) {
	gw := newGateway(t, func(c *websocket.Conn, f *frame.Frame) {
		if stanza.IsIQ(f, stanza.GetIQ) {
			_ = writeFrame(c, stanza.IQ(stanza.ResultIQ, "", f.Attr("id"),
				frame.New(xml.Name{Local: "pong"})))
		}
	})

	client, err := converse.New(gw.config(), ws.New)
	require.NoError(t, err)
	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect(context.Background())

	resp, err := client.SendQuery(context.Background(),
		stanza.IQ(stanza.GetIQ, "example.com", "", frame.New(xml.Name{Local: "ping"})))
	require.NoError(t, err)
	require.NotNil(t, resp.Child("pong"))
}
