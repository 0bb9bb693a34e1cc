// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package receipts_test

import (
	"context"
	"encoding/xml"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mellium.im/converse"
	"mellium.im/converse/dispatch"
	"mellium.im/converse/frame"
	"mellium.im/converse/internal/transporttest"
	"mellium.im/converse/receipts"
	"mellium.im/converse/stanza"
)

func testConfig() converse.Config {
	return converse.Config{
		Service:  "wss://chat.example.com/ws",
		Domain:   "example.com",
		JID:      "me@example.com",
		Password: "secret",
	}
}

// statusServer acknowledges mark-read/mark-delivered iqs, or rejects them
// with the provided condition.
func statusServer(reject stanza.Condition) func(*frame.Frame) *frame.Frame {
	return func(f *frame.Frame) *frame.Frame {
		if !stanza.IsIQ(f, stanza.SetIQ) && !stanza.IsIQ(f, stanza.GetIQ) {
			return nil
		}
		if reject != "" {
			return stanza.IQ(stanza.ErrorIQ, "", f.Attr("id"),
				stanza.Error{Type: stanza.Cancel, Condition: reject}.Frame())
		}
		return stanza.IQ(stanza.ResultIQ, "", f.Attr("id"), nil)
	}
}

func online(t *testing.T, respond func(*frame.Frame) *frame.Frame) (*converse.Client, *transporttest.Transport) {
	t.Helper()
	tr := transporttest.New(transporttest.AutoOnline(), transporttest.Respond(respond))
	c, err := converse.New(testConfig(), transporttest.Factory(tr))
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background()))
	return c, tr
}

func TestMarkRead(t *testing.T) {
	c, tr := online(t, statusServer(""))

	m := receipts.Mark{ID: "m1", From: "bob@example.com", To: "me@example.com"}
	require.NoError(t, receipts.MarkRead(context.Background(), c, m))

	var iqs, rcpts []*frame.Frame
	for _, f := range tr.Sent() {
		switch f.Name.Local {
		case "iq":
			iqs = append(iqs, f)
		case "message":
			rcpts = append(rcpts, f)
		}
	}
	require.Len(t, iqs, 1, "expected exactly one mark-read iq")
	mark := iqs[0].ChildNS(xml.Name{Space: stanza.NSStatus, Local: "mark-read"})
	require.NotNil(t, mark)
	assert.Equal(t, "m1", mark.Attr("id"))
	assert.Equal(t, "bob@example.com", mark.Attr("from"))
	assert.Equal(t, "me@example.com", mark.Attr("to"))

	require.Len(t, rcpts, 1, "expected exactly one displayed receipt")
	rcpt := rcpts[0]
	assert.Equal(t, "bob@example.com", rcpt.Attr("to"), "receipt must go back to the original sender")
	displayed := rcpt.ChildNS(xml.Name{Space: stanza.NSMarkers, Local: "displayed"})
	require.NotNil(t, displayed)
	assert.Equal(t, "m1", displayed.Attr("id"))
}

func TestMarkDelivered(t *testing.T) {
	c, tr := online(t, statusServer(""))

	m := receipts.Mark{ID: "m2", From: "bob@example.com", To: "me@example.com"}
	require.NoError(t, receipts.MarkDelivered(context.Background(), c, m))

	var received *frame.Frame
	for _, f := range tr.Sent() {
		if r := f.ChildNS(xml.Name{Space: stanza.NSReceipts, Local: "received"}); r != nil {
			received = r
		}
	}
	require.NotNil(t, received, "expected a received receipt")
	assert.Equal(t, "m2", received.Attr("id"))
}

func TestMarkReadRejected(t *testing.T) {
	c, tr := online(t, statusServer(stanza.ItemNotFound))

	err := receipts.MarkRead(context.Background(), c,
		receipts.Mark{ID: "gone", From: "bob@example.com", To: "me@example.com"})
	require.ErrorIs(t, err, receipts.ErrNotFound)

	// The protocol error is preserved in the chain.
	var se stanza.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, stanza.ItemNotFound, se.Condition)

	// No receipt goes out when the status change failed.
	for _, f := range tr.Sent() {
		assert.NotEqual(t, "message", f.Name.Local, "receipt sent despite rejected mark: %s", f)
	}
}

var statusErrorTestCases = [...]struct {
	condition stanza.Condition
	want      error
}{
	0: {condition: stanza.ItemNotFound, want: receipts.ErrNotFound},
	1: {condition: stanza.Forbidden, want: receipts.ErrUnauthorized},
	2: {condition: stanza.NotAuthorized, want: receipts.ErrUnauthorized},
	3: {condition: stanza.BadRequest, want: receipts.ErrInvalidID},
	4: {condition: stanza.JIDMalformed, want: receipts.ErrInvalidJID},
	5: {condition: stanza.InternalServerError, want: receipts.ErrServer},
}

func TestStatusErrorMapping(t *testing.T) {
	for _, tc := range statusErrorTestCases {
		t.Run(string(tc.condition), func(t *testing.T) {
			c, _ := online(t, statusServer(tc.condition))
			err := receipts.MarkDelivered(context.Background(), c,
				receipts.Mark{ID: "m", From: "a@b", To: "me@example.com"})
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestMarkReadAll(t *testing.T) {
	c, tr := online(t, statusServer(""))

	ms := []receipts.Mark{
		{ID: "m1", From: "a@example.com", To: "me@example.com"},
		{ID: "m2", From: "b@example.com", To: "me@example.com"},
		{ID: "m3", From: "c@example.com", To: "me@example.com"},
	}
	require.NoError(t, receipts.MarkReadAll(context.Background(), c, ms))

	var iqs int
	for _, f := range tr.Sent() {
		if f.Name.Local == "iq" {
			iqs++
		}
	}
	assert.Equal(t, 3, iqs)
}

func TestMarkReadAllFailsWhole(t *testing.T) {
	// Reject only one of the ids; the whole batch must fail.
	c, _ := online(t, func(f *frame.Frame) *frame.Frame {
		mark := f.ChildNS(xml.Name{Space: stanza.NSStatus, Local: "mark-read"})
		if mark == nil {
			return nil
		}
		if mark.Attr("id") == "bad" {
			return stanza.IQ(stanza.ErrorIQ, "", f.Attr("id"),
				stanza.Error{Type: stanza.Cancel, Condition: stanza.ItemNotFound}.Frame())
		}
		return stanza.IQ(stanza.ResultIQ, "", f.Attr("id"), nil)
	})

	ms := []receipts.Mark{
		{ID: "ok1", From: "a@example.com", To: "me@example.com"},
		{ID: "bad", From: "b@example.com", To: "me@example.com"},
		{ID: "ok2", From: "c@example.com", To: "me@example.com"},
	}
	err := receipts.MarkReadAll(context.Background(), c, ms)
	require.ErrorIs(t, err, receipts.ErrNotFound)
}

func TestGetStatus(t *testing.T) {
	c, _ := online(t, func(f *frame.Frame) *frame.Frame {
		if f.ChildNS(xml.Name{Space: stanza.NSStatus, Local: "get-status"}) == nil {
			return nil
		}
		st := frame.New(xml.Name{Space: stanza.NSStatus, Local: "status"}).
			WithAttr("delivered", "true").
			WithAttr("read", "false").
			WithAttr("timestamp", "2026-03-04T05:06:07Z")
		return stanza.IQ(stanza.ResultIQ, "", f.Attr("id"), st)
	})

	st, err := receipts.GetStatus(context.Background(), c, "m1", "bob@example.com")
	require.NoError(t, err)
	assert.True(t, st.Delivered)
	assert.False(t, st.Read)
	assert.Equal(t, time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC), st.Time)
}

func TestGetStatusNotFound(t *testing.T) {
	c, _ := online(t, statusServer(stanza.ItemNotFound))

	// A message with no recorded status is a normal result, not an error.
	st, err := receipts.GetStatus(context.Background(), c, "unknown", "bob@example.com")
	require.NoError(t, err)
	assert.False(t, st.Delivered)
	assert.False(t, st.Read)
}

// Marks issued in reaction to an incoming message must be handed off the
// event delivery goroutine: the mark's own round trip is answered by that
// goroutine, so a handler that waited for it inline would never be answered.
// This drives the pattern the message handlers are documented to use.
func TestMarkDeliveredFromHandler(t *testing.T) {
	c, tr := online(t, statusServer(""))

	done := make(chan error, 1)
	dispatch.New(c, dispatch.OnMessage(func(m stanza.Message) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			done <- receipts.MarkDelivered(ctx, c, receipts.Mark{
				ID:   m.ID,
				From: m.From,
				To:   "me@example.com",
			})
		}()
	}))

	msg := stanza.Chat("me@example.com", "hi", stanza.ChatOptions{ID: "m9"})
	msg.Attrs = append(msg.Attrs, xml.Attr{Name: xml.Name{Local: "from"}, Value: "bob@example.com"})
	tr.Deliver(msg)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("mark issued from a message handler never completed")
	}

	var received *frame.Frame
	for _, f := range tr.Sent() {
		if r := f.ChildNS(xml.Name{Space: stanza.NSReceipts, Local: "received"}); r != nil {
			received = r
		}
	}
	require.NotNil(t, received, "expected a received receipt")
	assert.Equal(t, "m9", received.Attr("id"))
}

func TestMarkReadReceiptSendFailed(t *testing.T) {
	boom := errors.New("stream broke")
	tr := transporttest.New(
		transporttest.AutoOnline(),
		transporttest.Respond(statusServer("")),
		transporttest.SendError(func(f *frame.Frame) error {
			// The mark iq goes through; the receipt message does not.
			if f.Name.Local == "message" {
				return boom
			}
			return nil
		}),
	)
	c, err := converse.New(testConfig(), transporttest.Factory(tr))
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background()))

	err = receipts.MarkRead(context.Background(), c,
		receipts.Mark{ID: "m1", From: "bob@example.com", To: "me@example.com"})
	require.ErrorIs(t, err, receipts.ErrServer)
	require.ErrorIs(t, err, boom)
}

func TestMarkNotConnected(t *testing.T) {
	c, err := converse.New(testConfig(), transporttest.Factory(transporttest.New()))
	require.NoError(t, err)
	err = receipts.MarkRead(context.Background(), c,
		receipts.Mark{ID: "m", From: "a@b", To: "me@example.com"})
	require.ErrorIs(t, err, receipts.ErrServer)
	require.ErrorIs(t, err, converse.ErrNotConnected)
}
