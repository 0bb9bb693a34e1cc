// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package receipts implements the message-status protocol: marking messages
// delivered or read, querying their recorded status, and the receipt frames
// acknowledging them to the original sender.
package receipts // import "mellium.im/converse/receipts"

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"mellium.im/converse"
	"mellium.im/converse/frame"
	"mellium.im/converse/stanza"
)

// Errors returned by status operations. The server-supplied protocol error
// remains in the chain and can be recovered with errors.As.
var (
	// ErrNotFound indicates the referenced message is unknown to the
	// server.
	ErrNotFound = errors.New("receipts: message not found")

	// ErrUnauthorized indicates the account may not change or read the
	// message's status.
	ErrUnauthorized = errors.New("receipts: unauthorized")

	// ErrInvalidID indicates the server rejected the message identifier.
	ErrInvalidID = errors.New("receipts: invalid message id")

	// ErrInvalidJID indicates the server rejected one of the addresses.
	ErrInvalidJID = errors.New("receipts: invalid address")

	// ErrServer covers every other failure, including transport errors.
	ErrServer = errors.New("receipts: server error")
)

// statusError maps a failure from the correlated query onto the status
// error taxonomy. Structured protocol errors select a specific kind by
// condition; anything else is a generic server error.
func statusError(err error) error {
	var se stanza.Error
	if !errors.As(err, &se) {
		return fmt.Errorf("%w: %w", ErrServer, err)
	}
	var kind error
	switch se.Condition {
	case stanza.ItemNotFound:
		kind = ErrNotFound
	case stanza.Forbidden, stanza.NotAuthorized:
		kind = ErrUnauthorized
	case stanza.BadRequest, stanza.NotAcceptable:
		kind = ErrInvalidID
	case stanza.JIDMalformed:
		kind = ErrInvalidJID
	default:
		kind = ErrServer
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// Mark identifies one message whose status is being changed: the message id,
// the original sender, and the receiving account.
type Mark struct {
	ID   string
	From string
	To   string
}

func (m Mark) frame(local string) *frame.Frame {
	return frame.New(xml.Name{Space: stanza.NSStatus, Local: local}).
		WithAttr("id", m.ID).
		WithAttr("from", m.From).
		WithAttr("to", m.To)
}

// MarkRead records the message as read on the server and then, only once
// the server has acknowledged it, fires a displayed receipt back to the
// original sender. If the server rejects the status change no receipt is
// sent and the failure is returned.
func MarkRead(ctx context.Context, c *converse.Client, m Mark) error {
	return mark(ctx, c, m, "mark-read", stanza.Displayed)
}

// MarkDelivered records the message as delivered on the server and then
// fires a received receipt back to the original sender.
// See MarkRead for the failure behavior.
func MarkDelivered(ctx context.Context, c *converse.Client, m Mark) error {
	return mark(ctx, c, m, "mark-delivered", stanza.Received)
}

func mark(ctx context.Context, c *converse.Client, m Mark, local string, receipt func(to, id string) *frame.Frame) error {
	_, err := c.SendQuery(ctx, stanza.IQ(stanza.SetIQ, "", "", m.frame(local)))
	if err != nil {
		return statusError(err)
	}
	// No response is awaited for the receipt, but a failure to send it
	// still surfaces through the same error taxonomy.
	if err := c.Send(ctx, receipt(m.From, m.ID)); err != nil {
		return statusError(err)
	}
	return nil
}

// MarkReadAll marks every message concurrently and waits for all of them.
// A single failure fails the whole batch; there is no partial-success
// report.
func MarkReadAll(ctx context.Context, c *converse.Client, ms []Mark) error {
	return markAll(ctx, c, ms, MarkRead)
}

// MarkDeliveredAll is the delivery counterpart of MarkReadAll.
func MarkDeliveredAll(ctx context.Context, c *converse.Client, ms []Mark) error {
	return markAll(ctx, c, ms, MarkDelivered)
}

func markAll(ctx context.Context, c *converse.Client, ms []Mark, one func(context.Context, *converse.Client, Mark) error) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, m := range ms {
		m := m
		group.Go(func() error {
			return one(ctx, c, m)
		})
	}
	return group.Wait()
}

// Status is the recorded delivery state of one message.
type Status struct {
	Delivered bool
	Read      bool
	Time      time.Time
}

// GetStatus queries the recorded status of a message. A message the server
// has no record of is not an error: it simply has not been delivered or
// read yet, and the zero status is returned.
func GetStatus(ctx context.Context, c *converse.Client, id, addr string) (Status, error) {
	req := frame.New(xml.Name{Space: stanza.NSStatus, Local: "get-status"}).
		WithAttr("id", id).
		WithAttr("jid", addr)
	resp, err := c.SendQuery(ctx, stanza.IQ(stanza.GetIQ, "", "", req))
	if err != nil {
		var se stanza.Error
		if errors.As(err, &se) && se.Condition == stanza.ItemNotFound {
			return Status{}, nil
		}
		return Status{}, statusError(err)
	}
	st := resp.ChildNS(xml.Name{Space: stanza.NSStatus, Local: "status"})
	if st == nil {
		return Status{}, fmt.Errorf("%w: response carries no status", ErrServer)
	}
	out := Status{
		Delivered: st.Attr("delivered") == "true",
		Read:      st.Attr("read") == "true",
	}
	if stamp := st.Attr("timestamp"); stamp != "" {
		if t, err := time.Parse(time.RFC3339, stamp); err == nil {
			out.Time = t
		}
	}
	return out, nil
}
