// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"encoding/xml"

	"mellium.im/converse/frame"
	"mellium.im/converse/internal/attr"
)

// ReceiptKind distinguishes delivery receipts from display receipts.
type ReceiptKind uint8

const (
	// DeliveredReceipt acknowledges that a message reached the recipient's
	// client.
	DeliveredReceipt ReceiptKind = iota

	// DisplayedReceipt acknowledges that a message was shown to the
	// recipient.
	DisplayedReceipt
)

// String satisfies fmt.Stringer.
func (k ReceiptKind) String() string {
	if k == DisplayedReceipt {
		return "displayed"
	}
	return "delivered"
}

// Receipt is a delivery or display acknowledgement extracted from an inbound
// message frame. ID is the identifier of the message being acknowledged, not
// of the receipt stanza itself.
type Receipt struct {
	Kind ReceiptKind
	ID   string
	From string
	To   string
}

// Received assembles a message frame acknowledging delivery of the message
// with the provided id.
func Received(to, id string) *frame.Frame {
	return receipt(to, frame.New(xml.Name{Space: NSReceipts, Local: "received"}).WithAttr("id", id))
}

// Displayed assembles a message frame acknowledging display of the message
// with the provided id.
func Displayed(to, id string) *frame.Frame {
	return receipt(to, frame.New(xml.Name{Space: NSMarkers, Local: "displayed"}).WithAttr("id", id))
}

func receipt(to string, marker *frame.Frame) *frame.Frame {
	return frame.New(xml.Name{Local: "message"}, marker).
		WithAttr("to", to).
		WithAttr("id", attr.RandomID())
}

// ParseReceipt extracts a receipt record from an inbound message frame.
// It reports ok=false for frames that carry neither a received nor a
// displayed marker.
func ParseReceipt(f *frame.Frame) (Receipt, bool) {
	if f == nil || f.Name.Local != "message" {
		return Receipt{}, false
	}
	r := Receipt{From: f.Attr("from"), To: f.Attr("to")}
	if m := f.ChildNS(xml.Name{Space: NSReceipts, Local: "received"}); m != nil {
		r.Kind = DeliveredReceipt
		r.ID = m.Attr("id")
		return r, true
	}
	if m := f.ChildNS(xml.Name{Space: NSMarkers, Local: "displayed"}); m != nil {
		r.Kind = DisplayedReceipt
		r.ID = m.Attr("id")
		return r, true
	}
	return Receipt{}, false
}
