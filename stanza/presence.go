// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"encoding/xml"

	"mellium.im/converse/frame"
)

// PresenceType is the value of a presence stanza's type attribute.
// An empty type means the sender is available.
type PresenceType string

const (
	// AvailablePresence indicates availability. On the wire it is the
	// absence of a type attribute.
	AvailablePresence PresenceType = ""

	// UnavailablePresence indicates the sender has gone offline.
	UnavailablePresence PresenceType = "unavailable"

	// SubscribePresence requests a presence subscription.
	SubscribePresence PresenceType = "subscribe"

	// SubscribedPresence accepts a presence subscription request.
	SubscribedPresence PresenceType = "subscribed"

	// UnsubscribePresence cancels a presence subscription.
	UnsubscribePresence PresenceType = "unsubscribe"

	// ProbePresence requests the current presence of a contact.
	// It is normally only sent by servers.
	ProbePresence PresenceType = "probe"

	// ErrorPresence is a presence error response.
	ErrorPresence PresenceType = "error"
)

// Presence is a presence update extracted from an inbound frame.
type Presence struct {
	Type   PresenceType
	From   string
	To     string
	Show   string
	Status string
}

// NewPresence assembles a presence frame. The to address, show value, and
// status text are all optional; a broadcast of availability passes none of
// them.
func NewPresence(typ PresenceType, to, show, status string) *frame.Frame {
	p := frame.New(xml.Name{Local: "presence"}).
		WithAttr("to", to).
		WithAttr("type", string(typ))
	if show != "" {
		p.Children = append(p.Children, frame.New(xml.Name{Local: "show"}).WithText(show))
	}
	if status != "" {
		p.Children = append(p.Children, frame.New(xml.Name{Local: "status"}).WithText(status))
	}
	return p
}

// ParsePresence extracts a presence record from an inbound presence frame.
// It reports ok=false for frames that are not presence stanzas.
func ParsePresence(f *frame.Frame) (Presence, bool) {
	if f == nil || f.Name.Local != "presence" {
		return Presence{}, false
	}
	return Presence{
		Type:   PresenceType(f.Attr("type")),
		From:   f.Attr("from"),
		To:     f.Attr("to"),
		Show:   f.ChildText("show"),
		Status: f.ChildText("status"),
	}, true
}
