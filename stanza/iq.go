// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"encoding/xml"

	"mellium.im/converse/frame"
)

// IQType is the value of an iq stanza's type attribute.
type IQType string

const (
	// GetIQ is used to query another entity for information.
	GetIQ IQType = "get"

	// SetIQ is used to provide data or make a request.
	SetIQ IQType = "set"

	// ResultIQ is a response to a successful get or set.
	ResultIQ IQType = "result"

	// ErrorIQ is returned when an error occurred processing a get or set.
	ErrorIQ IQType = "error"
)

// IQ assembles an info/query frame wrapping the provided payload.
// The id may be empty, in which case the connection layer assigns one before
// the frame is sent.
func IQ(typ IQType, to, id string, payload *frame.Frame) *frame.Frame {
	return frame.New(xml.Name{Local: "iq"}, payload).
		WithAttr("to", to).
		WithAttr("type", string(typ)).
		WithAttr("id", id)
}

// IsIQ reports whether the frame is an iq stanza of the provided type.
func IsIQ(f *frame.Frame, typ IQType) bool {
	return f != nil && f.Name.Local == "iq" && IQType(f.Attr("type")) == typ
}
