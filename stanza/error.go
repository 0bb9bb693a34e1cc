// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"encoding/xml"

	"mellium.im/converse/frame"
)

// ErrorType is the type of a stanza error payload.
// It should normally be one of the constants defined in this package.
type ErrorType string

const (
	// Cancel indicates that the error cannot be remedied and the operation
	// should not be retried.
	Cancel ErrorType = "cancel"

	// Auth indicates that an operation should be retried after providing
	// credentials.
	Auth ErrorType = "auth"

	// Continue indicates that the operation can proceed (the condition was
	// only a warning).
	Continue ErrorType = "continue"

	// Modify indicates that the operation can be retried after changing the
	// data sent.
	Modify ErrorType = "modify"

	// Wait indicates that an error is temporary and may be retried.
	Wait ErrorType = "wait"
)

// Condition represents a more specific stanza error condition that can be
// encapsulated by an <error/> element.
type Condition string

// A list of stanza error conditions defined in RFC 6120 §8.3.3.
const (
	// The sender has sent a stanza containing XML that does not conform to
	// the appropriate schema or that cannot be processed.
	BadRequest Condition = "bad-request"

	// Access cannot be granted because an existing resource exists with the
	// same name or address.
	Conflict Condition = "conflict"

	// The feature represented in the XML stanza is not implemented by the
	// intended recipient or an intermediate server.
	FeatureNotImplemented Condition = "feature-not-implemented"

	// The requesting entity does not possess the necessary permissions to
	// perform the action.
	Forbidden Condition = "forbidden"

	// The server could not process the stanza because of a misconfiguration
	// or other internal error.
	InternalServerError Condition = "internal-server-error"

	// The addressed item or entity cannot be found.
	ItemNotFound Condition = "item-not-found"

	// An address or aspect of an address violates the address syntax.
	JIDMalformed Condition = "jid-malformed"

	// The recipient or server understands the request but is refusing to
	// process it because it does not meet criteria defined by the recipient
	// or server.
	NotAcceptable Condition = "not-acceptable"

	// The sender must provide credentials before being allowed to perform
	// the action, or has provided improper credentials.
	NotAuthorized Condition = "not-authorized"

	// The intended recipient is temporarily unavailable.
	RecipientUnavailable Condition = "recipient-unavailable"

	// The server or recipient is busy or lacks the system resources
	// necessary to service the request.
	ResourceConstraint Condition = "resource-constraint"

	// The server or recipient does not currently provide the requested
	// service.
	ServiceUnavailable Condition = "service-unavailable"

	// The error condition is not one of those defined by the other
	// conditions in this list.
	UndefinedCondition Condition = "undefined-condition"

	// The recipient or server understood the request but was not expecting
	// it at this time.
	UnexpectedRequest Condition = "unexpected-request"
)

// Error is a protocol error reported by the server inside an <error/>
// element. It is kept distinct from transport and timeout failures so that
// callers can check the condition with errors.As instead of probing fields
// dynamically.
type Error struct {
	Type      ErrorType
	Condition Condition
	Text      string
}

// Error satisfies the error interface by returning the condition.
func (e Error) Error() string {
	if e.Text != "" {
		return string(e.Condition) + ": " + e.Text
	}
	return string(e.Condition)
}

// Frame renders the error as an <error/> frame suitable for embedding in a
// response stanza.
func (e Error) Frame() *frame.Frame {
	f := frame.New(xml.Name{Local: "error"},
		frame.New(xml.Name{Space: NSStanza, Local: string(e.Condition)}),
	).WithAttr("type", string(e.Type))
	if e.Text != "" {
		f.Children = append(f.Children, frame.New(xml.Name{Space: NSStanza, Local: "text"}).WithText(e.Text))
	}
	return f
}

// ParseError extracts a protocol error from a stanza carrying an <error/>
// child, or from the <error/> frame itself. The second return value is false
// if no error payload is present.
func ParseError(f *frame.Frame) (Error, bool) {
	if f == nil {
		return Error{}, false
	}
	e := f
	if f.Name.Local != "error" {
		e = f.Child("error")
		if e == nil {
			return Error{}, false
		}
	}
	se := Error{Type: ErrorType(e.Attr("type"))}
	for _, c := range e.Children {
		if c.Name.Space != NSStanza {
			continue
		}
		if c.Name.Local == "text" {
			se.Text = c.Text
			continue
		}
		if se.Condition == "" {
			se.Condition = Condition(c.Name.Local)
		}
	}
	if se.Condition == "" {
		se.Condition = UndefinedCondition
	}
	return se, true
}
