// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package frame provides the stanza tree used throughout this module.
//
// A Frame is one discrete protocol unit (message, presence, or iq) or any
// element nested inside one. Frames are constructed once and treated as
// immutable afterwards; nothing in this module mutates a frame after it has
// been handed off.
package frame // import "mellium.im/converse/frame"

import (
	"encoding/xml"
	"io"
	"strings"

	"mellium.im/xmlstream"
)

// Frame is a single element in a stanza tree: a name, its attributes, any
// character data directly below it, and its child elements in document order.
// Mixed content (text interleaved with elements) is not preserved; no stanza
// this module produces or consumes requires it.
type Frame struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Text     string
	Children []*Frame
}

// New returns a frame with the provided name and children.
// Nil children are skipped so callers can build optional payloads inline.
func New(name xml.Name, children ...*Frame) *Frame {
	f := &Frame{Name: name}
	for _, c := range children {
		if c != nil {
			f.Children = append(f.Children, c)
		}
	}
	return f
}

// WithAttr returns f with the attribute appended.
// Attributes with an empty value are skipped.
func (f *Frame) WithAttr(local, value string) *Frame {
	if value != "" {
		f.Attrs = append(f.Attrs, xml.Attr{Name: xml.Name{Local: local}, Value: value})
	}
	return f
}

// WithText returns f with its character data set.
func (f *Frame) WithText(s string) *Frame {
	f.Text = s
	return f
}

// Attr returns the value of the first attribute with the provided local name
// or an empty string if no such attribute exists.
func (f *Frame) Attr(local string) string {
	for _, a := range f.Attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// Child returns the first child element with the provided local name
// regardless of namespace, or nil.
func (f *Frame) Child(local string) *Frame {
	for _, c := range f.Children {
		if c.Name.Local == local {
			return c
		}
	}
	return nil
}

// ChildNS returns the first child element matching both the namespace and
// local name, or nil.
func (f *Frame) ChildNS(name xml.Name) *Frame {
	for _, c := range f.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// All returns every child element with the provided local name in document
// order.
func (f *Frame) All(local string) []*Frame {
	var out []*Frame
	for _, c := range f.Children {
		if c.Name.Local == local {
			out = append(out, c)
		}
	}
	return out
}

// ChildText returns the character data of the first child with the provided
// local name, or an empty string if no such child exists.
func (f *Frame) ChildText(local string) string {
	if c := f.Child(local); c != nil {
		return c.Text
	}
	return ""
}

// TokenReader implements xmlstream.Marshaler.
func (f *Frame) TokenReader() xml.TokenReader {
	start := xml.StartElement{Name: f.Name, Attr: f.Attrs}
	var inner []xml.TokenReader
	if f.Text != "" {
		inner = append(inner, xmlstream.Token(xml.CharData(f.Text)))
	}
	for _, c := range f.Children {
		inner = append(inner, c.TokenReader())
	}
	return xmlstream.Wrap(xmlstream.MultiReader(inner...), start)
}

// WriteXML implements xmlstream.WriterTo.
func (f *Frame) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, f.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (f *Frame) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := f.WriteXML(e)
	if err != nil {
		return err
	}
	return e.Flush()
}

// String renders the frame as XML.
// It is meant for logging and tests, not for wire output.
func (f *Frame) String() string {
	var b strings.Builder
	e := xml.NewEncoder(&b)
	if err := f.MarshalXML(e, xml.StartElement{}); err != nil {
		return "<!" + err.Error() + ">"
	}
	return b.String()
}

// Decode reads the next element from d and returns it as a frame.
// Tokens before the first start element (character data, comments, processing
// instructions) are discarded.
func Decode(d *xml.Decoder) (*Frame, error) {
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return DecodeElement(d, start)
		}
	}
}

// DecodeElement builds the frame rooted at start, consuming tokens from d up
// to and including the matching end element.
func DecodeElement(d *xml.Decoder, start xml.StartElement) (*Frame, error) {
	f := &Frame{Name: start.Name}
	for _, a := range start.Attr {
		// Namespace declarations are resolved into Name.Space by the
		// decoder; carrying them as attributes would double them up on
		// re-encode.
		if a.Name.Local == "xmlns" || a.Name.Space == "xmlns" {
			continue
		}
		f.Attrs = append(f.Attrs, a)
	}
	var text strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			c, err := DecodeElement(d, t)
			if err != nil {
				return nil, err
			}
			f.Children = append(f.Children, c)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			f.Text = strings.TrimSpace(text.String())
			return f, nil
		}
	}
}

// Parse decodes a single frame from the provided XML document.
func Parse(p []byte) (*Frame, error) {
	f, err := Decode(xml.NewDecoder(strings.NewReader(string(p))))
	if err == io.EOF {
		return nil, io.ErrUnexpectedEOF
	}
	return f, err
}
