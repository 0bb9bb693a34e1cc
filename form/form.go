// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package form builds the submit-type data forms used to filter queries.
package form // import "mellium.im/converse/form"

import (
	"encoding/xml"

	"mellium.im/converse/frame"
	"mellium.im/converse/stanza"
)

// Field is a single var/value pair in a submitted form.
type Field struct {
	Var   string
	Value string
}

// Text returns a text field. Fields with an empty value are skipped when the
// form is rendered, so optional filters can be passed unconditionally.
func Text(name, value string) Field {
	return Field{Var: name, Value: value}
}

// Submit renders a submitted data form identified by formType.
// The hidden FORM_TYPE field always comes first.
func Submit(formType string, fields ...Field) *frame.Frame {
	x := frame.New(xml.Name{Space: stanza.NSForms, Local: "x"},
		fieldFrame(Field{Var: "FORM_TYPE", Value: formType}, "hidden"),
	).WithAttr("type", "submit")
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		x.Children = append(x.Children, fieldFrame(f, ""))
	}
	return x
}

func fieldFrame(f Field, typ string) *frame.Frame {
	return frame.New(xml.Name{Local: "field"},
		frame.New(xml.Name{Local: "value"}).WithText(f.Value),
	).WithAttr("var", f.Var).WithAttr("type", typ)
}

// Get extracts the first value of the named field from a data form frame.
func Get(x *frame.Frame, name string) string {
	if x == nil {
		return ""
	}
	for _, f := range x.All("field") {
		if f.Attr("var") == name {
			return f.ChildText("value")
		}
	}
	return ""
}
