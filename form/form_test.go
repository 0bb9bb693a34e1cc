// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package form_test

import (
	"testing"

	"mellium.im/converse/form"
	"mellium.im/converse/stanza"
)

func TestSubmit(t *testing.T) {
	x := form.Submit(stanza.NSArchive,
		form.Text("with", "bob@example.com"),
		form.Text("start", ""),
		form.Text("end", "2026-01-01T00:00:00Z"),
	)
	if v := x.Attr("type"); v != "submit" {
		t.Errorf("wrong form type: %s", v)
	}
	fields := x.All("field")
	if len(fields) != 3 {
		t.Fatalf("wrong field count: want=3, got=%d", len(fields))
	}
	first := fields[0]
	if first.Attr("var") != "FORM_TYPE" || first.Attr("type") != "hidden" {
		t.Errorf("first field is not the hidden FORM_TYPE: %v", first)
	}
	if v := form.Get(x, "FORM_TYPE"); v != stanza.NSArchive {
		t.Errorf("wrong FORM_TYPE: %s", v)
	}
	if v := form.Get(x, "with"); v != "bob@example.com" {
		t.Errorf("wrong with: %s", v)
	}
	if v := form.Get(x, "start"); v != "" {
		t.Errorf("empty field should have been skipped, got %s", v)
	}
}
