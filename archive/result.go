// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package archive

import (
	"encoding/xml"
	"time"

	"mellium.im/converse/frame"
	"mellium.im/converse/paging"
	"mellium.im/converse/stanza"
)

// Fin is the terminal frame of a query: whether the result set is complete
// and the paging metadata for the returned slice.
type Fin struct {
	QueryID  string
	Complete bool
	Set      paging.Set
}

// Result is the fully assembled outcome of one archive query.
// It is emitted exactly once per query, after the terminal frame arrives.
type Result struct {
	QueryID  string
	Complete bool
	Messages []stanza.Message
	Set      paging.Set
}

// ParseItem extracts one archived message from a message frame carrying an
// archive result element. The returned message's archive identifier is the
// result element's id and its timestamp, if not carried by the forwarded
// message itself, comes from the forwarded delay element.
// It reports ok=false for frames that are not archive items.
func ParseItem(f *frame.Frame) (queryID string, msg stanza.Message, ok bool) {
	if f == nil || f.Name.Local != "message" {
		return "", stanza.Message{}, false
	}
	res := f.ChildNS(xml.Name{Space: stanza.NSArchive, Local: "result"})
	if res == nil {
		return "", stanza.Message{}, false
	}
	queryID = res.Attr("queryid")
	fwd := res.ChildNS(xml.Name{Space: stanza.NSForward, Local: "forwarded"})
	if fwd == nil {
		return "", stanza.Message{}, false
	}
	inner := fwd.Child("message")
	msg, ok = stanza.ParseMessage(inner)
	if !ok {
		return "", stanza.Message{}, false
	}
	if msg.ArchiveID == "" {
		msg.ArchiveID = res.Attr("id")
	}
	if msg.Time.IsZero() {
		if delay := fwd.ChildNS(xml.Name{Space: stanza.NSDelay, Local: "delay"}); delay != nil {
			if t, err := time.Parse(time.RFC3339, delay.Attr("stamp")); err == nil {
				msg.Time = t
			}
		}
	}
	return queryID, msg, true
}

// ParseFin extracts the terminal marker of a query from a message or iq
// frame carrying a fin element, or from the fin element itself.
// A missing complete attribute means the result set is not complete.
// It reports ok=false for frames that are not archive terminals.
func ParseFin(f *frame.Frame) (Fin, bool) {
	if f == nil {
		return Fin{}, false
	}
	name := xml.Name{Space: stanza.NSArchive, Local: "fin"}
	fin := f
	if f.Name != name {
		fin = f.ChildNS(name)
		if fin == nil {
			return Fin{}, false
		}
	}
	out := Fin{
		QueryID:  fin.Attr("queryid"),
		Complete: fin.Attr("complete") == "true",
	}
	out.Set, _ = paging.ParseSet(fin)
	return out, true
}
