// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package paging implements result-set paging for bounded slices of ordered
// results.
package paging // import "mellium.im/converse/paging"

import (
	"encoding/xml"
	"strconv"

	"mellium.im/converse/frame"
	"mellium.im/converse/stanza"
)

// Request bounds a query to a slice of the full result set.
// The zero value requests the first page with the server's default size.
type Request struct {
	// Max limits the number of items returned in the page.
	Max uint64

	// After and Before are opaque item identifiers to page forward or
	// backward from. An empty Before paired with the HasBefore flag
	// requests the last page.
	After     string
	Before    string
	HasBefore bool

	// Index skips directly to a page by offset. It is not always
	// supported by servers.
	Index    uint64
	HasIndex bool
}

// Frame renders the request as a paging set element.
func (req Request) Frame() *frame.Frame {
	set := frame.New(xml.Name{Space: stanza.NSPaging, Local: "set"})
	if req.Max > 0 {
		set.Children = append(set.Children,
			frame.New(xml.Name{Local: "max"}).WithText(strconv.FormatUint(req.Max, 10)))
	}
	if req.After != "" {
		set.Children = append(set.Children,
			frame.New(xml.Name{Local: "after"}).WithText(req.After))
	}
	if req.HasBefore || req.Before != "" {
		set.Children = append(set.Children,
			frame.New(xml.Name{Local: "before"}).WithText(req.Before))
	}
	if req.HasIndex {
		set.Children = append(set.Children,
			frame.New(xml.Name{Local: "index"}).WithText(strconv.FormatUint(req.Index, 10)))
	}
	return set
}

// Empty reports whether the request carries no paging constraints at all, in
// which case it can be omitted from a query.
func (req Request) Empty() bool {
	return req == Request{}
}

// Set describes the page of results a server returned: the identifiers of
// the first and last items in the page and, when the server provides it, the
// total count of matching items.
type Set struct {
	First string
	Last  string
	Count uint64
}

// Frame renders the set as a paging set element.
func (s Set) Frame() *frame.Frame {
	set := frame.New(xml.Name{Space: stanza.NSPaging, Local: "set"})
	if s.First != "" {
		set.Children = append(set.Children,
			frame.New(xml.Name{Local: "first"}).WithText(s.First))
	}
	if s.Last != "" {
		set.Children = append(set.Children,
			frame.New(xml.Name{Local: "last"}).WithText(s.Last))
	}
	if s.Count > 0 {
		set.Children = append(set.Children,
			frame.New(xml.Name{Local: "count"}).WithText(strconv.FormatUint(s.Count, 10)))
	}
	return set
}

// ParseSet extracts the paging metadata from a frame containing a paging set
// element (or from the set element itself). It reports ok=false when no set
// element is present.
func ParseSet(f *frame.Frame) (Set, bool) {
	if f == nil {
		return Set{}, false
	}
	set := f
	if f.Name != (xml.Name{Space: stanza.NSPaging, Local: "set"}) {
		set = f.ChildNS(xml.Name{Space: stanza.NSPaging, Local: "set"})
		if set == nil {
			return Set{}, false
		}
	}
	s := Set{
		First: set.ChildText("first"),
		Last:  set.ChildText("last"),
	}
	s.Count, _ = strconv.ParseUint(set.ChildText("count"), 10, 64)
	return s, true
}
