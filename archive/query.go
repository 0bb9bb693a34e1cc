// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package archive

import (
	"encoding/xml"
	"time"

	"mellium.im/converse/form"
	"mellium.im/converse/frame"
	"mellium.im/converse/paging"
	"mellium.im/converse/stanza"
)

// Query is a request to the archive for data.
// The zero value fetches everything the server is willing to return in one
// page, without a filter.
type Query struct {
	// Filters. With restricts results to messages exchanged with the
	// provided address, Start and End bound the time range, and Text
	// requests a full-text match where the server supports it.
	With  string
	Start time.Time
	End   time.Time
	Text  string

	// Page bounds the result set to one slice.
	Page paging.Request

	// Node addresses an archive other than the default one.
	Node string
}

const (
	fieldWith  = "with"
	fieldStart = "start"
	fieldEnd   = "end"
	fieldText  = "full-text"
)

// Frame renders the query element carrying the provided query identifier.
func (q Query) Frame(queryID string) *frame.Frame {
	query := frame.New(xml.Name{Space: stanza.NSArchive, Local: "query"}).
		WithAttr("queryid", queryID).
		WithAttr("node", q.Node)
	var start, end string
	if !q.Start.IsZero() {
		start = q.Start.UTC().Format(time.RFC3339)
	}
	if !q.End.IsZero() {
		end = q.End.UTC().Format(time.RFC3339)
	}
	if q.With != "" || start != "" || end != "" || q.Text != "" {
		query.Children = append(query.Children, form.Submit(stanza.NSArchive,
			form.Text(fieldWith, q.With),
			form.Text(fieldStart, start),
			form.Text(fieldEnd, end),
			form.Text(fieldText, q.Text),
		))
	}
	if !q.Page.Empty() {
		query.Children = append(query.Children, q.Page.Frame())
	}
	return query
}

// IQ assembles the full set-iq for the query. An empty to address queries
// the account's own archive.
func (q Query) IQ(to, queryID string) *frame.Frame {
	return stanza.IQ(stanza.SetIQ, to, "", q.Frame(queryID))
}
