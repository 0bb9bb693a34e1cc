// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package archive_test

import (
	"testing"

	"mellium.im/converse/archive"
	"mellium.im/converse/frame"
	"mellium.im/converse/paging"
	"mellium.im/converse/stanza"
)

func TestAggregatorOrder(t *testing.T) {
	a := archive.NewAggregator()
	for _, body := range []string{"one", "two", "three"} {
		a.OnItem("q1", stanza.Message{Body: body})
	}
	res := a.OnTerminal("q1", true, paging.Set{First: "a", Last: "c", Count: 3})
	if !res.Complete {
		t.Errorf("expected a complete result")
	}
	if len(res.Messages) != 3 {
		t.Fatalf("wrong message count: want=3, got=%d", len(res.Messages))
	}
	for i, body := range []string{"one", "two", "three"} {
		if res.Messages[i].Body != body {
			t.Errorf("wrong message %d: want=%s, got=%s", i, body, res.Messages[i].Body)
		}
	}
	if got := a.Pending(); got != 0 {
		t.Errorf("partial not removed after terminal: %d pending", got)
	}

	// A second terminal for the same id yields an empty result.
	res = a.OnTerminal("q1", true, paging.Set{})
	if len(res.Messages) != 0 {
		t.Errorf("second terminal should yield no messages, got %d", len(res.Messages))
	}
}

func TestAggregatorEmptyQuery(t *testing.T) {
	a := archive.NewAggregator()
	res := a.OnTerminal("never-seen", false, paging.Set{})
	if res.Messages == nil || len(res.Messages) != 0 {
		t.Errorf("expected an empty, non-nil message slice, got %v", res.Messages)
	}
	if res.Complete {
		t.Errorf("completeness should be as given")
	}
}

func TestAggregatorReset(t *testing.T) {
	a := archive.NewAggregator()
	a.OnItem("q1", stanza.Message{Body: "x"})
	a.OnItem("q2", stanza.Message{Body: "y"})
	if got := a.Pending(); got != 2 {
		t.Fatalf("wrong pending count: %d", got)
	}
	a.Reset()
	if got := a.Pending(); got != 0 {
		t.Errorf("reset left %d pending partials", got)
	}
	res := a.OnTerminal("q1", true, paging.Set{})
	if len(res.Messages) != 0 {
		t.Errorf("partial leaked across reset: %v", res.Messages)
	}
}

func TestParseItem(t *testing.T) {
	const in = `<message from="example.com" to="me@example.com">` +
		`<result xmlns="urn:xmpp:mam:2" queryid="q1" id="arch-9">` +
		`<forwarded xmlns="urn:xmpp:forward:0">` +
		`<delay xmlns="urn:xmpp:delay" stamp="2026-01-02T03:04:05Z"/>` +
		`<message from="bob@example.com" to="me@example.com" type="chat" id="m9"><body>hello</body></message>` +
		`</forwarded></result></message>`
	f, err := frame.Parse([]byte(in))
	if err != nil {
		t.Fatalf("error parsing frame: %v", err)
	}
	queryID, msg, ok := archive.ParseItem(f)
	if !ok {
		t.Fatalf("expected an archive item")
	}
	if queryID != "q1" {
		t.Errorf("wrong queryid: %s", queryID)
	}
	if msg.Body != "hello" || msg.From != "bob@example.com" {
		t.Errorf("wrong inner message: %+v", msg)
	}
	if msg.ArchiveID != "arch-9" {
		t.Errorf("wrong archive id: %s", msg.ArchiveID)
	}
	if msg.Time.IsZero() {
		t.Errorf("missing forwarded timestamp")
	}
}

func TestParseItemNotAnItem(t *testing.T) {
	f, err := frame.Parse([]byte(`<message from="a@b"><body>plain</body></message>`))
	if err != nil {
		t.Fatalf("error parsing frame: %v", err)
	}
	if _, _, ok := archive.ParseItem(f); ok {
		t.Errorf("plain message classified as archive item")
	}
}

var parseFinTestCases = [...]struct {
	name string
	in   string
	ok   bool
	fin  archive.Fin
}{
	{
		name: "complete",
		in: `<message from="example.com"><fin xmlns="urn:xmpp:mam:2" queryid="q1" complete="true">` +
			`<set xmlns="http://jabber.org/protocol/rsm"><first>a1</first><last>a3</last><count>3</count></set></fin></message>`,
		ok: true,
		fin: archive.Fin{
			QueryID:  "q1",
			Complete: true,
			Set:      paging.Set{First: "a1", Last: "a3", Count: 3},
		},
	},
	{
		name: "incomplete",
		in:   `<iq type="result" id="i1"><fin xmlns="urn:xmpp:mam:2" queryid="q2"/></iq>`,
		ok:   true,
		fin:  archive.Fin{QueryID: "q2"},
	},
	{
		name: "notfin",
		in:   `<message from="a@b"><body>x</body></message>`,
		ok:   false,
	},
}

func TestParseFin(t *testing.T) {
	for _, tc := range parseFinTestCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := frame.Parse([]byte(tc.in))
			if err != nil {
				t.Fatalf("error parsing frame: %v", err)
			}
			fin, ok := archive.ParseFin(f)
			if ok != tc.ok {
				t.Fatalf("wrong ok: want=%t, got=%t", tc.ok, ok)
			}
			if ok && fin != tc.fin {
				t.Errorf("wrong fin: want=%+v, got=%+v", tc.fin, fin)
			}
		})
	}
}
