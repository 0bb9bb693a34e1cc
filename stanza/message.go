// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package stanza assembles outbound protocol frames and extracts typed
// records from inbound ones.
//
// Builders are pure functions from arguments to a frame tree. Parsers are
// pure functions from a frame tree to a typed record; when a frame is not
// the kind a parser handles it reports ok=false instead of returning an
// error, so a malformed or unrelated stanza can never break the dispatch
// loop.
package stanza // import "mellium.im/converse/stanza"

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"mellium.im/converse/frame"
	"mellium.im/converse/internal/attr"
)

// MessageType is the value of a message stanza's type attribute.
type MessageType string

const (
	// ChatMessage is a standalone one-to-one chat message.
	ChatMessage MessageType = "chat"

	// GroupChatMessage is a message sent within a multi-user chat room.
	GroupChatMessage MessageType = "groupchat"

	// NormalMessage is a message that is not part of a one-to-one chat.
	NormalMessage MessageType = "normal"

	// ErrorMessage is a message error response.
	ErrorMessage MessageType = "error"
)

// File describes a file attached to a message.
type File struct {
	URL  string
	Name string
	Size uint64
	Type string
}

// Message is a chat, file, or group-chat message extracted from an inbound
// frame. The file variant is indicated by a non-nil File; the group-chat
// variant by Type == GroupChatMessage, in which case Room and Nick carry the
// sender's room address and nickname.
type Message struct {
	Type      MessageType
	ID        string
	ArchiveID string
	From      string
	To        string
	Time      time.Time
	Body      string
	Thread    string
	Parent    string
	ReplaceID string
	File      *File
	Room      string
	Nick      string
}

// ChatOptions are the optional parts of an outbound chat message.
type ChatOptions struct {
	// ID is the stanza identifier. A random one is generated if empty.
	ID string

	// Thread and Parent identify the conversation thread the message
	// belongs to.
	Thread string
	Parent string

	// ReplaceID marks the message as a correction of a previous one.
	ReplaceID string

	// Time stamps the message with an original send time, for offline or
	// queued delivery.
	Time time.Time

	// Type overrides the message type. It defaults to chat.
	Type MessageType
}

// Chat assembles a chat message frame addressed to the provided bare or full
// address.
func Chat(to, body string, o ChatOptions) *frame.Frame {
	if o.ID == "" {
		o.ID = attr.RandomID()
	}
	typ := o.Type
	if typ == "" {
		typ = ChatMessage
	}
	m := frame.New(xml.Name{Local: "message"},
		frame.New(xml.Name{Local: "body"}).WithText(body),
	).WithAttr("to", to).WithAttr("type", string(typ)).WithAttr("id", o.ID)
	if o.Thread != "" {
		m.Children = append(m.Children,
			frame.New(xml.Name{Local: "thread"}).WithAttr("parent", o.Parent).WithText(o.Thread))
	}
	if !o.Time.IsZero() {
		m.Children = append(m.Children,
			frame.New(xml.Name{Space: NSDelay, Local: "delay"}).
				WithAttr("stamp", o.Time.UTC().Format(time.RFC3339)))
	}
	if o.ReplaceID != "" {
		m.Children = append(m.Children,
			frame.New(xml.Name{Space: NSCorrect, Local: "replace"}).WithAttr("id", o.ReplaceID))
	}
	return m
}

// Attachment assembles a chat message frame carrying a file descriptor in
// addition to its body.
func Attachment(to, body string, file File, o ChatOptions) *frame.Frame {
	m := Chat(to, body, o)
	m.Children = append(m.Children,
		frame.New(xml.Name{Space: NSFile, Local: "file"}).
			WithAttr("name", file.Name).
			WithAttr("size", strconv.FormatUint(file.Size, 10)).
			WithAttr("type", file.Type).
			WithAttr("url", file.URL))
	return m
}

// ParseMessage extracts a message record from an inbound message frame.
// It reports ok=false for frames that are not messages and for messages
// carrying neither a body nor a file descriptor (receipts, typing
// notifications, and similar payload-only messages).
func ParseMessage(f *frame.Frame) (Message, bool) {
	if f == nil || f.Name.Local != "message" {
		return Message{}, false
	}
	m := Message{
		Type: MessageType(f.Attr("type")),
		ID:   f.Attr("id"),
		From: f.Attr("from"),
		To:   f.Attr("to"),
	}
	if m.Type == "" {
		m.Type = NormalMessage
	}
	if body := f.Child("body"); body != nil {
		m.Body = body.Text
	}
	if th := f.Child("thread"); th != nil {
		m.Thread = th.Text
		m.Parent = th.Attr("parent")
	}
	if rep := f.ChildNS(xml.Name{Space: NSCorrect, Local: "replace"}); rep != nil {
		m.ReplaceID = rep.Attr("id")
	}
	if delay := f.ChildNS(xml.Name{Space: NSDelay, Local: "delay"}); delay != nil {
		if t, err := time.Parse(time.RFC3339, delay.Attr("stamp")); err == nil {
			m.Time = t
		}
	}
	if sid := f.ChildNS(xml.Name{Space: "urn:xmpp:sid:0", Local: "stanza-id"}); sid != nil {
		m.ArchiveID = sid.Attr("id")
	}
	if fd := f.ChildNS(xml.Name{Space: NSFile, Local: "file"}); fd != nil {
		size, _ := strconv.ParseUint(fd.Attr("size"), 10, 64)
		m.File = &File{
			URL:  fd.Attr("url"),
			Name: fd.Attr("name"),
			Size: size,
			Type: fd.Attr("type"),
		}
	}
	if m.Type == GroupChatMessage {
		m.Room, m.Nick = splitResource(m.From)
	}
	if m.Body == "" && m.File == nil {
		return Message{}, false
	}
	return m, true
}

// splitResource splits a full address into its bare part and resource.
// It performs no address validation; that is the concern of the layer that
// produced the address.
func splitResource(addr string) (bare, resource string) {
	if i := strings.IndexByte(addr, '/'); i >= 0 {
		return addr[:i], addr[i+1:]
	}
	return addr, ""
}
