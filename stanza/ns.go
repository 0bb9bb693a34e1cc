// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

// Namespaces used by the stanzas this module builds and parses.
// They are provided as a convenience.
const (
	// NSStanza is the namespace of stanza error conditions.
	NSStanza = "urn:ietf:params:xml:ns:xmpp-stanzas"

	// NSReceipts is the namespace of delivery receipts.
	NSReceipts = "urn:xmpp:receipts"

	// NSMarkers is the namespace of display markers.
	NSMarkers = "urn:xmpp:chat-markers:0"

	// NSDelay is the namespace of delayed-delivery timestamps.
	NSDelay = "urn:xmpp:delay"

	// NSCorrect is the namespace of last-message corrections.
	NSCorrect = "urn:xmpp:message-correct:0"

	// NSFile is the namespace of the file descriptor attached to
	// file-transfer messages.
	NSFile = "urn:xmpp:chat-file:0"

	// NSStatus is the namespace of the message-status protocol
	// (mark-read, mark-delivered, get-status).
	NSStatus = "urn:xmpp:message-status:0"

	// NSArchive is the namespace of server-side message archives.
	NSArchive = "urn:xmpp:mam:2"

	// NSForward is the namespace of forwarded stanzas inside archive
	// results.
	NSForward = "urn:xmpp:forward:0"

	// NSPaging is the namespace of result-set paging.
	NSPaging = "http://jabber.org/protocol/rsm"

	// NSForms is the namespace of data forms.
	NSForms = "jabber:x:data"

	// NSUpload is the namespace of HTTP upload slot requests.
	NSUpload = "urn:xmpp:http:upload:0"
)
