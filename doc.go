// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package converse maintains a client session to a federated chat server.
//
// The Client owns the connection lifecycle: a timeout-bounded connect, the
// online/offline/error transitions, and exponential-backoff reconnection.
// It also provides the correlated request/response protocol used by one-shot
// queries: SendQuery attaches an identifier to an outbound frame and blocks
// until the matching response arrives.
//
// Stream negotiation, TLS and authentication are the concern of the
// Transport implementation; the Client only consumes the transport's
// online/offline/error/frame events.
package converse // import "mellium.im/converse"
