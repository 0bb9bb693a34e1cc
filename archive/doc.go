// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package archive implements retrieval of historical messages from
// server-side storage.
//
// A single logical query produces a stream of individually routed item
// frames that share a query identifier, terminated by one fin frame for the
// same identifier. The Aggregator assembles these into a complete result;
// partial results are never surfaced.
package archive // import "mellium.im/converse/archive"
