// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package archive

import (
	"sync"

	"mellium.im/converse/paging"
	"mellium.im/converse/stanza"
)

// Aggregator assembles the item frames of in-flight queries into complete
// results. Items for one query are appended in the order they are routed in,
// which is the order the transport delivered them; the aggregator imposes no
// reordering or deduplication.
//
// Aggregator is safe for concurrent use by multiple goroutines.
type Aggregator struct {
	mu      sync.Mutex
	pending map[string][]stanza.Message
}

// NewAggregator allocates and returns a new Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{pending: make(map[string][]stanza.Message)}
}

// OnItem appends one parsed message to the in-progress partial result for
// the query, creating the partial if this is the query's first item.
// Nothing is observable to consumers until the terminal frame arrives.
func (a *Aggregator) OnItem(queryID string, msg stanza.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending[queryID] = append(a.pending[queryID], msg)
}

// OnTerminal completes the query: the partial result is removed from the
// pending table and returned together with the terminal frame's metadata.
// A terminal for a query with no recorded items yields a result with no
// messages; a query can legitimately match nothing.
func (a *Aggregator) OnTerminal(queryID string, complete bool, set paging.Set) Result {
	a.mu.Lock()
	msgs := a.pending[queryID]
	delete(a.pending, queryID)
	a.mu.Unlock()
	if msgs == nil {
		msgs = []stanza.Message{}
	}
	return Result{
		QueryID:  queryID,
		Complete: complete,
		Messages: msgs,
		Set:      set,
	}
}

// Reset discards every pending partial result. It is called when the session
// leaves the online state; a query in flight across a reconnect is not
// resumed and must be re-issued by the caller.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = make(map[string][]stanza.Message)
}

// Pending returns the number of queries with partial results outstanding.
func (a *Aggregator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}
