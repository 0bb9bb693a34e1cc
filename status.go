// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package converse

// Status is the lifecycle state of a client session.
type Status uint8

const (
	// StatusDisconnected is the initial state and the state after an
	// explicit Disconnect or a peer-initiated stream close.
	StatusDisconnected Status = iota

	// StatusConnecting is the state between a connect attempt starting
	// and the transport coming online, failing, or timing out.
	StatusConnecting

	// StatusOnline is the established state; stanzas may be sent.
	StatusOnline

	// StatusError is entered when a connect attempt fails or an
	// established session breaks. Automatic reconnection is scheduled
	// from this state while attempts remain.
	StatusError
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusOnline:
		return "online"
	case StatusError:
		return "error"
	}
	return "invalid"
}
