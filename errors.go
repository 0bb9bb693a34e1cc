// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package converse

import "errors"

// Errors returned by the connection layer.
var (
	// ErrInvalidConfig is returned by New when a required configuration
	// field is empty.
	ErrInvalidConfig = errors.New("converse: invalid config")

	// ErrAlreadyConnecting is returned by Connect when a connect attempt
	// is already in progress.
	ErrAlreadyConnecting = errors.New("converse: already connecting")

	// ErrAlreadyOnline is returned by Connect when the session is already
	// established.
	ErrAlreadyOnline = errors.New("converse: already online")

	// ErrNotConnected is returned by operations that require an
	// established session.
	ErrNotConnected = errors.New("converse: not connected")

	// ErrTimeout is reported when the connect timeout elapses before the
	// transport comes online.
	ErrTimeout = errors.New("converse: connect timed out")

	// ErrDuplicateID is returned by SendQuery when a request with the
	// same correlation id is already outstanding.
	ErrDuplicateID = errors.New("converse: duplicate correlation id")
)
