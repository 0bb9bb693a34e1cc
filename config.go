// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package converse

import (
	"fmt"
	"time"
)

// DefaultConnectTimeout bounds a connect attempt when Config.ConnectTimeout
// is left unset.
const DefaultConnectTimeout = 10 * time.Second

// Config holds the parameters of a client session.
// It is validated once, when the Client is constructed, and never mutated
// afterwards.
type Config struct {
	// Service is the URI of the server endpoint the transport dials.
	Service string

	// Domain is the chat service domain. Service-level addresses such as
	// the upload host are derived from it.
	Domain string

	// JID is the bare address of the account.
	JID string

	// Password authenticates the account.
	Password string

	// Resource optionally names this session. Servers assign one if
	// empty.
	Resource string

	// ConnectTimeout bounds each connect attempt.
	// It defaults to DefaultConnectTimeout.
	ConnectTimeout time.Duration
}

func (c Config) validate() error {
	for _, f := range [...]struct {
		name  string
		value string
	}{
		{"service", c.Service},
		{"domain", c.Domain},
		{"jid", c.JID},
		{"password", c.Password},
	} {
		if f.value == "" {
			return fmt.Errorf("%w: missing %s", ErrInvalidConfig, f.name)
		}
	}
	return nil
}
