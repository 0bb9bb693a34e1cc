// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package converse

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mellium.im/converse/frame"
)

const (
	// maxReconnectAttempts is the number of automatic reconnects tried
	// after consecutive failures before the client gives up and stays in
	// the error state.
	maxReconnectAttempts = 5

	// maxBackoff caps the delay between reconnect attempts.
	maxBackoff = 30 * time.Second
)

// backoff returns the reconnect delay for the provided attempt number,
// doubling from one second up to maxBackoff.
func backoff(attempts int) time.Duration {
	d := time.Second << uint(attempts)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

// Client owns one session to the server: the lifecycle state machine,
// automatic reconnection, and the correlated request/response protocol.
//
// Client is safe for concurrent use by multiple goroutines. Handlers may be
// registered at any time; a handler registered after an event has been
// emitted only sees subsequent events. Handlers run on the session's event
// delivery goroutine, so a handler that blocks stalls the whole inbound
// stream — in particular it must not wait on one of the client's own round
// trips such as SendQuery. Hand that work to another goroutine instead.
type Client struct {
	config       Config
	newTransport TransportFactory
	logger       *slog.Logger
	metrics      *metrics

	mu           sync.Mutex
	status       Status
	transport    Transport
	attempts     int
	connectTimer *time.Timer
	backoffTimer *time.Timer
	ready        chan error
	pending      map[string]chan *frame.Frame

	onStatus []func(Status)
	onError  []func(error)
	onFrame  []func(*frame.Frame)
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for lifecycle and dispatch logging.
// It defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithRegisterer registers the client's Prometheus collectors with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Client) {
		c.metrics = newMetrics(reg)
	}
}

// New validates the configuration and returns a client in the disconnected
// state. No network activity happens until Connect is called.
func New(cfg Config, f TransportFactory, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	c := &Client{
		config:       cfg,
		newTransport: f,
		pending:      make(map[string]chan *frame.Frame),
	}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.metrics == nil {
		c.metrics = newMetrics(nil)
	}
	return c, nil
}

// Config returns the validated configuration the client was built with.
func (c *Client) Config() Config {
	return c.config
}

// Status returns the current lifecycle state.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// OnStatus registers a handler invoked on every lifecycle transition, at the
// point of the transition and in order.
func (c *Client) OnStatus(fn func(Status)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStatus = append(c.onStatus, fn)
}

// OnError registers a handler invoked when a connection error occurs.
// Errors delivered here are also returned from the call that observed them,
// if one is waiting.
func (c *Client) OnError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = append(c.onError, fn)
}

// OnFrame registers a handler for inbound frames that were not consumed as
// the response to a correlated request. Handlers see frames in transport
// delivery order.
func (c *Client) OnFrame(fn func(*frame.Frame)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFrame = append(c.onFrame, fn)
}

// Connect establishes the session. It blocks until the transport reports
// online, the connect attempt fails, the connect timeout elapses, or ctx is
// canceled. Calling Connect while a session is connecting or online fails
// without touching the session.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.status {
	case StatusConnecting:
		c.mu.Unlock()
		return ErrAlreadyConnecting
	case StatusOnline:
		c.mu.Unlock()
		return ErrAlreadyOnline
	}
	ready := make(chan error, 1)
	c.ready = ready
	c.status = StatusConnecting
	c.mu.Unlock()
	c.emitStatus(StatusConnecting)

	c.dial(ctx)

	select {
	case err := <-ready:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dial creates and starts a transport session for the current connect
// attempt. It is called without the lock held.
func (c *Client) dial(ctx context.Context) {
	t, err := c.newTransport(c.config)
	if err != nil {
		c.connectFailed(nil, fmt.Errorf("converse: transport setup: %w", err))
		return
	}
	c.mu.Lock()
	if c.status != StatusConnecting {
		// Disconnected while we were setting up.
		c.mu.Unlock()
		_ = t.Stop(ctx)
		return
	}
	c.transport = t
	c.connectTimer = time.AfterFunc(c.config.ConnectTimeout, func() {
		c.connectTimedOut(t)
	})
	c.mu.Unlock()

	go c.watch(t)
	if err := t.Start(ctx); err != nil {
		c.connectFailed(t, fmt.Errorf("converse: transport start: %w", err))
	}
}

// watch consumes one transport session's event stream until it closes.
func (c *Client) watch(t Transport) {
	for ev := range t.Events() {
		switch ev.Kind {
		case EventOnline:
			c.handleOnline(t)
		case EventOffline:
			c.handleOffline(t)
		case EventError:
			c.connectFailed(t, fmt.Errorf("converse: transport: %w", ev.Err))
		case EventFrame:
			c.handleFrame(t, ev.Frame)
		}
	}
}

func (c *Client) handleOnline(t Transport) {
	c.mu.Lock()
	if c.transport != t || c.status != StatusConnecting {
		c.mu.Unlock()
		return
	}
	c.stopConnectTimerLocked()
	c.attempts = 0
	c.status = StatusOnline
	ready := c.ready
	c.ready = nil
	c.mu.Unlock()

	c.metrics.connected.Set(1)
	c.logger.Info("session online", "jid", c.config.JID)
	c.emitStatus(StatusOnline)
	if ready != nil {
		ready <- nil
	}
}

// handleOffline handles the peer closing an established stream. Offline
// events during connect attempts are folded into the error path by the
// transport instead.
func (c *Client) handleOffline(t Transport) {
	c.mu.Lock()
	if c.transport != t || c.status != StatusOnline {
		c.mu.Unlock()
		return
	}
	c.transport = nil
	c.status = StatusDisconnected
	c.mu.Unlock()

	c.metrics.connected.Set(0)
	c.logger.Info("session closed by peer")
	c.emitStatus(StatusDisconnected)
}

// connectTimedOut is the connect timer callback. The timeout only applies
// while the attempt that armed it is still connecting: a timer whose body
// was already running when handleOnline stopped it must not tear down the
// session it raced with.
func (c *Client) connectTimedOut(t Transport) {
	c.fail(t, ErrTimeout, false)
}

// connectFailed drives the transition into the error state from either a
// connect attempt or an established session, and makes the reconnect
// decision. The connect timeout is cleared before any event is emitted.
func (c *Client) connectFailed(t Transport, err error) {
	c.fail(t, err, true)
}

func (c *Client) fail(t Transport, err error, allowOnline bool) {
	c.mu.Lock()
	if t != nil && c.transport != t {
		c.mu.Unlock()
		return
	}
	if c.status != StatusConnecting && !(allowOnline && c.status == StatusOnline) {
		c.mu.Unlock()
		return
	}
	c.stopConnectTimerLocked()
	if c.transport != nil {
		old := c.transport
		c.transport = nil
		go func() {
			_ = old.Stop(context.Background())
		}()
	}
	c.status = StatusError
	var delay time.Duration
	scheduled := false
	if c.attempts < maxReconnectAttempts {
		delay = backoff(c.attempts)
		c.attempts++
		c.backoffTimer = time.AfterFunc(delay, c.reconnect)
		scheduled = true
	}
	ready := c.ready
	c.ready = nil
	c.mu.Unlock()

	c.metrics.connected.Set(0)
	if scheduled {
		c.logger.Warn("connection failed, reconnect scheduled", "error", err, "delay", delay)
	} else {
		c.logger.Error("connection failed, giving up", "error", err)
	}
	c.emitStatus(StatusError)
	c.emitError(err)
	if ready != nil {
		ready <- err
	}
}

// reconnect is the backoff timer callback. An explicit Disconnect between
// scheduling and firing moves the state away from error, which cancels the
// attempt here even if stopping the timer raced.
func (c *Client) reconnect() {
	c.mu.Lock()
	if c.status != StatusError {
		c.mu.Unlock()
		return
	}
	c.status = StatusConnecting
	attempt := c.attempts
	c.mu.Unlock()

	c.metrics.reconnects.Inc()
	c.logger.Info("reconnecting", "attempt", attempt)
	c.emitStatus(StatusConnecting)
	c.dial(context.Background())
}

// Disconnect tears the session down: the transport is stopped and detached,
// the reconnect attempt counter is reset, and any scheduled reconnect or
// connect timeout is canceled. It is a no-op if there is neither a transport
// handle nor a pending reconnect.
//
// Outstanding SendQuery calls are not rejected by Disconnect; their callers
// time out through their own contexts. See the SendQuery documentation.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	c.stopConnectTimerLocked()
	if c.backoffTimer != nil {
		c.backoffTimer.Stop()
		c.backoffTimer = nil
	}
	c.attempts = 0
	t := c.transport
	c.transport = nil
	if t == nil && c.status == StatusDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.status = StatusDisconnected
	ready := c.ready
	c.ready = nil
	c.mu.Unlock()

	c.metrics.connected.Set(0)
	if ready != nil {
		ready <- ErrNotConnected
	}
	var err error
	if t != nil {
		err = t.Stop(ctx)
	}
	c.logger.Info("session disconnected")
	c.emitStatus(StatusDisconnected)
	return err
}

// Send transmits a frame over the established session.
// It fails fast with ErrNotConnected if the session is not online.
func (c *Client) Send(ctx context.Context, f *frame.Frame) error {
	c.mu.Lock()
	if c.status != StatusOnline || c.transport == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	t := c.transport
	c.mu.Unlock()
	if err := t.Send(ctx, f); err != nil {
		return fmt.Errorf("converse: send failed: %w", err)
	}
	return nil
}

func (c *Client) stopConnectTimerLocked() {
	if c.connectTimer != nil {
		c.connectTimer.Stop()
		c.connectTimer = nil
	}
}

func (c *Client) emitStatus(s Status) {
	c.mu.Lock()
	handlers := c.onStatus
	c.mu.Unlock()
	for _, fn := range handlers {
		fn(s)
	}
}

func (c *Client) emitError(err error) {
	c.mu.Lock()
	handlers := c.onError
	c.mu.Unlock()
	for _, fn := range handlers {
		fn(err)
	}
}
