// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mellium.im/converse"
	"mellium.im/converse/dispatch"
	"mellium.im/converse/receipts"
	"mellium.im/converse/stanza"
)

var listenAck bool

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Stay online and print incoming messages",
	RunE:  runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().BoolVar(&listenAck, "ack", false,
		"mark incoming messages delivered")
}

func runListen(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	c, err := connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Disconnect(context.Background()) }()

	log := logger()
	dispatch.New(c,
		dispatch.WithLogger(log),
		dispatch.OnMessage(func(m stanza.Message) {
			if m.Room != "" {
				cmd.Printf("%s  [%s] %s: %s\n", stamp(m.Time), m.Room, m.Nick, m.Body)
			} else {
				cmd.Printf("%s  %s: %s\n", stamp(m.Time), m.From, m.Body)
			}
			if listenAck && m.ID != "" && m.From != "" {
				// The handler runs on the event delivery goroutine; the
				// mark's own response would never arrive if we waited for
				// it here.
				go func(m stanza.Message) {
					err := receipts.MarkDelivered(ctx, c, receipts.Mark{
						ID:   m.ID,
						From: m.From,
						To:   c.Config().JID,
					})
					if err != nil {
						log.Warn("marking message delivered", "id", m.ID, "err", err)
					}
				}(m)
			}
		}),
		dispatch.OnReceipt(func(r stanza.Receipt) {
			cmd.Printf("message %s was %s\n", r.ID, r.Kind)
		}),
	)
	c.OnStatus(func(s converse.Status) {
		log.Info("connection status changed", "status", s)
	})

	cmd.Printf("online as %s, press Ctrl+C to stop\n", c.Config().JID)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	return nil
}
