// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"mellium.im/converse"
	"mellium.im/converse/stanza"
	"mellium.im/converse/ws"
)

var sendCmd = &cobra.Command{
	Use:   "send <to> <body>...",
	Short: "Send a chat message",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
}

// connect builds a client over the WebSocket transport and brings it
// online. The caller must Disconnect it.
func connect(ctx context.Context) (*converse.Client, error) {
	c, err := converse.New(clientConfig(), ws.New, converse.WithLogger(logger()))
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Disconnect(context.Background()) }()

	msg := stanza.Chat(args[0], strings.Join(args[1:], " "), stanza.ChatOptions{})
	if err := c.Send(ctx, msg); err != nil {
		return err
	}
	cmd.Printf("sent %s\n", msg.Attr("id"))
	return nil
}
