// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"

	"github.com/spf13/cobra"

	"mellium.im/converse/archive"
	"mellium.im/converse/dispatch"
	"mellium.im/converse/paging"
)

var (
	historyMax    uint64
	historyAfter  string
	historySearch string
)

var historyCmd = &cobra.Command{
	Use:   "history <with>",
	Short: "Fetch archived messages exchanged with an address",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Uint64Var(&historyMax, "max", 50, "page size")
	historyCmd.Flags().StringVar(&historyAfter, "after", "", "resume after this archive id")
	historyCmd.Flags().StringVar(&historySearch, "search", "", "full text search")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Disconnect(context.Background()) }()

	d := dispatch.New(c, dispatch.WithLogger(logger()))
	res, err := d.QueryArchive(ctx, "", archive.Query{
		With: args[0],
		Text: historySearch,
		Page: paging.Request{Max: historyMax, After: historyAfter},
	})
	if err != nil {
		return err
	}

	for _, m := range res.Messages {
		cmd.Printf("%s  %s: %s\n", stamp(m.Time), m.From, m.Body)
	}
	if !res.Complete && res.Set.Last != "" {
		cmd.Printf("more available, resume with --after %s\n", res.Set.Last)
	}
	return nil
}
