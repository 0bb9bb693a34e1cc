// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// The converse command is a small chat client for poking at a service from
// the shell: send a message, page through history, or sit and listen.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mellium.im/converse"
)

var version = "dev"

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:     "converse",
	Short:   "A command line chat client",
	Long: `A command line client for chat services: send messages, page through
server side history, and watch a session's incoming traffic.

Connection settings come from flags, from CONVERSE_* environment
variables, or from a config file (default: ~/.config/converse/config.yaml).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/converse/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"log protocol events to stderr")
	rootCmd.PersistentFlags().String("service", "",
		"WebSocket endpoint of the service (wss://…)")
	rootCmd.PersistentFlags().String("domain", "",
		"domain of the account")
	rootCmd.PersistentFlags().String("jid", "",
		"address of the account")
	rootCmd.PersistentFlags().String("password", "",
		"password of the account (prefer CONVERSE_PASSWORD)")
	rootCmd.PersistentFlags().Duration("timeout", converse.DefaultConnectTimeout,
		"connect timeout")

	for _, name := range []string{"service", "domain", "jid", "password", "timeout"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
	viper.SetEnvPrefix("converse")
	viper.AutomaticEnv()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, _ := os.UserHomeDir()
		viper.AddConfigPath(filepath.Join(home, ".config", "converse"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "converse: reading config: %v\n", err)
		}
	}
}

func clientConfig() converse.Config {
	return converse.Config{
		Service:        viper.GetString("service"),
		Domain:         viper.GetString("domain"),
		JID:            viper.GetString("jid"),
		Password:       viper.GetString("password"),
		ConnectTimeout: viper.GetDuration("timeout"),
	}
}

func logger() *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return time.Now().Format("15:04")
	}
	return t.Local().Format("2006-01-02 15:04")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "converse: %v\n", err)
		os.Exit(1)
	}
}
