// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/heliograph/pkg/radio"
	"github.com/spf13/cobra"
)

var (
	relayListen string
	relayPath   string
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Host a shared WebSocket air for simulated stations",
	Long: `Serve the WebSocket air link that sim, monitor and ping connect to with --url.

Every frame a station transmits is delivered to every other connected station
on the same frequency, stamped with a signal strength derived from the
sender's power.

When --username is set, stations must authenticate with HTTP Basic auth. The
password is read from HELIOGRAPH_PASSWORD or prompted interactively.`,
	RunE: runRelay,
}

func init() {
	rootCmd.AddCommand(relayCmd)
	relayCmd.Flags().StringVar(&relayListen, "listen", ":8080", "Address to listen on")
	relayCmd.Flags().StringVar(&relayPath, "path", "/air", "HTTP path of the WebSocket endpoint")
}

func runRelay(cmd *cobra.Command, args []string) error {
	logger := stderrLogger()

	hub := radio.NewRelay(logger)
	if wsUsername != "" {
		password, err := GetPassword()
		if err != nil {
			return err
		}
		hub.Username = wsUsername
		hub.Password = password
	}

	mux := http.NewServeMux()
	mux.Handle(relayPath, hub)

	srv := &http.Server{
		Addr:              relayListen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("relay listening", "addr", relayListen, "path", relayPath, "auth", hub.Username != "")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "stations", hub.Stations())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
