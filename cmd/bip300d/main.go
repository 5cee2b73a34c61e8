// Command bip300d runs the BIP300/BIP301 drivechain validator as a small
// HTTP service: it opens the transactional store and serves IsValid,
// ConnectBlock, DisconnectBlock, and GetCoinbasePsbt over a thin
// encoding/json surface for an upstream full node to drive.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/LayerTwo-Labs/bip300-monitor/internal/facade"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	defaults := DefaultConfig()
	cfg := defaults

	fs := flag.NewFlagSet("bip300d", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.DataDir, "datadir", defaults.DataDir, "data directory for the bbolt store")
	fs.StringVar(&cfg.ListenAddr, "listen", defaults.ListenAddr, "HTTP listen address host:port")
	fs.StringVar(&cfg.LogLevel, "log-level", defaults.LogLevel, "log level: debug|info|warn|error")
	dryRun := fs.Bool("dry-run", false, "print effective config and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := ValidateConfig(cfg); err != nil {
		fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 2
	}
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		fmt.Fprintf(stderr, "datadir create failed: %v\n", err)
		return 2
	}
	if err := printConfig(stdout, cfg); err != nil {
		fmt.Fprintf(stderr, "config encode failed: %v\n", err)
		return 1
	}
	if *dryRun {
		return 0
	}

	logger := log.New(stderr, "bip300d: ", log.LstdFlags)

	validator, err := facade.New(cfg.DBPath())
	if err != nil {
		fmt.Fprintf(stderr, "store open failed: %v\n", err)
		return 2
	}
	defer validator.Close()

	srv := newServer(validator, logger)
	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: srv.routes()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	fmt.Fprintf(stdout, "bip300d listening on %s\n", cfg.ListenAddr)
	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(stderr, "listener failed: %v\n", err)
			return 2
		}
	case <-ctx.Done():
		fmt.Fprintln(stdout, "bip300d shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(stderr, "shutdown failed: %v\n", err)
			return 2
		}
	}
	fmt.Fprintln(stdout, "bip300d stopped")
	return 0
}

func printConfig(w io.Writer, cfg Config) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}
