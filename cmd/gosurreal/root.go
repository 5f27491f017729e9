package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/CaliLuke/go-surreal/driver"
)

var (
	flagURL     string
	flagNS      string
	flagDB      string
	flagUser    string
	flagPass    string
	flagToken   string
	flagTimeout time.Duration
	flagMsgpack bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "gosurreal",
	Short: "Client for SurrealDB-compatible servers",
	Long: `gosurreal talks to a SurrealDB-compatible server over its websocket
RPC endpoint. It runs SurrealQL statements, follows live queries, and
manages schema migrations stored as .surql files.

Connection settings come from flags or from the GOSURREAL_URL,
GOSURREAL_NS, GOSURREAL_DB, GOSURREAL_USER, GOSURREAL_PASS, and
GOSURREAL_TOKEN environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. The context ends on SIGINT or SIGTERM so
// long-running commands shut down cleanly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagURL, "url", envOr("GOSURREAL_URL", "ws://localhost:8000/rpc"), "server RPC endpoint")
	pf.StringVar(&flagNS, "ns", os.Getenv("GOSURREAL_NS"), "namespace to select after connecting")
	pf.StringVar(&flagDB, "db", os.Getenv("GOSURREAL_DB"), "database to select after connecting")
	pf.StringVar(&flagUser, "user", os.Getenv("GOSURREAL_USER"), "username for sign-in")
	pf.StringVar(&flagPass, "pass", os.Getenv("GOSURREAL_PASS"), "password for sign-in")
	pf.StringVar(&flagToken, "token", os.Getenv("GOSURREAL_TOKEN"), "authentication token, instead of --user/--pass")
	pf.DurationVar(&flagTimeout, "timeout", 10*time.Second, "per-call timeout")
	pf.BoolVar(&flagMsgpack, "msgpack", false, "use the msgpack wire format instead of JSON")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "log connection activity to stderr")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// cliLogger returns the logger wired into the driver and the migration
// runner. Silent unless --verbose is set.
func cliLogger() *slog.Logger {
	if flagVerbose {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// connect dials the configured endpoint, selects the namespace and
// database, and signs in when credentials were given.
func connect(ctx context.Context) (*driver.Client, error) {
	opts := driver.NewOptions().
		SetTimeout(flagTimeout).
		SetLogger(cliLogger())
	if flagMsgpack {
		opts.SetCodec(driver.MsgpackCodec{})
	}
	if flagNS != "" {
		opts.SetNamespace(flagNS)
	}
	if flagDB != "" {
		opts.SetDatabase(flagDB)
	}

	c, err := driver.Connect(ctx, flagURL, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", flagURL, err)
	}
	if flagUser != "" {
		if _, err := c.SignIn(ctx, driver.Credentials{Username: flagUser, Password: flagPass}); err != nil {
			c.Close()
			return nil, fmt.Errorf("signing in as %s: %w", flagUser, err)
		}
	} else if flagToken != "" {
		if err := c.Authenticate(ctx, flagToken); err != nil {
			c.Close()
			return nil, fmt.Errorf("authenticating with token: %w", err)
		}
	}
	return c, nil
}
