package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/jamesduncombe/datetimed"
	"github.com/joho/godotenv"
)

// Errors in the argument parsing phase.
var (
	ErrArgCount    = errors.New("incorrect number of command line arguments")
	ErrInvalidPort = errors.New("port must be an integer between 1 and 65535")
)

// Flags for setting up the client.
var (
	timeout time.Duration
	debug   bool
)

// parseArgs checks the three positional arguments: request type, host and port.
func parseArgs(args []string) (datetimed.RequestKind, string, int, error) {
	if len(args) != 3 {
		return 0, "", 0, ErrArgCount
	}

	kind, err := datetimed.ParseRequestKind(args[0])
	if err != nil {
		return 0, "", 0, err
	}

	port, err := strconv.Atoi(args[2])
	if err != nil || port < 1 || port > 65535 {
		return 0, "", 0, fmt.Errorf("%w: %q", ErrInvalidPort, args[2])
	}

	return kind, args[1], port, nil
}

func main() {

	_ = godotenv.Load()

	flag.Usage = usage
	flag.DurationVar(&timeout, "timeout", getEnvDuration("DTCLIENT_TIMEOUT", datetimed.DefaultTimeout), "Wait at most `duration` for a response")
	flag.BoolVar(&debug, "debug", false, "Turn on debug logging")
	flag.Parse()

	kind, host, port, err := parseArgs(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	client := datetimed.NewClient(host, port, logger)
	client.Timeout = timeout

	resp, err := client.Query(context.Background(), kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	printResponse(os.Stdout, resp)
}

// printResponse writes the decoded fields of resp to w.
func printResponse(w io.Writer, resp *datetimed.Response) {
	fmt.Fprintln(w, "Response received:")
	fmt.Fprintf(w, "Language: %s (%d)\n", resp.Language, uint16(resp.Language))
	fmt.Fprintf(w, "Date: %04d-%02d-%02d %02d:%02d\n", resp.Year, resp.Month, resp.Day, resp.Hour, resp.Minute)
	fmt.Fprintf(w, "Text: %s\n", resp.Text)
}

// usage handles the default usage instructions for the cmd.
func usage() {
	fmt.Printf("\nUsage:\n\n  dtclient [flags] date|time host port\n\n")
	flag.PrintDefaults()
	fmt.Println()
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
