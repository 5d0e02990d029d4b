package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/jamesduncombe/datetimed"
	"github.com/joho/godotenv"
)

// datetimed version.
var datetimedVersion string

// Flags for setting up datetimed.
var (
	listenHost    string
	endpointsFile string
	blocklistFile string
	rateLimit     float64
	rateBurst     int
	debug         bool
	version       bool
)

// NewConfig builds a new config from the command line flags.
func NewConfig(
	listenHost string,
	endpointsFile string,
	blocklistFile string,
	rateLimit float64,
	rateBurst int,
) *datetimed.Config {
	return &datetimed.Config{
		ListenHost:    listenHost,
		EndpointsFile: endpointsFile,
		BlocklistFile: blocklistFile,
		RateLimit:     rateLimit,
		RateBurst:     rateBurst,
		Version:       datetimedVersion,
	}
}

func main() {

	// Environment overrides the flag defaults, a .env file is optional.
	_ = godotenv.Load()

	// Setup usual usage intructions for the cmd.
	flag.Usage = usage

	// Flags init.
	flag.StringVar(&listenHost, "l", getEnv("DATETIMED_HOST", "localhost"), "Listen on `host` for serving requests")
	flag.StringVar(&endpointsFile, "e", getEnv("DATETIMED_ENDPOINTS", ""), "Read endpoints from `endpoints_file` instead of the defaults")
	flag.StringVar(&blocklistFile, "b", getEnv("DATETIMED_BLOCKLIST", ""), "Read `blocklist_file` and drop requests from those addresses")
	flag.Float64Var(&rateLimit, "rate", getEnvFloat("DATETIMED_RATE", 0), "Answer at most `n` requests per second per endpoint (0 is unlimited)")
	flag.IntVar(&rateBurst, "burst", getEnvInt("DATETIMED_BURST", 10), "Burst size for the rate limit")
	flag.BoolVar(&debug, "debug", false, "Turn on debug logging")
	flag.BoolVar(&version, "version", false, "Displays the version of datetimed")
	flag.Parse()

	if version {
		fmt.Printf("datetimed: %s\n", datetimedVersion)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	// Stop serving on the usual exit signals.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Build the config.
	config := NewConfig(listenHost, endpointsFile, blocklistFile, rateLimit, rateBurst)

	// Start datetimed.
	if err := datetimed.Run(ctx, config, logger); err != nil {
		logger.Error("Fatal", "err", err)
		os.Exit(1)
	}
}

// usage handles the default usage instructions for the cmd.
func usage() {
	fmt.Println(datetimedVersion)
	fmt.Printf("\nUsage:\n\n")
	flag.PrintDefaults()
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
