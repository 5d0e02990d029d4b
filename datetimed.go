package datetimed

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"
)

// Config represents the command line options.
type Config struct {
	ListenHost    string
	EndpointsFile string
	BlocklistFile string
	RateLimit     float64
	RateBurst     int
	Version       string
}

// Run starts up the server and serves until ctx is cancelled.
// Any error returned happened while setting up and is fatal.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {

	logger.Info("Starting datetimed", "version", config.Version)

	// Load the endpoint table.
	endpoints, err := NewEndpoints(config.EndpointsFile)
	if err != nil {
		return err
	}

	// Setup blocklist.
	var blocklist *Blocklist
	if config.BlocklistFile != "" {
		logger.Info("Loading blocklist", "module", "blocklist")
		blocklist, err = NewBlocklist(config.BlocklistFile, logger)
		if err != nil {
			return err
		}
		logger.Info("Loaded entries into the blocklist", "module", "blocklist", "entries", blocklist.Len())
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
		logger.Info("Rate limiting on", "per_second", config.RateLimit, "burst", config.RateBurst)
	}

	srv, err := NewServer(ServerConfig{
		Host:      config.ListenHost,
		Endpoints: endpoints.Endpoints,
		Blocklist: blocklist,
		RateLimit: limit,
		RateBurst: config.RateBurst,
	}, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	return srv.Serve(ctx)
}
