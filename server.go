package datetimed

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// pollInterval bounds each readiness wait so cancellation is noticed.
	pollInterval = 250 * time.Millisecond

	// readTimeout guards a read after a wake up that had nothing to read.
	readTimeout = 100 * time.Millisecond
)

// ErrBinding is returned when an endpoint socket cannot be set up.
var ErrBinding = errors.New("binding endpoint")

// ServerConfig holds everything a Server needs at startup.
type ServerConfig struct {
	Host      string
	Endpoints []Endpoint
	Blocklist *Blocklist

	// RateLimit is applied per endpoint. Zero means unlimited.
	RateLimit rate.Limit
	RateBurst int

	// Clock returns the time put in responses. Defaults to time.Now.
	Clock func() time.Time
}

// endpoint is a bound Endpoint.
type endpoint struct {
	Endpoint
	conn    *net.UDPConn
	limiter *rate.Limiter
}

// Server answers DT_Requests on a fixed set of endpoints from a single loop.
type Server struct {
	endpoints []*endpoint
	poller    *Poller
	blocklist *Blocklist
	clock     func() time.Time
	stats     *Stats
	log       *slog.Logger
}

// NewServer binds every endpoint in cfg. Binding failures are returned and
// any socket already bound is closed.
func NewServer(cfg ServerConfig, logger *slog.Logger) (*Server, error) {
	s := &Server{
		blocklist: cfg.Blocklist,
		clock:     cfg.Clock,
		stats:     NewStats(logger),
		log:       logger.With("module", "server"),
	}
	if s.clock == nil {
		s.clock = time.Now
	}

	limit, burst := cfg.RateLimit, cfg.RateBurst
	if limit == 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}

	conns := make([]*net.UDPConn, 0, len(cfg.Endpoints))
	for _, ep := range cfg.Endpoints {
		udpAddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(cfg.Host, strconv.Itoa(ep.Port)))
		if err != nil {
			s.Close()
			return nil, errors.Join(ErrBinding, err)
		}

		conn, err := net.ListenUDP("udp", udpAddr)
		if err != nil {
			s.Close()
			return nil, errors.Join(ErrBinding, err)
		}
		s.log.Info("Binding to port", "addr", conn.LocalAddr(), "language", ep.Language)

		s.endpoints = append(s.endpoints, &endpoint{
			Endpoint: ep,
			conn:     conn,
			limiter:  rate.NewLimiter(limit, burst),
		})
		conns = append(conns, conn)
	}

	poller, err := NewPoller(conns)
	if err != nil {
		s.Close()
		return nil, errors.Join(ErrBinding, err)
	}
	s.poller = poller

	return s, nil
}

// Addrs returns the bound address of each endpoint, in table order.
func (s *Server) Addrs() []*net.UDPAddr {
	addrs := make([]*net.UDPAddr, 0, len(s.endpoints))
	for _, ep := range s.endpoints {
		addrs = append(addrs, ep.conn.LocalAddr().(*net.UDPAddr))
	}
	return addrs
}

// Stats returns the server's counters. Only read them once Serve has returned.
func (s *Server) Stats() *Stats {
	return s.stats
}

// Serve waits for datagrams on all endpoints at once and answers them one at
// a time. It returns nil once ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Info("Waiting for requests...")

	for {
		if ctx.Err() != nil {
			s.log.Info("Exiting...")
			s.stats.Log()
			return nil
		}

		ready, err := s.poller.Wait(pollInterval)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		for _, i := range ready {
			s.handle(s.endpoints[i])
		}

		s.stats.maybeLog(time.Now())
	}
}

// handle reads one datagram from ep and answers it if it is a valid request.
func (s *Server) handle(ep *endpoint) {
	buff := make([]byte, PacketLength)

	ep.conn.SetReadDeadline(time.Now().Add(readTimeout))
	n, clientAddr, err := ep.conn.ReadFromUDP(buff)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			s.log.Debug("Nothing to read", "port", ep.Port)
			return
		}
		s.log.Warn("Error reading datagram", "port", ep.Port, "err", err)
		return
	}

	s.stats.Received++

	log := s.log.With("exchange_id", uuid.NewString(), "client_ip", clientAddr, "language", ep.Language)
	log.Debug("Received datagram", "bytes", n)

	if s.blocklist != nil && s.blocklist.Exists(clientAddr.IP) {
		log.Warn("Dropping packet from blocked source")
		s.stats.drop(dropBlocked)
		return
	}

	if !ep.limiter.Allow() {
		log.Warn("Dropping packet over rate limit")
		s.stats.drop(dropRateLimit)
		return
	}

	kind, err := DecodeRequest(buff[:n])
	if err != nil {
		log.Warn("Dropping packet", "err", err)
		s.stats.drop(dropDecode)
		return
	}

	now := s.clock()
	text := FormatText(kind, now)

	packet, err := EncodeResponse(ep.Language, now, text)
	if err != nil {
		log.Error("Error building response", "err", err)
		s.stats.drop(dropEncode)
		return
	}

	if _, err := ep.conn.WriteToUDP(packet, clientAddr); err != nil {
		log.Warn("Error writing back to client", "err", err)
		s.stats.drop(dropWrite)
		return
	}

	s.stats.Answered++
	log.Info("Response sent", "kind", kind, "text", text)
}

// Close closes every endpoint socket.
func (s *Server) Close() error {
	var errs []error
	for _, ep := range s.endpoints {
		errs = append(errs, ep.conn.Close())
	}
	return errors.Join(errs...)
}
