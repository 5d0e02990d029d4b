package datetimed

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

var (
	datePattern = regexp.MustCompile(`^(January|February|March|April|May|June|July|August|September|October|November|December) \d{1,2}, \d{4}$`)
	timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// testEndpoints binds English, Māori and German to free ports.
var testEndpoints = []Endpoint{
	{Port: 0, Language: English, Name: "English"},
	{Port: 0, Language: Maori, Name: "Māori"},
	{Port: 0, Language: German, Name: "German"},
}

// startServer serves cfg on 127.0.0.1 until the returned stop func is called.
func startServer(t *testing.T, cfg ServerConfig) (*Server, func()) {
	t.Helper()

	cfg.Host = "127.0.0.1"
	if cfg.Endpoints == nil {
		cfg.Endpoints = testEndpoints
	}

	srv, err := NewServer(cfg, newLogger())
	if err != nil {
		t.Fatalf("got error when creating server %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			if err := <-done; err != nil {
				t.Errorf("serve returned %v", err)
			}
			srv.Close()
		})
	}
	t.Cleanup(stop)

	return srv, stop
}

// sendRaw sends packet to addr and waits up to timeout for a reply.
func sendRaw(t *testing.T, addr *net.UDPAddr, packet []byte, timeout time.Duration) ([]byte, error) {
	t.Helper()

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if _, err := conn.Write(packet); err != nil {
		t.Fatal(err)
	}

	buff := make([]byte, PacketLength)
	conn.SetReadDeadline(time.Now().Add(timeout))
	n, err := conn.Read(buff)
	if err != nil {
		return nil, err
	}
	return buff[:n], nil
}

func TestServer_DateOnEnglishEndpoint(t *testing.T) {
	srv, _ := startServer(t, ServerConfig{})

	client := newTestClient(t, srv.Addrs()[0], DefaultTimeout)
	resp, err := client.Query(context.Background(), KindDate)
	if err != nil {
		t.Fatal(err)
	}

	if resp.Language != English {
		t.Errorf("wanted language %v got %v", English, resp.Language)
	}
	if !datePattern.MatchString(resp.Text) {
		t.Errorf("text %q is not a date", resp.Text)
	}
	if client.State() != StateReceived {
		t.Errorf("wanted state %v got %v", StateReceived, client.State())
	}
}

func TestServer_TimeRequest(t *testing.T) {
	srv, _ := startServer(t, ServerConfig{})

	client := newTestClient(t, srv.Addrs()[2], DefaultTimeout)
	resp, err := client.Query(context.Background(), KindTime)
	if err != nil {
		t.Fatal(err)
	}

	if resp.Language != German {
		t.Errorf("wanted language %v got %v", German, resp.Language)
	}
	if !timePattern.MatchString(resp.Text) {
		t.Errorf("text %q is not a time", resp.Text)
	}
}

func TestServer_LanguagePerEndpoint(t *testing.T) {
	fixed := time.Date(2024, time.March, 5, 9, 5, 0, 0, time.Local)
	srv, _ := startServer(t, ServerConfig{Clock: func() time.Time { return fixed }})

	tests := []struct {
		kind RequestKind
		want string
	}{
		{kind: KindDate, want: "March 5, 2024"},
		{kind: KindTime, want: "09:05"},
	}

	for i, addr := range srv.Addrs() {
		for _, test := range tests {
			resp, err := newTestClient(t, addr, DefaultTimeout).Query(context.Background(), test.kind)
			if err != nil {
				t.Fatal(err)
			}
			if resp.Language != testEndpoints[i].Language {
				t.Errorf("wanted language %v got %v", testEndpoints[i].Language, resp.Language)
			}
			if resp.Text != test.want {
				t.Errorf("wanted text %q got %q", test.want, resp.Text)
			}
			if got := resp.Time(time.Local); !got.Equal(fixed) {
				t.Errorf("wanted time %v got %v", fixed, got)
			}
		}
	}
}

func TestServer_DropsInvalidRequests(t *testing.T) {
	tests := []struct {
		name   string
		packet []byte
	}{
		{
			name:   "5 byte request",
			packet: []byte{0x36, 0xfb, 0x00, 0x01, 0x00},
		},
		{
			name:   "unknown request type",
			packet: []byte{0x36, 0xfb, 0x00, 0x01, 0x00, 0x03},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			srv, stop := startServer(t, ServerConfig{})

			start := time.Now()
			_, err := sendRaw(t, srv.Addrs()[0], test.packet, DefaultTimeout)
			if !errors.Is(err, os.ErrDeadlineExceeded) {
				t.Fatalf("wanted a timeout got %v", err)
			}
			if elapsed := time.Since(start); elapsed < DefaultTimeout {
				t.Errorf("gave up after %v", elapsed)
			}

			// The server is still answering.
			if _, err := newTestClient(t, srv.Addrs()[0], DefaultTimeout).Query(context.Background(), KindTime); err != nil {
				t.Errorf("server stopped answering: %v", err)
			}

			stop()
			stats := srv.Stats()
			if stats.Received != 2 || stats.Answered != 1 || stats.Dropped[dropDecode] != 1 {
				t.Errorf("unexpected stats %+v", stats)
			}
		})
	}
}

func TestServer_ClientTimesOutOnDroppedRequest(t *testing.T) {
	srv, _ := startServer(t, ServerConfig{
		// One request per hour once the burst is spent.
		RateLimit: rate.Every(time.Hour),
		RateBurst: 1,
	})

	client := newTestClient(t, srv.Addrs()[1], DefaultTimeout)
	if _, err := client.Query(context.Background(), KindDate); err != nil {
		t.Fatalf("first request should be in the burst: %v", err)
	}

	_, err := client.Query(context.Background(), KindDate)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("wanted %v got %v", ErrTimeout, err)
	}
	if client.State() != StateTimedOut {
		t.Errorf("wanted state %v got %v", StateTimedOut, client.State())
	}

	// Limits are per endpoint.
	if _, err := newTestClient(t, srv.Addrs()[0], DefaultTimeout).Query(context.Background(), KindDate); err != nil {
		t.Errorf("other endpoint should answer: %v", err)
	}
}

func TestServer_Blocklist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocklist.txt")
	if err := os.WriteFile(path, []byte("0.0.0.0 127.0.0.1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	blocklist, err := NewBlocklist(path, newLogger())
	if err != nil {
		t.Fatal(err)
	}

	srv, stop := startServer(t, ServerConfig{Blocklist: blocklist})

	client := newTestClient(t, srv.Addrs()[0], 200*time.Millisecond)
	if _, err := client.Query(context.Background(), KindTime); !errors.Is(err, ErrTimeout) {
		t.Fatalf("wanted %v got %v", ErrTimeout, err)
	}

	stop()
	if got := srv.Stats().Dropped[dropBlocked]; got != 1 {
		t.Errorf("wanted 1 blocked drop got %d", got)
	}
}

func TestServer_BindFailure(t *testing.T) {
	taken := listenLocal(t)
	port := taken.LocalAddr().(*net.UDPAddr).Port

	_, err := NewServer(ServerConfig{
		Host:      "127.0.0.1",
		Endpoints: []Endpoint{{Port: 0, Language: English}, {Port: port, Language: Maori}},
	}, newLogger())
	if !errors.Is(err, ErrBinding) {
		t.Errorf("wanted %v got %v", ErrBinding, err)
	}
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	srv, err := NewServer(ServerConfig{Host: "127.0.0.1", Endpoints: testEndpoints}, newLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("wanted nil got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve didn't return after cancel")
	}
}

func TestServer_Run(t *testing.T) {
	endpointsFile := filepath.Join(t.TempDir(), "endpoints.yml")
	endpoints := "endpoints:\n  - port: 0\n    language: 1\n  - port: 0\n    language: 2\n"
	if err := os.WriteFile(endpointsFile, []byte(endpoints), 0o644); err != nil {
		t.Fatal(err)
	}

	// Serve returns straight away on a cancelled context, so only setup runs.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	config := &Config{
		ListenHost:    "127.0.0.1",
		EndpointsFile: endpointsFile,
		BlocklistFile: "fixtures/blocklist_test.txt",
		RateLimit:     10,
		RateBurst:     5,
	}
	if err := Run(ctx, config, newLogger()); err != nil {
		t.Errorf("wanted nil got %v", err)
	}

	config.EndpointsFile = "non-existant file"
	if err := Run(ctx, config, newLogger()); !errors.Is(err, ErrReadingEndpointsFile) {
		t.Errorf("wanted %v got %v", ErrReadingEndpointsFile, err)
	}

	config.EndpointsFile = endpointsFile
	config.BlocklistFile = "nonexistantfile.txt"
	if err := Run(ctx, config, newLogger()); err == nil {
		t.Error("missing blocklist should error")
	}
}
