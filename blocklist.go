package datetimed

import (
	"bufio"
	"log/slog"
	"net"
	"os"
	"regexp"
	"sync"
)

// Blocklist represents a set of source addresses the server never answers.
type Blocklist struct {
	mu   sync.Mutex
	list map[string]struct{}
	log  *slog.Logger
}

// NewBlocklist creates a new Blocklist from a given hosts file.
// Only the address in the last column of each line is used.
func NewBlocklist(blocklistPath string, logger *slog.Logger) (*Blocklist, error) {

	// Parse and load the blocklist.
	blocklist, err := parseBlocklist(blocklistPath)
	if err != nil {
		return nil, err
	}

	return &Blocklist{
		list: blocklist,
		log:  logger.With("module", "blocklist"),
	}, nil
}

// Exists returns a boolean as to whether this address was found or not in the list.
func (b *Blocklist) Exists(ip net.IP) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.list[ip.String()]; ok {
		b.log.Debug("Match", "ip", ip)
		return true
	}
	return false
}

// Len returns the number of entries in the list.
func (b *Blocklist) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.list)
}

// parseBlocklist handles parsing of a hosts file.
func parseBlocklist(blocklistPath string) (map[string]struct{}, error) {

	blocklistFile, err := os.Open(blocklistPath)
	if err != nil {
		return nil, err
	}
	defer blocklistFile.Close()

	blocklist := make(map[string]struct{})
	pattern := regexp.MustCompile(`^[^#].+\s+([A-Fa-f0-9\.:]+)$`)
	scanner := bufio.NewScanner(blocklistFile)

	for scanner.Scan() {
		text := scanner.Text()
		match := pattern.FindStringSubmatch(text)
		if len(match) > 1 {
			// Store the canonical form so 2001:DB8::1 and 2001:db8::1 match.
			if ip := net.ParseIP(match[1]); ip != nil {
				blocklist[ip.String()] = struct{}{}
			}
		}
	}

	return blocklist, scanner.Err()
}
