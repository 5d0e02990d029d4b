package datetimed

import (
	"net"
	"testing"
)

func TestBlocklist_NewBlocklist(t *testing.T) {
	logger := newLogger()
	_, err := NewBlocklist("nonexistantfile.txt", logger)
	if err == nil {
		t.Error("non-existence blocklist, should error")
	}
}

func TestBlocklist_Exists(t *testing.T) {
	logger := newLogger()
	blocklist, err := NewBlocklist("fixtures/blocklist_test.txt", logger)
	if err != nil {
		t.Fatal(err)
	}

	if blocklist.Len() != 2 {
		t.Errorf("wanted 2 entries got %d", blocklist.Len())
	}

	tests := []struct {
		ip   string
		want bool
	}{
		{ip: "192.0.2.10", want: true},
		{ip: "2001:DB8:0::1", want: true},
		{ip: "192.0.2.99", want: false},
		{ip: "127.0.0.1", want: false},
	}

	for _, test := range tests {
		t.Run(test.ip, func(t *testing.T) {
			if got := blocklist.Exists(net.ParseIP(test.ip)); got != test.want {
				t.Errorf("wanted %v got %v", test.want, got)
			}
		})
	}
}
