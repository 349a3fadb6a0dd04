package discovery

import (
	"net"
	"testing"
)

func TestCleanInstance(t *testing.T) {
	if got := cleanInstance(`bbox\ on\ lab-bench-2`); got != "bbox on lab-bench-2" {
		t.Fatalf("unexpected cleaned instance %q", got)
	}
}

func TestHostAddr(t *testing.T) {
	h := Host{
		Hostname:  "lab-bench-2.local.",
		Addresses: []net.IP{net.ParseIP("fe80::1"), net.ParseIP("192.168.1.40")},
		Port:      5555,
	}
	if got := h.Addr(); got != "192.168.1.40:5555" {
		t.Fatalf("expected IPv4 preference, got %q", got)
	}

	h.Addresses = []net.IP{net.ParseIP("fe80::1")}
	if got := h.Addr(); got != "[fe80::1]:5555" {
		t.Fatalf("expected bracketed IPv6, got %q", got)
	}

	h.Addresses = nil
	if got := h.Addr(); got != "lab-bench-2.local:5555" {
		t.Fatalf("expected hostname fallback, got %q", got)
	}
}
