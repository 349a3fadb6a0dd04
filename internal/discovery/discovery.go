package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

// Host represents a discovered beamformer controller on the local network
type Host struct {
	Instance  string // Advertised name: "bbox on lab-bench-2"
	Hostname  string // DNS hostname: "lab-bench-2.local."
	Addresses []net.IP
	Port      int
	TXT       []string
}

// DiscoverBeamformers performs a blocking mDNS browse for _tmy-bbox._tcp.local
// services. It returns cleaned and deduplicated host entries.
func DiscoverBeamformers(timeoutSeconds int) ([]Host, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("resolver error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	byHost := make(map[string]Host)

	// The resolver closes the channel once the context expires, so a plain
	// range loop drains everything the browse window produced.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if e == nil {
				continue
			}
			addrs := make([]net.IP, 0, len(e.AddrIPv4)+len(e.AddrIPv6))
			addrs = append(addrs, e.AddrIPv4...)
			addrs = append(addrs, e.AddrIPv6...)

			// Hostname plus port dedupes re-announcements of one unit.
			key := fmt.Sprintf("%s|%d", e.HostName, e.Port)
			byHost[key] = Host{
				Instance:  cleanInstance(e.Instance),
				Hostname:  e.HostName,
				Addresses: addrs,
				Port:      e.Port,
				TXT:       append([]string{}, e.Text...),
			}
		}
	}()

	if err := resolver.Browse(ctx, "_tmy-bbox._tcp", "local.", entries); err != nil {
		return nil, fmt.Errorf("browse error: %w", err)
	}
	<-done

	out := make([]Host, 0, len(byHost))
	for _, h := range byHost {
		out = append(out, h)
	}
	return out, nil
}

// Addr returns the first usable address as host:port, preferring IPv4.
// Falls back to the advertised hostname when no address was resolved.
func (h Host) Addr() string {
	for _, ip := range h.Addresses {
		if ip.To4() != nil {
			return fmt.Sprintf("%s:%d", ip, h.Port)
		}
	}
	if len(h.Addresses) > 0 {
		return fmt.Sprintf("[%s]:%d", h.Addresses[0], h.Port)
	}
	return fmt.Sprintf("%s:%d", strings.TrimSuffix(h.Hostname, "."), h.Port)
}

// cleanInstance removes Zeroconf escape sequences: "\ " => " "
func cleanInstance(s string) string {
	return strings.ReplaceAll(s, `\ `, " ")
}
