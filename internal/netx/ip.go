package netx

import (
	"errors"
	"net"
	"net/netip"
)

// Probe targets are documentation addresses (RFC 5737, RFC 3849). Dialing UDP
// sends nothing; it only asks the kernel which source address it would route
// from.
const (
	probeTargetV4 = "192.0.2.1:80"
	probeTargetV6 = "[2001:db8::1]:80"
)

// ErrNoAddress is returned when no outbound address could be determined.
var ErrNoAddress = errors.New("no local address found")

// LocalIPs returns the addresses this host would use for outbound traffic,
// IPv4 first. A family without a route is skipped silently.
func LocalIPs() ([]netip.Addr, error) {
	var addrs []netip.Addr
	var lastErr error
	for _, target := range []string{probeTargetV4, probeTargetV6} {
		a, err := outboundAddr(target)
		if err != nil {
			lastErr = err
			continue
		}
		addrs = append(addrs, a)
	}
	if len(addrs) == 0 {
		if lastErr != nil {
			return nil, errors.Join(ErrNoAddress, lastErr)
		}
		return nil, ErrNoAddress
	}
	return addrs, nil
}

func outboundAddr(target string) (netip.Addr, error) {
	conn, err := net.Dial("udp", target)
	if err != nil {
		return netip.Addr{}, err
	}
	defer conn.Close()

	ap, err := netip.ParseAddrPort(conn.LocalAddr().String())
	if err != nil {
		return netip.Addr{}, err
	}
	a := ap.Addr().Unmap()
	if a.IsUnspecified() {
		return netip.Addr{}, ErrNoAddress
	}
	return a, nil
}
