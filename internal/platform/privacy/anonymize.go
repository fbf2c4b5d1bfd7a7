// Package privacy reduces client network addresses before they reach logs.
package privacy

import (
	"net"
	"net/netip"
)

// AnonymizeAddr masks a remote address to its network prefix: /24 for IPv4
// and /48 for IPv6. It accepts a bare IP or a host:port pair as found in
// http.Request.RemoteAddr. Empty input yields "unknown", unparseable input
// yields "invalid".
func AnonymizeAddr(remoteAddr string) string {
	if remoteAddr == "" {
		return "unknown"
	}
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap().WithZone("")

	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}
