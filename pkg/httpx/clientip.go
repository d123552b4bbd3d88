package httpx

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"
)

// TrustedProxies lists the peers allowed to report the client address through
// X-Forwarded-For or X-Real-IP. Requests from any other peer are keyed on the
// connection address, whatever headers they carry.
type TrustedProxies []netip.Prefix

// ParseTrustedProxies reads a comma separated list of CIDR ranges or single
// addresses, e.g. "10.0.0.0/8, 127.0.0.1". An empty list trusts nobody.
func ParseTrustedProxies(list string) (TrustedProxies, error) {
	var out TrustedProxies
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		if strings.Contains(field, "/") {
			p, err := netip.ParsePrefix(field)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", field, err)
			}
			out = append(out, p.Masked())
			continue
		}

		addr, err := netip.ParseAddr(field)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", field, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// Contains reports whether ip falls in one of the trusted ranges.
func (tp TrustedProxies) Contains(ip string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range tp {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP is a KeyExtractor that honours forwarding headers only from a
// trusted peer. X-Forwarded-For is read right to left and the first hop that
// is not itself a trusted proxy wins, so entries a client prepends are never
// reached.
func (tp TrustedProxies) ClientIP(r *http.Request) string {
	peer := remoteIP(r)
	if !tp.Contains(peer) {
		return peer
	}

	if xff := strings.Join(r.Header.Values("X-Forwarded-For"), ","); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop != "" && !tp.Contains(hop) {
				return hop
			}
		}
		// Every hop is a proxy of ours.
		if first := strings.TrimSpace(hops[0]); first != "" {
			return first
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}
