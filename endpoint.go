package gopherwalk

import (
	"fmt"
	"net"
)

// CRLF is the line terminator Gopher uses on the wire, per RFC 1436.
const CRLF = "\r\n"

// Terminator is the directory-listing terminator line's sole content.
const Terminator = "."

// Endpoint is an immutable (host, port, resolved address) triple. The
// primary endpoint is built once from the command-line arguments; external
// references construct throwaway Endpoints purely to probe reachability.
type Endpoint struct {
	Host     string
	Port     int
	Resolved net.IP // the resolved IPv4 address; nil if resolution failed
}

// ResolveEndpoint looks up host's address and returns the Endpoint. The
// spec assumes a resolver mapping a hostname to exactly one IPv4 address.
func ResolveEndpoint(host string, port int) (Endpoint, error) {
	addrs, err := net.LookupIP(host)
	if err != nil {
		return Endpoint{}, fmt.Errorf("gopherwalk: dns failure for %s: %w", host, err)
	}
	for _, a := range addrs {
		if v4 := a.To4(); v4 != nil {
			return Endpoint{Host: host, Port: port, Resolved: v4}, nil
		}
	}
	return Endpoint{}, fmt.Errorf("gopherwalk: no A record for %s", host)
}

// Equal reports whether two endpoints name the same host/port, the check
// the reachability prober uses to short-circuit a self-reference.
func (e Endpoint) Equal(other Endpoint) bool {
	return e.Host == other.Host && e.Port == other.Port
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// addr returns the dial target. It prefers the resolved address (so a
// redundant DNS lookup per request is avoided) and falls back to the
// hostname if resolution was never performed.
func (e Endpoint) addr() string {
	host := e.Host
	if e.Resolved != nil {
		host = e.Resolved.String()
	}
	return net.JoinHostPort(host, fmt.Sprint(e.Port))
}
