package gopherwalk_test

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/writefreely/gopherwalk"
)

// fixtureServer is a minimal one-shot-per-connection Gopher server: each
// accepted connection is handed to handle, which reads the request
// selector and writes whatever response it wants, then closes. It mirrors
// a pickUnusedPort + TestMain-style fixture, scaled down
// to a raw listener since this module is a client, not a server.
type fixtureServer struct {
	ln net.Listener
}

func newFixtureServer(t *testing.T, handle func(selector string, conn net.Conn)) *fixtureServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("fixture listen: %v", err)
	}

	fs := &fixtureServer{ln: ln}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				buf := make([]byte, 1024)
				n, err := conn.Read(buf)
				if err != nil && n == 0 {
					return
				}
				selector := trimCRLF(string(buf[:n]))
				handle(selector, conn)
			}()
		}
	}()

	t.Cleanup(func() { ln.Close() })
	return fs
}

func (fs *fixtureServer) endpoint(t *testing.T) gopherwalk.Endpoint {
	t.Helper()
	host, portStr, err := net.SplitHostPort(fs.ln.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("port %q: %v", portStr, err)
	}
	ep, err := gopherwalk.ResolveEndpoint(host, port)
	if err != nil {
		t.Fatalf("resolve endpoint: %v", err)
	}
	return ep
}

func trimCRLF(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

const fixtureStartupWait = 20 * time.Millisecond
