package crawler_test

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"

	"github.com/writefreely/gopherwalk"
	"github.com/writefreely/gopherwalk/internal/crawler"
)

// routedServer dispatches each request selector to a canned response body,
// the way a handler-registration fixture dispatches to registered
// handlers, scaled down to a raw listener. A selector listed in stalls is
// read but never answered, to exercise the ReadTimeout path.
type routedServer struct {
	ln     net.Listener
	routes map[string]string
	stalls map[string]time.Duration
}

func newRoutedServer(t *testing.T, routes map[string]string) gopherwalk.Endpoint {
	t.Helper()
	return newRoutedServerWithStalls(t, routes, nil)
}

func newRoutedServerWithStalls(t *testing.T, routes map[string]string, stalls map[string]time.Duration) gopherwalk.Endpoint {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	rs := &routedServer{ln: ln, routes: routes, stalls: stalls}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go rs.handle(conn)
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	ep, err := gopherwalk.ResolveEndpoint(host, port)
	require.NoError(t, err)
	return ep
}

func (rs *routedServer) handle(conn net.Conn) {
	defer conn.Close()
	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil && n == 0 {
		return
	}
	selector := trimCRLFBytes(buf[:n])
	if wait, ok := rs.stalls[selector]; ok {
		time.Sleep(wait)
		return
	}
	body, ok := rs.routes[selector]
	if !ok {
		return
	}
	conn.Write([]byte(body))
}

func trimCRLFBytes(b []byte) string {
	s := string(b)
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func TestCrawlSingleLevelRoot(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	ep := newRoutedServer(t, map[string]string{
		"": "0hello\t/hello\tlocalhost\t70\r\n.\r\n",
	})

	c := crawler.New(ep, nil)
	require.NoError(c.Run(context.Background()))

	items := c.Registry.Items()
	require.Len(items, 1)
	assert.Equal(gopherwalk.KindText, items[0].Kind)
	assert.Equal("/hello", items[0].Record)
}

func TestCrawlSelfReferencingRootDoesNotLoop(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	ep := newRoutedServer(t, map[string]string{
		"":  "1root\t/\tlocalhost\t70\r\n.\r\n",
		"/": "1root\t/\tlocalhost\t70\r\n.\r\n",
	})

	done := make(chan error, 1)
	c := crawler.New(ep, nil)
	go func() { done <- c.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(err)
	case <-time.After(2 * time.Second):
		t.Fatal("crawl did not terminate on a self-referencing menu")
	}

	items := c.Registry.Items()
	require.Len(items, 1, "the self-reference is indexed exactly once")
	assert.Equal("/", items[0].Record)
}

func TestCrawlInvalidReference(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	ep := newRoutedServer(t, map[string]string{
		"":     "1bad\t/bad\tlocalhost\t70\r\n.\r\n",
		"/bad": "3invalid request\t\terror.host\t0\r\n.\r\n",
	})

	c := crawler.New(ep, nil)
	require.NoError(c.Run(context.Background()))

	var invalid []gopherwalk.Item
	for _, item := range c.Registry.Items() {
		if item.Kind == gopherwalk.KindInvalidRef {
			invalid = append(invalid, item)
		}
	}
	require.Len(invalid, 1)
	assert.Equal("/bad", invalid[0].Record)
}

func TestCrawlExternalReferenceIsNotDescended(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	ep := newRoutedServer(t, map[string]string{
		"": "1ext\t\texample.com\t70\r\n.\r\n",
	})

	c := crawler.New(ep, nil)
	require.NoError(c.Run(context.Background()))

	items := c.Registry.Items()
	require.Len(items, 1)
	assert.Equal(gopherwalk.KindExternalRef, items[0].Kind)
	assert.Equal("example.com\t70", items[0].Record)
}

func TestCrawlStalledDirectoryResponseRecordsTimeout(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	orig := gopherwalk.InitialRecvTimeout
	gopherwalk.InitialRecvTimeout = 20 * time.Millisecond
	t.Cleanup(func() { gopherwalk.InitialRecvTimeout = orig })

	ep := newRoutedServerWithStalls(t,
		map[string]string{"": "1slow\t/slow\tlocalhost\t70\r\n.\r\n"},
		map[string]time.Duration{"/slow": 200 * time.Millisecond},
	)

	c := crawler.New(ep, nil)
	require.NoError(c.Run(context.Background()), "a stalled directory must not fail the whole crawl")

	var timeouts []gopherwalk.Item
	for _, item := range c.Registry.Items() {
		if item.Kind == gopherwalk.KindTimeout {
			timeouts = append(timeouts, item)
		}
	}
	require.Len(timeouts, 1)
	assert.Equal("/slow", timeouts[0].Record)
}

func TestCrawlEmptyRootHasNoItems(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	ep := newRoutedServer(t, map[string]string{
		"": ".\r\n",
	})

	c := crawler.New(ep, nil)
	require.NoError(c.Run(context.Background()))
	assert.Empty(c.Registry.Items())
}

