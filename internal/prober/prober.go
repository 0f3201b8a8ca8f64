// Package prober implements the reachability probe for external Gopher
// references. Every other stage of a crawl is strictly sequential; this is
// the one place bounded fan-out is worth it, because probing reads nothing
// but the connect outcome and is cheap to parallelize safely.
package prober

import (
	"net"
	"strconv"
	"time"

	"golang.org/x/net/context"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/writefreely/gopherwalk"
)

// Width is the recommended worker pool size; Cap is the hard ceiling.
const (
	Width = 8
	Cap   = 32
)

// Result is one external reference's reachability outcome.
type Result struct {
	Host string
	Port string
	Up   bool
	Self bool // true when the reference names the primary endpoint
}

// Prober probes a batch of ExternalRef records concurrently, bounded to at
// most Cap simultaneous dials and throttled by a token-bucket rate limiter
// so a site with many external references never bursts connects at the
// probed hosts in a single run.
type Prober struct {
	Primary gopherwalk.Endpoint
	Width   int
	Limiter *rate.Limiter
}

// New builds a Prober for endpoint, with the recommended pool width and a
// limiter allowing one dial every 50ms (20/s) — comfortably below what a
// modest Gopher server or its neighbors are expected to tolerate.
func New(primary gopherwalk.Endpoint) *Prober {
	return &Prober{
		Primary: primary,
		Width:   Width,
		Limiter: rate.NewLimiter(rate.Every(50*time.Millisecond), 1),
	}
}

// Probe attempts a TCP connect to each "host\tport" record, skipping any
// record equal to the primary endpoint (reported as Self, never dialed).
// Results preserve refs' order regardless of completion order: each
// ExternalRef is probed exactly once, or zero times when it names the
// primary endpoint.
func (p *Prober) Probe(ctx context.Context, refs []string) []Result {
	results := make([]Result, len(refs))

	width := p.Width
	if width <= 0 {
		width = Width
	}
	if width > Cap {
		width = Cap
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(width)

	for i, ref := range refs {
		i, ref := i, ref
		host, port := splitRef(ref)

		if p.Primary.Equal(gopherwalk.Endpoint{Host: host, Port: port}) {
			results[i] = Result{Host: host, Port: portString(port), Self: true}
			continue
		}

		g.Go(func() error {
			if p.Limiter != nil {
				if err := p.Limiter.Wait(gctx); err != nil {
					results[i] = Result{Host: host, Port: portString(port)}
					return nil
				}
			}
			results[i] = Result{Host: host, Port: portString(port), Up: dial(host, port)}
			return nil
		})
	}

	_ = g.Wait() // worker funcs never return an error; this only awaits them

	return results
}

func dial(host string, port int) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), gopherwalk.ProbeTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func splitRef(ref string) (host string, port int) {
	for i := 0; i < len(ref); i++ {
		if ref[i] == '\t' {
			host = ref[:i]
			port, _ = strconv.Atoi(ref[i+1:])
			return
		}
	}
	return ref, 0
}

func portString(port int) string {
	return strconv.Itoa(port)
}
