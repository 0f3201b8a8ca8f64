// Package crawler implements the root-first, registry-driven traversal of a
// Gopher server's directories. The crawl is sequential:
// a single goroutine opens one session per request, classifies every line
// of the response, and feeds results into the shared Registry.
package crawler

import (
	"io"
	"log"
	"strings"

	"golang.org/x/net/context"

	"github.com/writefreely/gopherwalk"
	"github.com/writefreely/gopherwalk/internal/registry"
)

// Crawler owns the per-run state: the primary Endpoint, the Registry every
// discovered Item lands in, and a Logger for progress lines. This replaces
// the source's module-level globals for socket fd, registry head/tail, and
// endpoint with explicit state threaded through every operation.
type Crawler struct {
	Endpoint gopherwalk.Endpoint
	Registry *registry.Registry
	Logger   *log.Logger
	Verbose  bool
}

// New builds a Crawler for ep, logging through logger (nil selects the
// standard library's default logger).
func New(ep gopherwalk.Endpoint, logger *log.Logger) *Crawler {
	return &Crawler{
		Endpoint: ep,
		Registry: registry.New(logger),
		Logger:   logger,
	}
}

func (c *Crawler) logf(format string, args ...interface{}) {
	if !c.Verbose {
		return
	}
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Run walks the server starting from the root selector. It returns an error
// only when ctx is already done before the walk starts, or when the root
// request itself cannot be opened (ConnectFailure or SendFailure); every
// other per-request failure, including a failed or timed-out read of the
// root's response, is recorded as a registry Item and the walk continues.
func (c *Crawler) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := c.fetchRoot(""); err != nil {
		return err
	}

	i := 0
	for i < c.Registry.Len() {
		item := c.Registry.At(i)
		i++

		if item.Kind != gopherwalk.KindDirectory {
			continue
		}
		if !c.Registry.MarkDescended(item.Record) {
			continue
		}
		c.descend(item.Record)
	}

	return nil
}

// fetchRoot fetches the implicit root selector. Unlike every other
// directory, the root is never itself inserted as a registry Item — only
// what it references is.
func (c *Crawler) fetchRoot(selector string) error {
	c.logf("Request sent: %s", rootLabel(selector))

	sess, parser, err := gopherwalk.OpenMenu(c.Endpoint, selector)
	if err != nil {
		return err
	}
	defer sess.Close()

	c.processEntries(selector, parser)
	return nil
}

// descend fetches one directory's menu. Connect/send/read failures here are
// demoted from the source's hard "exit" contract: they are recorded as a
// Timeout item keyed by the request selector and the crawl continues,
// rather than aborting the whole crawl on one bad selector.
func (c *Crawler) descend(selector string) {
	c.logf("Request sent: %s", selector)

	sess, parser, err := gopherwalk.OpenMenu(c.Endpoint, selector)
	if err != nil {
		c.Registry.Insert(gopherwalk.Item{Kind: gopherwalk.KindTimeout, Record: selector})
		return
	}
	defer sess.Close()

	c.processEntries(selector, parser)
}

// processEntries reads every entry of one response and applies the edge
// policy: type '3' collapses to an InvalidRef keyed by the
// *request* selector; an empty-selector directory line is an ExternalRef;
// anything whose selector isn't server-absolute is discarded; everything
// else is classified and inserted.
func (c *Crawler) processEntries(requestSelector string, parser *gopherwalk.Parser) {
	for {
		entry, err := parser.Next()
		if err != nil {
			if err != io.EOF {
				// The terminator line never arrived: the initial recv or an
				// inter-chunk read timed out or failed outright partway
				// through this response. Record it against the request
				// selector and move on to the next directory.
				c.Registry.Insert(gopherwalk.Item{Kind: gopherwalk.KindTimeout, Record: requestSelector})
			}
			return
		}

		switch {
		case entry.Type == '3':
			// Registry.Insert's (Kind, Record) dedup collapses repeats of
			// this request selector to one entry, whether they arrive in
			// this response or a response from a different request.
			c.Registry.Insert(gopherwalk.Item{
				Kind:   gopherwalk.KindInvalidRef,
				Record: requestSelector,
			})
		case entry.Type == '1' && entry.Selector == "":
			c.Registry.Insert(gopherwalk.Item{
				Kind:   gopherwalk.KindExternalRef,
				Record: entry.Host + "\t" + entry.Port,
			})
		default:
			kind := gopherwalk.Classify(entry.Type)
			if !kind.Valid() {
				continue // 'i', '.', or any other ignored type
			}
			if !strings.HasPrefix(entry.Selector, "/") {
				continue // malformed or relative selector, discarded
			}
			c.Registry.Insert(gopherwalk.Item{Kind: kind, Record: entry.Selector})
		}
	}
}

func rootLabel(selector string) string {
	if selector == "" {
		return "/ (root)"
	}
	return selector
}
