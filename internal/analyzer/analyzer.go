// Package analyzer computes the end-of-run report from a completed
// Registry: per-kind counts, min/max sizes, the smallest text file's
// content, and external reachability.
package analyzer

import (
	"bytes"
	"strings"

	"golang.org/x/net/context"

	"github.com/writefreely/gopherwalk"
	"github.com/writefreely/gopherwalk/internal/prober"
	"github.com/writefreely/gopherwalk/internal/registry"
)

// ExternalStatus is one external reference's reachability outcome, ready
// for the report sink.
type ExternalStatus struct {
	Host string
	Port string
	Up   bool
	Self bool
}

// Report is everything the analyzer computed from one completed crawl.
type Report struct {
	Counts map[gopherwalk.ItemKind]int

	HasText       bool
	MinTextSize   int
	MaxTextSize   int
	SmallestText  string // selector of the smallest text file
	SmallestBody  string // its content, truncated at the Gopher terminator

	HasBinary     bool
	MinBinarySize int
	MaxBinarySize int

	External []ExternalStatus
	Issues   []gopherwalk.Item
}

// Analyze walks reg twice. The first walk meters every Text/Binary item
// against ep and collects every ExternalRef; the smallest text file's
// content is then fetched and the ExternalRefs probed. The second walk
// builds the counts and issues, so it sees the Timeout/TooLarge items that
// metering failures pushed into reg during the first walk.
func Analyze(ctx context.Context, ep gopherwalk.Endpoint, reg *registry.Registry) (*Report, error) {
	items := reg.Items()

	r := &Report{Counts: make(map[gopherwalk.ItemKind]int)}
	smallestSize := -1
	var externalRefs []string

	for _, item := range items {
		switch item.Kind {
		case gopherwalk.KindText:
			meterOne(reg, ep, item.Record, func(n int) {
				if !r.HasText || n < r.MinTextSize {
					r.MinTextSize = n
				}
				if !r.HasText || n > r.MaxTextSize {
					r.MaxTextSize = n
				}
				r.HasText = true
				if smallestSize == -1 || n < smallestSize {
					smallestSize = n
					r.SmallestText = item.Record
				}
			})
		case gopherwalk.KindBinary:
			meterOne(reg, ep, item.Record, func(n int) {
				if !r.HasBinary || n < r.MinBinarySize {
					r.MinBinarySize = n
				}
				if !r.HasBinary || n > r.MaxBinarySize {
					r.MaxBinarySize = n
				}
				r.HasBinary = true
			})
		case gopherwalk.KindExternalRef:
			externalRefs = append(externalRefs, item.Record)
		}
	}

	if r.SmallestText != "" {
		body, err := fetchContent(ep, r.SmallestText)
		if err == nil {
			r.SmallestBody = body
		}
	}

	if len(externalRefs) > 0 {
		results := prober.New(ep).Probe(ctx, externalRefs)
		for _, res := range results {
			r.External = append(r.External, ExternalStatus{
				Host: res.Host, Port: res.Port, Up: res.Up, Self: res.Self,
			})
		}
	}

	for _, item := range reg.Items() {
		r.Counts[item.Kind]++
		switch item.Kind {
		case gopherwalk.KindInvalidRef, gopherwalk.KindTimeout, gopherwalk.KindTooLarge:
			r.Issues = append(r.Issues, item)
		}
	}

	return r, nil
}

// meterOne meters selector and, on success, hands the size to onSize; on
// TooLarge/TimedOut it pushes the corresponding registry item instead,
// leaving the class's min/max untouched: an oversize or timed-out file is
// never counted in min/max.
func meterOne(reg *registry.Registry, ep gopherwalk.Endpoint, selector string, onSize func(int)) {
	result, err := gopherwalk.MeterFile(ep, selector)
	if err != nil {
		reg.Insert(gopherwalk.Item{Kind: gopherwalk.KindTimeout, Record: selector})
		return
	}
	switch result.Outcome {
	case gopherwalk.MeterSize:
		onSize(result.Size)
	case gopherwalk.MeterTooLarge:
		reg.Insert(gopherwalk.Item{Kind: gopherwalk.KindTooLarge, Record: selector})
	case gopherwalk.MeterTimedOut:
		reg.Insert(gopherwalk.Item{Kind: gopherwalk.KindTimeout, Record: selector})
	}
}

// fetchContent opens a fresh session to selector and streams its body,
// truncated at the Gopher terminator sequence, the way the source's
// analyze() step prints the smallest text file after the directory walk.
func fetchContent(ep gopherwalk.Endpoint, selector string) (string, error) {
	sess, err := gopherwalk.Open(ep)
	if err != nil {
		return "", err
	}
	defer sess.Close()

	if err := sess.Send(selector); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := gopherwalk.StreamContent(&buf, sess); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\r\n"), nil
}
