// Package report renders an analyzer.Report as human-readable text. It is
// a pure sink with no logic of its own: walk the data, write lines, nothing
// else.
package report

import (
	"fmt"
	"io"

	"github.com/writefreely/gopherwalk"
	"github.com/writefreely/gopherwalk/internal/analyzer"
)

// Render writes r as the end-of-run summary block: counts,
// min/max sizes, smallest-text content, external connectivity table, and
// the issues table.
func Render(w io.Writer, r *analyzer.Report) error {
	fmt.Fprintln(w, "=== Crawl summary ===")
	fmt.Fprintf(w, "directories: %d\n", r.Counts[gopherwalk.KindDirectory])
	fmt.Fprintf(w, "text files:  %d\n", r.Counts[gopherwalk.KindText])
	fmt.Fprintf(w, "binaries:    %d\n", r.Counts[gopherwalk.KindBinary])
	fmt.Fprintf(w, "invalid:     %d\n", r.Counts[gopherwalk.KindInvalidRef])
	fmt.Fprintf(w, "external:    %d\n", r.Counts[gopherwalk.KindExternalRef])

	if r.HasText {
		fmt.Fprintf(w, "\ntext size: min=%d max=%d\n", r.MinTextSize, r.MaxTextSize)
		fmt.Fprintf(w, "smallest text file: %s\n", r.SmallestText)
		fmt.Fprintln(w, "--- content ---")
		fmt.Fprintln(w, r.SmallestBody)
		fmt.Fprintln(w, "---------------")
	} else {
		fmt.Fprintln(w, "\nno text files found")
	}

	if r.HasBinary {
		fmt.Fprintf(w, "\nbinary size: min=%d max=%d\n", r.MinBinarySize, r.MaxBinarySize)
	}

	if len(r.External) > 0 {
		fmt.Fprintln(w, "\nexternal servers:")
		for _, e := range r.External {
			status := "down"
			switch {
			case e.Self:
				status = "self (skipped)"
			case e.Up:
				status = "up"
			}
			fmt.Fprintf(w, "  %s:%s %s\n", e.Host, e.Port, status)
		}
	}

	if len(r.Issues) > 0 {
		fmt.Fprintln(w, "\nissues:")
		for _, item := range r.Issues {
			fmt.Fprintf(w, "  %s: %s\n", item.Kind, item.Record)
		}
	} else {
		fmt.Fprintln(w, "\nno issues")
	}

	return nil
}
