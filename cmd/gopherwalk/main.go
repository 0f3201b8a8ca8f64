// Command gopherwalk crawls a single Gopher (RFC 1436) server, classifying
// every item it can reach, measuring file sizes, probing the reachability
// of any external servers it references, and printing a summary report.
//
// Usage:
//
//	gopherwalk [-v] <hostname> <port>
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"golang.org/x/net/context"

	"github.com/writefreely/gopherwalk"
	"github.com/writefreely/gopherwalk/internal/analyzer"
	"github.com/writefreely/gopherwalk/internal/crawler"
	"github.com/writefreely/gopherwalk/internal/report"
)

var verbose = flag.Bool("v", false, "print per-request progress lines in addition to the final report")

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-v] <hostname> <port>\n", os.Args[0])
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 2 {
		usage()
		os.Exit(0)
	}

	host := flag.Arg(0)
	port, err := strconv.Atoi(flag.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid port %q: %v\n", flag.Arg(1), err)
		os.Exit(0)
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)

	ep, err := gopherwalk.ResolveEndpoint(host, port)
	if err != nil {
		logger.Printf("%v", err)
		os.Exit(1)
	}

	c := crawler.New(ep, logger)
	c.Verbose = *verbose

	ctx := context.Background()
	if err := c.Run(ctx); err != nil {
		logger.Printf("%v", err)
		os.Exit(1)
	}

	rep, err := analyzer.Analyze(ctx, ep, c.Registry)
	if err != nil {
		logger.Printf("%v", err)
		os.Exit(1)
	}

	if err := report.Render(os.Stdout, rep); err != nil {
		logger.Printf("%v", err)
		os.Exit(1)
	}
}
