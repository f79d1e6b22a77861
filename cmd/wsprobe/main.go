// Command wsprobe runs a YAML suite of WebSocket test scenarios against a
// server and reports a pass/fail summary. The exit code is non-zero when
// any scenario fails.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/vitalvas/wsprobe/probe"
	"github.com/vitalvas/wsprobe/wsclient"
)

func main() {
	var (
		suitePath = flag.String("suite", "", "path to the YAML suite file (required)")
		baseURL   = flag.String("base", "", "override the suite's base_url (host:port)")
		timeout   = flag.Duration("timeout", 10*time.Second, "dial timeout per scenario")
		verbose   = flag.Bool("v", false, "log scenario progress")
	)
	flag.Parse()

	if *suitePath == "" {
		fmt.Fprintln(os.Stderr, "wsprobe: -suite is required")
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	suite, err := probe.LoadSuiteFile(*suitePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wsprobe: %v\n", err)
		os.Exit(2)
	}
	if *baseURL != "" {
		suite.BaseURL = *baseURL
	}

	runner := &probe.Runner{
		Dialer: &wsclient.Dialer{Timeout: *timeout, Logger: logger},
		Logger: logger,
	}

	summary, err := runner.RunSuite(suite)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wsprobe: %v\n", err)
		os.Exit(2)
	}

	for _, r := range summary.Results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Printf("%s  %s (%s)\n", status, r.Scenario, r.Elapsed.Round(time.Millisecond))
		if r.Failure != "" {
			fmt.Printf("      %s\n", r.Failure)
		}
	}
	fmt.Println(summary)

	if !summary.OK() {
		os.Exit(1)
	}
}
