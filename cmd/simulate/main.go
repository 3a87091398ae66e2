package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/nightjarlabs/trailmark/internal/simulate"
	"github.com/nightjarlabs/trailmark/pkg/logger"
)

const (
	defaultGap         = 150 * time.Millisecond
	defaultTimeout     = 5 * time.Second
	defaultSettleDelay = 500 * time.Millisecond
	defaultRunTimeout  = 5 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9090", "Base URL of the service")
		scenarios = flag.String("scenarios", "", "Comma-separated scenario names (default: all)")
		gap       = flag.Duration("gap", defaultGap, "Delay between consecutive events")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle    = flag.Duration("settle", defaultSettleDelay, "Wait after each scenario before verifying")
		verbose   = flag.Bool("verbose", false, "Enable per-event logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	var names []string
	if *scenarios != "" {
		for _, n := range strings.Split(*scenarios, ",") {
			names = append(names, strings.TrimSpace(n))
		}
	}

	stats, err := simulate.Run(ctx, &simulate.Config{
		BaseURL:     *baseURL,
		Scenarios:   names,
		Gap:         *gap,
		Timeout:     *timeout,
		SettleDelay: *settle,
		Verbose:     *verbose,
	})
	if err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	if stats.EventsFailed > 0 {
		os.Exit(1)
	}
}
