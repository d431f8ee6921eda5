package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/paddock/internal/config"
	"github.com/okian/paddock/internal/inspect"
	"github.com/okian/paddock/pkg/logger"
)

const (
	defaultMaxAttempts = 50
	defaultTimeout     = 10 * time.Second
)

func main() {
	var (
		file        = flag.String("file", "", `Payload file, "-" for stdin`)
		analysis    = flag.String("analysis", "", "Analysis text to decode alongside the payload")
		now         = flag.String("now", "", "Reference time (RFC3339) for countdowns")
		tz          = flag.String("tz", "Local", "Zone for start times without an offset")
		asJSON      = flag.Bool("json", false, "Emit the report as JSON")
		maxAttempts = flag.Int("max-attempts", defaultMaxAttempts, "Truncation repair bound")
		baseURL     = flag.String("url", "", "Also upload the payload to a running server")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		inspect.ShowHelp(os.Stdout)
		return
	}

	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.New()
	cfg.Timezone = *tz
	loc, err := cfg.Location()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	ref := time.Now()
	if *now != "" {
		if ref, err = time.Parse(time.RFC3339, *now); err != nil {
			os.Stderr.WriteString("invalid -now: " + err.Error() + "\n")
			os.Exit(2)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = inspect.Run(ctx, &inspect.Config{
		File:         *file,
		AnalysisFile: *analysis,
		Now:          ref,
		Location:     loc,
		JSON:         *asJSON,
		MaxAttempts:  *maxAttempts,
		BaseURL:      *baseURL,
		Timeout:      *timeout,
	}, os.Stdin, os.Stdout)
	if err != nil {
		os.Stderr.WriteString("Inspect failed: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
