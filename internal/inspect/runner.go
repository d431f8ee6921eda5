package inspect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/okian/paddock/pkg/logger"
)

// ErrNoInput is returned when no payload file is configured.
var ErrNoInput = errors.New("no input file given")

// Run inspects the configured payload and writes the report to w. stdin is
// read when a file is "-".
func Run(ctx context.Context, cfg *Config, stdin io.Reader, w io.Writer) error {
	raw, err := readSource(cfg.File, stdin)
	if err != nil {
		return err
	}

	rep, err := Build(cfg, raw)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", cfg.File, err)
	}
	log := cfg.log()
	log.Debug(ctx, "payload inspected",
		logger.String("file", cfg.File),
		logger.String("strategy", rep.Strategy),
		logger.Int("events", len(rep.Events)),
		logger.Int("warnings", len(rep.Warnings)))

	if cfg.AnalysisFile != "" {
		text, err := readSource(cfg.AnalysisFile, stdin)
		if err != nil {
			return err
		}
		if rep.Analysis, err = DecodeAnalysis(cfg, text); err != nil {
			return fmt.Errorf("analysis %s: %w", cfg.AnalysisFile, err)
		}
	}

	if cfg.BaseURL != "" {
		id, err := newHTTPClient(cfg.Timeout).Upload(ctx, cfg.BaseURL, cfg.File, raw)
		if err != nil {
			return err
		}
		log.Info(ctx, "payload uploaded",
			logger.String("url", cfg.BaseURL),
			logger.String("eventSetId", id))
		rep.Uploaded = id
	}

	return Render(w, rep, cfg.JSON)
}

func readSource(path string, stdin io.Reader) (string, error) {
	switch path {
	case "":
		return "", ErrNoInput
	case "-":
		if stdin == nil {
			stdin = os.Stdin
		}
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}
