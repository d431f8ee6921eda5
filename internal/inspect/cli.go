package inspect

import "io"

// ShowHelp prints usage information for the inspector.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Paddock Payload Inspector
=========================

Recovers, normalizes and orders a generated race-card payload offline.

Usage:
  go run cmd/inspect/main.go -file card.txt [options]

Options:
  -file string
        Payload file, "-" for stdin
  -analysis string
        Analysis text to decode alongside the payload
  -now string
        Reference time (RFC3339) for countdowns (default: current time)
  -tz string
        Zone for start times without an offset (default "Local")
  -json
        Emit the report as JSON
  -max-attempts int
        Truncation repair bound (default 50)
  -url string
        Also upload the payload to a running server
  -timeout duration
        HTTP request timeout (default 10s)
  -verbose
        Enable debug logging
  -help
        Show this help message

Examples:
  # Inspect a card relative to a fixed time
  go run cmd/inspect/main.go -file card.txt -now 2026-10-14T10:00:00+09:00

  # Read from stdin and print JSON
  cat card.txt | go run cmd/inspect/main.go -file - -json

  # Inspect and upload to a local server
  go run cmd/inspect/main.go -file card.txt -url http://localhost:9080
`)
}
