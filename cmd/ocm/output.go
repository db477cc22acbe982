package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/time/rate"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// progressPrinter rate-limits progress lines to stderr so scans over
// large shard sets don't flood the terminal. Lines arriving faster than
// the limit are dropped, not queued.
type progressPrinter struct {
	limiter *rate.Limiter
}

func newProgressPrinter() *progressPrinter {
	return &progressPrinter{limiter: rate.NewLimiter(rate.Every(2*time.Second), 1)}
}

// Printf prints one progress line if human output is on and the rate
// limit allows it.
func (p *progressPrinter) Printf(format string, args ...interface{}) {
	if !humanOutput || !p.limiter.Allow() {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
