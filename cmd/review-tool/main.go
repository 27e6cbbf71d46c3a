// review-tool runs operator tasks against the review tables using the same
// settings, table lock and storage as the server.
//
// Usage (from the repository root):
//
//	go run ./cmd/review-tool stats
//	go run ./cmd/review-tool auto-finalize
//	go run ./cmd/review-tool reclaim
//	go run ./cmd/review-tool hash-password
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
