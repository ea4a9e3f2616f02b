package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cq4kit/cq4diag/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		cmd.Execute()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		os.Exit(130)
	}
}
