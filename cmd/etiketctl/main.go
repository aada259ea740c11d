package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"etiket/internal/ctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// cobra has already printed the error.
	if err := ctl.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
