package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/use-agent/reviewharvest/cmd/reviewharvest/commands"
)

func main() {
	// A first signal ends the run; collected reviews are still exported.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	commands.ExecuteContext(ctx)
}
