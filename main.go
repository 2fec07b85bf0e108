// ./main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/dashwatch-cli/cmd"
)

// main is the entry point for the dashwatch CLI application.
func main() {
	// Install signal handling at the top level so an interrupt reaches every
	// command through its context. The monitor loop relies on this to perform
	// its final metadata flush before the process exits.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.ExecuteContext(ctx)
}
