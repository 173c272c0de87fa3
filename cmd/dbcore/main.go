// Command dbcore checks and exercises the data-access core against a live
// database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/zakwanzambri/wintradesgo-sub004/providers/postgres"
	_ "github.com/zakwanzambri/wintradesgo-sub004/providers/pq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
