// Command mensur renders timed melodies as LilyPond notation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/mensur/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "mensur: %v\n", err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
