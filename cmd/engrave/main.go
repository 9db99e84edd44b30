// Command engrave formats and renders music notation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/engrave/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.New(os.Stderr, cli.LogInfo).RootCommand().ExecuteContext(ctx)
	stop()

	code := cli.ExitCode(err)
	if code != 0 && code != 130 {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(code)
}
