// Command dotnetrun runs the .NET SDK with composed MSBuild properties and
// reports structured results, from the shell or as an MCP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// errFailed makes the process exit with status 1 without printing anything
// further: the tool's own diagnostics were already reported.
var errFailed = errors.New("dotnet reported errors")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "dotnetrun: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
