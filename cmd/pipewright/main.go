// SPDX-License-Identifier: AGPL-3.0-or-later

// Command pipewright runs a project's install, configure, build and test
// steps, halting at the first failure.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bartekus/pipewright/cmd/pipewright/commands"
	"github.com/bartekus/pipewright/cmd/internal/clierr"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(clierr.ExitCodeOf(err))
	}
}
