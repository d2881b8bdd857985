// SPDX-License-Identifier: AGPL-3.0-or-later

// Command checks runs the hello project's test suite and exits non-zero
// when any case fails.
package main

import (
	"fmt"
	"os"

	"github.com/bartekus/pipewright/cmd/checks/commands"
	"github.com/bartekus/pipewright/cmd/internal/clierr"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(clierr.ExitCodeOf(err))
	}
}
