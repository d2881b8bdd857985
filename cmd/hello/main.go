// SPDX-License-Identifier: AGPL-3.0-or-later

// Command hello prints a fixed greeting and exits.
package main

import (
	"fmt"
	"os"

	"github.com/bartekus/pipewright/internal/greeting"
)

func main() {
	if err := greeting.Write(os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
