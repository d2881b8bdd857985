// Package greeting prints the fixed hello-world greeting.
package greeting

import (
	"fmt"
	"io"
)

// Greeting is the text the hello program prints.
const Greeting = "Hello, World!"

// Write prints the greeting followed by a newline.
func Write(w io.Writer) error {
	_, err := fmt.Fprintln(w, Greeting)
	return err
}
