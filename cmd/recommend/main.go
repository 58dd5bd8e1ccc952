// Command recommend scores a student profile against the compiled-in
// college catalog without a running server.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
