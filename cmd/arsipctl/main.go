// Command arsipctl holds the operator tasks of the letter archive.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand(seedAdmin).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
