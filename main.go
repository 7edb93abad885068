// ABOUTME: Entry point for the community forum backend-for-frontend
// ABOUTME: Delegates to the cobra command tree (serve, health)

package main

import (
	"fmt"
	"os"

	"github.com/communityforum/bff/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
