// Package main provides the menuctl operator command line.
package main

import (
	"os"

	"github.com/treemenu/treemenu-server/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
