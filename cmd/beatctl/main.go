// Package main is beatctl, a command-line client and terminal player for the
// beats API.
package main

import (
	"fmt"
	"os"

	"github.com/sixtrece/beats-server/cmd/beatctl/cli"
)

var (
	version = "0.0.1-dev"
	commit  = "main"
)

func main() {
	root := cli.NewRootCommand(cli.VersionInfo{
		Version: version,
		Commit:  commit,
	})

	root.AddCommand(cli.NewItemsCommand())
	root.AddCommand(cli.NewGenresCommand())
	root.AddCommand(cli.NewLikeCommand())
	root.AddCommand(cli.NewProgressCommand())
	root.AddCommand(cli.NewClickCommand())
	root.AddCommand(cli.NewPlayCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
