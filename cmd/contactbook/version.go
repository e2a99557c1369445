package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "000000000000"
)

func fullVersion() string {
	return fmt.Sprintf("%s-%s", version, commit)
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build version & exit",
		Action: func(c *cli.Context) error {
			_, err := fmt.Fprintln(c.App.Writer, fullVersion())
			return err
		},
	}
}
