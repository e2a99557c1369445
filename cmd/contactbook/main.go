// Command contactbook manages a personal contact list stored in SQLite,
// PostgreSQL or memory, and exports it to local or S3 blob storage.
package main

import (
	"fmt"
	"io"
	"os"
)

var exitFunc = os.Exit

func main() {
	exitFunc(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if err := newApp(stdout, stderr).Run(args); err != nil {
		_, _ = fmt.Fprintf(stderr, "contactbook: %s\n", userMessage(err))
		return 1
	}
	return 0
}
