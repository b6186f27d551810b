// Command guff is the chat and private Q&A client, and its backend.
package main

import (
	"os"

	"github.com/roach88/guff/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
