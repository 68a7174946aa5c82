package main

import (
	"os"

	"github.com/flattex/flattex/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
