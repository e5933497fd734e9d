package main

import (
	"os"

	"github.com/ljiulong/boxyy/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
