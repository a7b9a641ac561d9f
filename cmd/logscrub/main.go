package main

import (
	"os"

	"github.com/raaihank/logscrub/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
