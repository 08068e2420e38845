package main

import (
	"os"

	"github.com/PolarWolf314/credo/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
