package main

import (
	"os"

	"github.com/thicclatka/nefaxer/cmd"
)

func main() {
	cmd.HandleTerminalCompatibility()

	if err := rootCommand.Execute(); err != nil {
		cmd.Fatal(err)
	}
	os.Exit(exitCode)
}
