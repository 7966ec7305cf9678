package main

import (
	"os"

	"github.com/apache/sunny-website/cmd"
)

func main() {
	os.Exit(cmd.ExitCode(cmd.Execute()))
}
