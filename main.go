package main

import (
	"os"

	"github.com/enersys/microplan/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
