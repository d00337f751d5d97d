package main

import (
	"os"

	"github.com/msto63/meetrec/cmd/meetrec/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
