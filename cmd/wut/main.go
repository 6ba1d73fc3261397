package main

import (
	"os"

	"wut/cmd/wut/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
