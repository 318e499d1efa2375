package main

import (
	"fmt"
	"os"

	_ "jilai-deployer/cmd"
	"jilai-deployer/cmd/root"
)

func main() {
	err := root.RootCmd.Execute()
	root.Shutdown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
