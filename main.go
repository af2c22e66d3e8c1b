package main

import (
	"os"

	"minijavac/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
