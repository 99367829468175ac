package main

import (
	"github.com/kjk/plysplat/cmd/plyconv/cmd"
)

func main() {
	cmd.Execute()
}
