package main

import (
	"flag"

	"github.com/burstfs/burstfs/cmd"
)

func main() {
	flag.Parse()

	cmd.Execute()
}
