package main

import (
	"github.com/questforge/pigateway/internal/cli"
)

func main() {
	cli.Execute()
}
