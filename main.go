package main

import (
	"os"

	"github.com/Swapica/order-proxy-svc/internal/cli"
)

func main() {
	if !cli.Run(os.Args) {
		os.Exit(1)
	}
}
