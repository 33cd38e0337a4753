package main

import (
	"os"

	"github.com/usfinancemoves/finwire/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
