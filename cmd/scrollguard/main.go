package main

import (
	"os"

	"github.com/pterm/pterm"

	"scrollguard/internal/app"
)

func main() {
	if err := app.New().Run(os.Args); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
