package main

import (
	"os"

	"github.com/runtime-config/runtime-config/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
