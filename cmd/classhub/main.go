package main

import (
	"fmt"
	"os"

	"classhub/cmd/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "classhub: %v\n", err)
		os.Exit(1)
	}
}
