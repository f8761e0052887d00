package main

import (
	"fmt"
	"os"

	"github.com/javiermolinar/agenda/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Configuration is loaded by the app so --config is honored.
	app := ui.NewApp(nil)
	defer func() { _ = app.Close() }()
	return app.Execute()
}
