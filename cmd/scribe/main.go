// Command scribe runs the wiki server.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/scribewiki/scribe/internal/app"
)

func main() {
	configPath := flag.String("config", os.Getenv("SCRIBE_CONFIG"), "path to the configuration file")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(app.Version)
		return
	}

	a, err := app.New(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scribe: %v\n", err)
		os.Exit(1)
	}
	if err := a.Run(); err != nil {
		a.Logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}
