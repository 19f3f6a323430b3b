package main

import (
	"fmt"
	"os"

	app "github.com/valter-silva-au/temporal-htn/internal"
	"github.com/valter-silva-au/temporal-htn/internal/cli"
	"github.com/valter-silva-au/temporal-htn/internal/core"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)

	basePath, err := core.ResolveBasePath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving base path: %v\n", err)
		os.Exit(1)
	}
	projectDir, _ := os.Getwd()

	a, err := app.NewApp(basePath, projectDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing htnc: %v\n", err)
		os.Exit(1)
	}

	err = cli.Execute()
	_ = a.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
