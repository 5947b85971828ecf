// Package main is the entry point for the tabauth server.
package main

import (
	"os"

	"github.com/aussiebroadwan/tabauth/internal/auth/app"
)

// Version information set at build time.
var version = "dev"

func main() {
	app.BuildVersion = version

	cmd := NewRootCmd()
	cmd.Version = version

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
