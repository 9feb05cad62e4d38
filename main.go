package main

import (
	"fmt"
	"os"

	"github.com/tphakala/soilplanner/cmd"
	"github.com/tphakala/soilplanner/internal/buildinfo"
	"github.com/tphakala/soilplanner/internal/conf"
	"github.com/tphakala/soilplanner/internal/logger"
)

// buildDate and version are set at build time with -ldflags "-X main.version=..."
var (
	buildDate string
	version   string
)

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	settings := &conf.Settings{}
	rootCmd := cmd.RootCommand(settings, buildinfo.NewContext(version, buildDate))

	err := rootCmd.Execute()

	if cerr := logger.Global().Close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", cerr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
