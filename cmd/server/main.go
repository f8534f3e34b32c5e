package main

import (
	"fmt"
	"os"

	"github.com/flowbridge/flowbridge-mcp/internal/server"
	"github.com/flowbridge/flowbridge-mcp/pkg/fxapp"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Handle version flag before Fx starts
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("flowbridge-mcp version %s (built on %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	fxapp.New(server.BuildInfo{
		Name:      "flowbridge-mcp",
		Version:   Version,
		BuildTime: BuildTime,
	}).Run()
}
