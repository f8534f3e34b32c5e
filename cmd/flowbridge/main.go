package main

import (
	"github.com/flowbridge/flowbridge-mcp/internal/cli"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	rootCmd := cli.CreateRootCommand(&cli.CommandConfig{
		Version:   Version,
		BuildTime: BuildTime,
	})
	cli.Execute(rootCmd)
}
