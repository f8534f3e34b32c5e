package server

// BuildInfo identifies the running binary. It is supplied by main.
type BuildInfo struct {
	Name      string
	Version   string
	BuildTime string
}

const ServerName = "FlowBridge MCP Server"
