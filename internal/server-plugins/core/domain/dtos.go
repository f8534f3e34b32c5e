package domain

// PluginInfo describes one active server plugin.
type PluginInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Essential   bool     `json:"essential"`
	Provides    []string `json:"provides"`
}

type Limits struct {
	MaxFileSize         int64   `json:"max_file_size"`
	MaxMatches          int     `json:"max_matches"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	Timeout             string  `json:"timeout"`
}

// ServerInfo is the self-description served to clients.
type ServerInfo struct {
	Name           string       `json:"name"`
	Version        string       `json:"version"`
	BuildTime      string       `json:"build_time,omitempty"`
	Transport      string       `json:"transport"`
	Address        string       `json:"address,omitempty"`
	MetricsEnabled bool         `json:"metrics_enabled"`
	Formats        []string     `json:"formats"`
	Limits         Limits       `json:"limits"`
	Plugins        []PluginInfo `json:"plugins"`
}

type RecentLogs struct {
	Count    int      `json:"count"`
	Capacity int      `json:"capacity"`
	Lines    []string `json:"lines"`
}
