package main

// Default limits for CLI commands.
const (
	DefaultHistoryLimit = 20
)

// Valid output formats.
var (
	graphFormats  = []string{"json", "markdown"}
	exportFormats = []string{"json", "csv"}
)

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
