package main

import (
	"github.com/nicksanford/sanding-monitoring-web-app/internal/interface/cli"
)

// Set at build time via -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.SetVersion(version, commit, date)
	cli.Execute()
}
