package main

import (
	"os"

	"github.com/wonny/fpl-squad/backend/cmd/squad/commands"
)

// main is the entry point for the FPL squad CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/squad [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
