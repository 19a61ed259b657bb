package main

import (
	"os"

	"github.com/goliatone/go-llm-connections/cmd/llmconn/internal/cli"
)

func main() {
	if err := cli.NewApp().CreateRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
