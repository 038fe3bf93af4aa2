package main

import (
	"log/slog"
	"os"

	"github.com/Crowley723/mattermost-update-notifier/cli"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	if err := cli.NewRootCommand().Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}
