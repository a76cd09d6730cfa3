package commands

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/tgienger/botdesk/internal/config"
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand returns the top-level CLI command.
func NewRootCommand(info BuildInfo) *cli.Command {
	return &cli.Command{
		Name:    "botdesk",
		Usage:   "Operator console for the bot task admin API",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.DefaultPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			NewTUICommand(),
			NewTasksCommand(),
			NewBotsCommand(),
			NewHistoryCommand(),
		},
		DefaultCommand: "tui",
	}
}
