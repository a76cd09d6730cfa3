package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/tgienger/botdesk/internal/logger"
	"github.com/tgienger/botdesk/internal/tasklist"
	"github.com/tgienger/botdesk/internal/ui"
)

// NewTUICommand returns the interactive console subcommand.
func NewTUICommand() *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Open the interactive task console",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "page-size",
				Usage: fmt.Sprintf("Rows per page (1-%d), remembered for later runs", tasklist.MaxLimit),
			},
		},
		Action: runTUI,
	}
}

func runTUI(ctx context.Context, cmd *cli.Command) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the console needs a terminal; use 'botdesk tasks list' for scripted output")
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if cmd.IsSet("page-size") {
		n := cmd.Int("page-size")
		if n < 1 || n > tasklist.MaxLimit {
			return fmt.Errorf("page size must be between 1 and %d", tasklist.MaxLimit)
		}
		if e.db != nil {
			if err := e.db.SetPageSize(n); err != nil {
				e.log.Warn("save page size", "error", err)
			}
		}
		e.store = tasklist.New(e.client, tasklist.DefaultQuery(n),
			tasklist.WithLogger(logger.Named("tasklist")),
			tasklist.WithTimeout(e.cfg.API.Timeout),
		)
	}

	deps := ui.Deps{
		Store: e.store,
		Tasks: e.client,
		Bots:  e.client,
		Log:   logger.Named("ui"),
	}
	if e.db != nil {
		deps.History = e.db
	}

	e.log.Info("console started", "api", e.cfg.API.BaseURL, "page_size", e.store.Snapshot().Query.Limit)
	return ui.Run(ctx, deps)
}
