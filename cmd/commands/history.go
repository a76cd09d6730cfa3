package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
)

// NewHistoryCommand returns the history subcommand.
func NewHistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent operator actions",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Number of entries", Value: 20},
		},
		Action: runHistory,
	}
}

func runHistory(_ context.Context, cmd *cli.Command) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.db == nil {
		return errors.New("local database unavailable")
	}
	actions, err := e.db.ListActions(cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("list actions: %w", err)
	}

	w := out(cmd)
	if len(actions) == 0 {
		fmt.Fprintln(w, "No actions recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tTARGET\tRESULT\tMESSAGE")
	for _, a := range actions {
		result := "ok"
		if !a.OK {
			result = "failed"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			a.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			a.Kind,
			a.Target,
			result,
			a.Message,
		)
	}
	return tw.Flush()
}
