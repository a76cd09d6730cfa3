package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	apperr "github.com/tgienger/botdesk/internal/errors"
	"github.com/tgienger/botdesk/internal/models"
	"github.com/tgienger/botdesk/internal/tasklist"
	"github.com/tgienger/botdesk/internal/ui/views"
)

const deleteConcurrency = 4

// NewTasksCommand returns the tasks subcommand.
func NewTasksCommand() *cli.Command {
	return &cli.Command{
		Name:  "tasks",
		Usage: "Inspect and manage bot tasks",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List one page of tasks",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Aliases: []string{"p"}, Usage: "Page number", Value: 1},
					&cli.IntFlag{Name: "limit", Usage: "Rows per page (defaults to the saved page size)"},
					&cli.StringFlag{Name: "platform", Usage: "Only tasks for this platform"},
					&cli.BoolFlag{Name: "hidden", Usage: "Include hidden tasks"},
				},
				Action: runTasksList,
			},
			{
				Name:      "show",
				Usage:     "Show task details",
				ArgsUsage: "<task_id>",
				Action:    runTasksShow,
			},
			{
				Name:      "update",
				Usage:     "Change a task's title or active flag",
				ArgsUsage: "<task_id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "New title"},
					&cli.BoolFlag{Name: "active", Usage: "Set the active flag (--active=false to deactivate)"},
				},
				Action: runTasksUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete one or more tasks",
				ArgsUsage: "<task_id>...",
				Action:    runTasksDelete,
			},
		},
		DefaultCommand: "list",
	}
}

func runTasksList(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	platform := models.Platform(cmd.String("platform"))
	if platform != "" && !platform.Valid() {
		return fmt.Errorf("unknown platform %q", platform)
	}
	if cmd.IsSet("limit") {
		e.store = tasklist.New(e.client, tasklist.DefaultQuery(cmd.Int("limit")),
			tasklist.WithLogger(e.log),
			tasklist.WithTimeout(e.cfg.API.Timeout),
		)
	}

	e.store.SetFilter(tasklist.WithPlatform(platform), tasklist.WithIncludeHidden(cmd.Bool("hidden")))
	if err := e.store.SetPage(ctx, cmd.Int("page")); err != nil {
		return fmt.Errorf("list tasks: %s", apperr.MessageOf(err))
	}

	snap := e.store.Snapshot()
	w := out(cmd)
	if len(snap.Result.Items) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tACTIVE\tERROR\tPLATFORM\tTYPE\tMETRICS\tNEXT RUN")
	for _, t := range snap.Result.Items {
		errMark := "-"
		if t.HasError() {
			errMark = "yes"
		}
		active := "no"
		if t.IsActive {
			active = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			t.Title,
			t.Status,
			active,
			errMark,
			t.Platform,
			t.TaskType,
			views.MetricsText(t.MetricsHTML),
			views.NextRunText(t),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\npage %d of %d (%d total)\n", snap.Page, snap.TotalPages(), snap.Result.Total)
	return nil
}

func runTasksShow(ctx context.Context, cmd *cli.Command) error {
	taskID := cmd.Args().First()
	if taskID == "" {
		return fmt.Errorf("usage: botdesk tasks show <task_id>")
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	t, err := e.client.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("get task: %s", apperr.MessageOf(err))
	}

	w := out(cmd)
	fmt.Fprintf(w, "ID:          %s\n", t.ID)
	fmt.Fprintf(w, "Title:       %s\n", t.Title)
	fmt.Fprintf(w, "Status:      %s\n", t.Status)
	fmt.Fprintf(w, "Active:      %t\n", t.IsActive)
	fmt.Fprintf(w, "Platform:    %s\n", t.Platform)
	fmt.Fprintf(w, "Type:        %s\n", t.TaskType)
	fmt.Fprintf(w, "Metrics:     %s\n", views.MetricsText(t.MetricsHTML))
	if !t.CreatedDate.IsZero() {
		fmt.Fprintf(w, "Created:     %s\n", t.CreatedDate.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "Next run:    %s\n", views.NextRunText(t))
	if t.HasError() {
		fmt.Fprintf(w, "\nError: %s\n", *t.Error)
	}
	return nil
}

func runTasksUpdate(ctx context.Context, cmd *cli.Command) error {
	taskID := cmd.Args().First()
	if taskID == "" {
		return fmt.Errorf("usage: botdesk tasks update <task_id> [--title T] [--active=BOOL]")
	}

	var patch models.TaskPatch
	if cmd.IsSet("title") {
		title := cmd.String("title")
		patch.Title = &title
	}
	if cmd.IsSet("active") {
		active := cmd.Bool("active")
		patch.IsActive = &active
	}
	if patch.Title == nil && patch.IsActive == nil {
		return errors.New("nothing to update: pass --title or --active")
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ok, message := e.store.UpdateTask(ctx, taskID, patch)
	e.record(models.ActionUpdateTask, taskID, ok, message)
	if !ok {
		return fmt.Errorf("update %s: %s", taskID, message)
	}
	fmt.Fprintf(out(cmd), "%s: %s\n", taskID, message)
	return nil
}

type deleteOutcome struct {
	ok      bool
	message string
}

func runTasksDelete(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("usage: botdesk tasks delete <task_id>...")
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	outcomes := make([]deleteOutcome, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			ok, message := e.store.DeleteTask(gctx, id)
			e.record(models.ActionDeleteTask, id, ok, message)
			outcomes[i] = deleteOutcome{ok: ok, message: message}
			return nil
		})
	}
	_ = g.Wait()

	w := out(cmd)
	failed := 0
	for i, id := range ids {
		status := "deleted"
		if !outcomes[i].ok {
			status = "failed"
			failed++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", id, status, outcomes[i].message)
	}

	// Deletes never touch the list; one refetch afterwards reports what is left.
	if err := e.store.Fetch(ctx, true); err == nil {
		fmt.Fprintf(w, "%d tasks remaining\n", e.store.Snapshot().Result.Total)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d deletes failed", failed, len(ids))
	}
	return nil
}
