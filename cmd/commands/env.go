package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/tgienger/botdesk/internal/api"
	"github.com/tgienger/botdesk/internal/config"
	"github.com/tgienger/botdesk/internal/db"
	"github.com/tgienger/botdesk/internal/logger"
	"github.com/tgienger/botdesk/internal/models"
	"github.com/tgienger/botdesk/internal/tasklist"
)

// env is everything a subcommand needs, built from the root flags.
type env struct {
	cfg    *config.Config
	log    *slog.Logger
	client *api.Client
	store  *tasklist.Store
	db     *db.DB // nil when the local database could not be opened
}

func setup(cmd *cli.Command) (*env, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if cmd.Bool("debug") {
		cfg.Log.Level = "debug"
	}

	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Path: cfg.Log.Path}); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log := logger.Named("cli")

	e := &env{cfg: cfg, log: log}

	database, err := db.Open(cfg.Data.DBPath())
	if err != nil {
		log.Warn("local database unavailable, history disabled", "path", cfg.Data.DBPath(), "error", err)
	} else {
		e.db = database
	}

	e.client, err = api.NewClient(cfg.API.BaseURL,
		api.WithToken(cfg.API.Token),
		api.WithLogger(logger.Named("api")),
	)
	if err != nil {
		e.Close()
		return nil, err
	}

	pageSize := cfg.List.PageSize
	if e.db != nil {
		pageSize = e.db.PageSize(pageSize)
	}
	e.store = tasklist.New(e.client, tasklist.DefaultQuery(pageSize),
		tasklist.WithLogger(logger.Named("tasklist")),
		tasklist.WithTimeout(cfg.API.Timeout),
	)
	return e, nil
}

// record appends to the local history when it is available.
func (e *env) record(kind models.ActionKind, target string, ok bool, message string) {
	if e.db == nil {
		return
	}
	if _, err := e.db.RecordAction(kind, target, ok, message); err != nil {
		e.log.Warn("record action", "kind", kind, "target", target, "error", err)
	}
}

func (e *env) Close() {
	if e.db != nil {
		e.db.Close()
	}
	_ = logger.Close()
}

func out(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
