package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	apperr "github.com/tgienger/botdesk/internal/errors"
	"github.com/tgienger/botdesk/internal/models"
)

// NewBotsCommand returns the bots subcommand.
func NewBotsCommand() *cli.Command {
	platforms := make([]string, len(models.Platforms))
	for i, p := range models.Platforms {
		platforms[i] = string(p)
	}

	return &cli.Command{
		Name:  "bots",
		Usage: "Manage bot accounts",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Register a bot account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "platform",
						Usage: "One of " + strings.Join(platforms, ", "),
						Value: string(models.PlatformTelegram),
					},
					&cli.StringFlag{Name: "gender", Usage: "male or female", Value: string(models.GenderMale)},
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Account username", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Account password"},
					&cli.BoolFlag{Name: "generate-password", Aliases: []string{"g"}, Usage: "Generate a random password"},
					&cli.StringFlag{Name: "token", Usage: "Access token"},
					&cli.BoolFlag{Name: "active", Usage: "Mark the bot active", Value: true},
					&cli.BoolFlag{Name: "in-use", Usage: "Mark the bot as in use"},
				},
				Action: runBotsCreate,
			},
		},
	}
}

func runBotsCreate(ctx context.Context, cmd *cli.Command) error {
	bot := models.NewBot()
	bot.Platform = models.Platform(cmd.String("platform"))
	bot.Gender = models.Gender(cmd.String("gender"))
	bot.Username = strings.TrimSpace(cmd.String("username"))
	bot.Password = cmd.String("password")
	bot.AccessToken = cmd.String("token")
	bot.IsActive = cmd.Bool("active")
	bot.IsInUse = cmd.Bool("in-use")

	generated := false
	if bot.Password == "" && cmd.Bool("generate-password") {
		pw, err := models.GeneratePassword()
		if err != nil {
			return fmt.Errorf("generate password: %w", err)
		}
		bot.Password = pw
		generated = true
	}
	if err := bot.Validate(); err != nil {
		return err
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	created, err := e.client.CreateBot(ctx, bot)
	if err != nil {
		msg := apperr.MessageOf(err)
		e.record(models.ActionCreateBot, bot.Username, false, msg)
		return fmt.Errorf("create bot: %s", msg)
	}
	e.record(models.ActionCreateBot, bot.Username, true, "bot created")

	w := out(cmd)
	fmt.Fprintf(w, "created %s bot %s", bot.Platform, bot.Username)
	if created.ID != "" {
		fmt.Fprintf(w, " (id %s)", created.ID)
	}
	fmt.Fprintln(w)
	if generated {
		fmt.Fprintf(w, "password: %s\n", bot.Password)
	}
	return nil
}
