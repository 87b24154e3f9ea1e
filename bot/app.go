// Package bot assembles the Telegram front end: command routing, the
// dialog machine, voice transcription and the engine notification
// stream.
package bot

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/myxo/remu/core/cmd"
	"github.com/myxo/remu/core/config"
	"github.com/myxo/remu/core/logger"
	coretelegram "github.com/myxo/remu/core/telegram"
	"github.com/myxo/remu/core/telegram/commands"
	"github.com/myxo/remu/dialog"
	"github.com/myxo/remu/engine"
	"github.com/myxo/remu/frontend"
	"github.com/myxo/remu/voice"
	"log/slog"
)

type App struct {
	cfg   *config.Config
	eng   engine.Engine
	store *dialog.Store
	rec   *voice.Recognizer

	// Set in onStart once the telebot instance exists.
	bot     *tele.Bot
	machine *dialog.Machine
}

// NewApp builds the application over an already-loaded configuration.
func NewApp(cfg *config.Config) (*App, error) {
	a := &App{
		cfg:   cfg,
		eng:   engine.NewClient(cfg.Engine.Address),
		store: dialog.NewStore(),
	}
	if cfg.Voice.Enabled {
		rec, err := voice.NewRecognizer(cfg.Voice)
		if err != nil {
			return nil, fmt.Errorf("bot: voice recognizer: %w", err)
		}
		a.rec = rec
	}
	return a, nil
}

func (a *App) CoreConfig() *config.Config { return a.cfg }

// LoadConfig adapts config.Load to the runner's carrier interface.
func LoadConfig(path string) (cmd.ConfigCarrier, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return carrier{cfg}, nil
}

type carrier struct{ cfg *config.Config }

func (c carrier) CoreConfig() *config.Config { return c.cfg }

// Bootstrap builds the Telegram app from a loaded configuration.
func Bootstrap(c cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	return NewApp(c.CoreConfig())
}

// TelegramRunOptions wires registry commands, update routes, global
// middlewares and lifecycle hooks for the core Telegram runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerCommands(reg)

	routes := []coretelegram.Route{
		{Endpoint: tele.OnText, Handler: a.onText},
		{Endpoint: tele.OnCallback, Handler: a.onCallback},
		{Endpoint: tele.OnVoice, Handler: a.onVoice},
	}
	for name, command := range reg.Commands() {
		routes = append(routes, coretelegram.Route{
			Endpoint: name,
			Handler:  command.Handler,
		})
	}

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
		OnStart:     a.onStart,
		OnResume:    a.onResume,
	}, nil
}

func (a *App) registerCommands(reg *coretelegram.Registry) {
	// Every command except /start goes through the dialog machine so
	// that an in-progress flow is cancelled consistently first.
	viaMachine := func(c tele.Context) error {
		return a.machine.HandleText(a.ctx(c), c.Chat().ID, c.Message().ID, c.Text())
	}

	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "register and say hi",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     viaMachine,
		Description: "how to set reminders",
	})
	reg.RegisterCommand("/list", commands.Command{
		Handler:     viaMachine,
		Description: "list active events",
	})
	reg.RegisterCommand("/delete_rep", commands.Command{
		Handler:     viaMachine,
		Description: "delete a recurring event",
	})
	reg.RegisterCommand("/at", commands.Command{
		Handler:     viaMachine,
		Description: "pick the event date from a calendar",
	})
	reg.RegisterCommand("/group", commands.Command{
		Handler:     viaMachine,
		Description: "manage reminder groups",
	})
	reg.RegisterCommand("/add_group", commands.Command{
		Handler:     viaMachine,
		Description: "create a reminder group",
	})
}

func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	a.bot = rt.Bot
	tr := frontend.NewTelebot(rt.Bot)
	a.machine = dialog.NewMachine(a.store, a.eng, tr)
	a.startNotifications(ctx, tr)
	return nil
}

// onResume runs after a polling outage. Updates lost during the outage
// may have answered a question the bot no longer remembers asking, so
// every dialog starts over.
func (a *App) onResume(ctx context.Context, _ coretelegram.Runtime) error {
	a.store.ResetAll()
	logger.Warn(ctx, "fsm", "sessions.reset",
		slog.String("reason", "poll_resume"),
	)
	return nil
}
