// Package cmd assembles the full application and runs it until a shutdown
// signal arrives.
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mehradnfi/shadwbot/core/bootstrap"
	"github.com/mehradnfi/shadwbot/core/bot"
	coreconfig "github.com/mehradnfi/shadwbot/core/config"
	"github.com/mehradnfi/shadwbot/core/logger"
	coretelegram "github.com/mehradnfi/shadwbot/core/telegram"
	"github.com/mehradnfi/shadwbot/core/web"

	"log/slog"
)

// Options describe where configuration comes from.
type Options struct {
	ConfigEnvVar      string
	DefaultConfigPath string
}

// Run loads configuration, bootstraps infrastructure, wires the app, and
// starts the bot runtime.
func Run(opts Options) error {
	env := opts.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	cfgPath := os.Getenv(env)
	if cfgPath == "" {
		cfgPath = opts.DefaultConfigPath
	}
	if cfgPath == "" {
		return fmt.Errorf("cmd: config path not provided via %s or DefaultConfigPath", env)
	}

	log.Printf("loading config: %s", cfgPath)
	cfg, err := coreconfig.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}

	startedAt := time.Now()
	boot, err := bootstrap.Run(bootstrap.Options{Config: cfg})
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()
	defer func() {
		if err := boot.Engine.Close(); err != nil {
			logger.Error(logger.Background(), "storage", "close",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}()

	outbox := coretelegram.NewOutbox()
	app := bot.New(boot.Store, outbox, bot.Options{
		AdminID:              cfg.Telegram.AdminID,
		BotUsername:          cfg.Telegram.Username,
		RewardPerInvite:      cfg.Referral.RewardPerInvite,
		BroadcastWorkers:     cfg.Broadcast.Workers,
		BroadcastSendTimeout: time.Duration(cfg.Broadcast.SendTimeoutMS) * time.Millisecond,
	})
	binder := coretelegram.NewBinder(app.Dispatcher())

	var health *web.HealthServer
	if cfg.Health.Listen != "" {
		health = web.NewHealthServer(cfg.Health.Listen, app.Store())
	}

	runOpts := coretelegram.RunOptions{
		Config:      cfg,
		Middlewares: coretelegram.DefaultMiddlewares(cfg, nil),
		Routes:      binder.Routes(),
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			outbox.Bind(rt.Bot)
			if health != nil {
				health.Start()
			}
			logger.L.With("component", "app").Info("app ready",
				slog.String("event", "ready"),
				slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
			)
			return nil
		},
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			logger.L.With("component", "app").Info("shutting down...",
				slog.String("event", "shutdown"),
			)
			if health != nil {
				stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return health.Stop(stopCtx)
			}
			return nil
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return coretelegram.RunTelegram(ctx, runOpts)
}
