package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/chatwarden/chatwarden/moderation"
	"github.com/chatwarden/chatwarden/moderation/modstore"
	"github.com/chatwarden/chatwarden/util/cliutil"
	"github.com/chatwarden/chatwarden/vkapi"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "warden",
		Usage:   "group-chat moderation daemon",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "group-token",
			Usage:   "platform API token for the bot group",
			EnvVars: []string{"GROUP_TOKEN"},
		},
		&cli.Int64Flag{
			Name:    "group-id",
			Usage:   "identifier of the bot group to long-poll",
			EnvVars: []string{"GROUP_ID"},
		},
		&cli.Int64Flag{
			Name:    "owner-id",
			Usage:   "user who always resolves to the owner role",
			EnvVars: []string{"OWNER_ID"},
		},
		&cli.StringFlag{
			Name:    "vk-host",
			Usage:   "platform API host",
			Value:   vkapi.DefaultHost,
			EnvVars: []string{"VK_HOST"},
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the daemon",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Value:   "sqlite://data/warden/warden.db",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{
			Name:    "log-path",
			Usage:   "log file snapshotted by the export commands",
			EnvVars: []string{"LOG_PATH"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "optional redis instance for long-poll cursor persistence",
			EnvVars: []string{"REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3989",
			EnvVars: []string{"WARDEN_METRICS_LISTEN"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := context.Background()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		if cctx.String("group-token") == "" {
			return fmt.Errorf("GROUP_TOKEN is required")
		}
		if cctx.Int64("group-id") == 0 {
			return fmt.Errorf("GROUP_ID is required")
		}

		db, err := cliutil.SetupDatabase(cctx.String("database-url"), 40)
		if err != nil {
			return err
		}
		store, err := modstore.NewGormStore(db)
		if err != nil {
			return err
		}

		client := vkapi.NewClient(cctx.String("group-token"))
		client.Host = cctx.String("vk-host")

		engine := moderation.NewEngine(logger, store, client, moderation.EngineConfig{
			OwnerID:      cctx.Int64("owner-id"),
			DatabasePath: cliutil.SQLitePath(cctx.String("database-url")),
			LogPath:      cctx.String("log-path"),
		})

		srv, err := NewServer(engine, client, Config{
			GroupID:  cctx.Int64("group-id"),
			RedisURL: cctx.String("redis-url"),
			Logger:   logger,
		})
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
			}
		}()
		go func() {
			if err := engine.RunMuteWatcher(ctx); err != nil {
				slog.Error("mute watcher stopped", "error", err)
			}
		}()
		go func() {
			if err := engine.RunDailyMaintenance(ctx); err != nil {
				slog.Error("daily maintenance stopped", "error", err)
			}
		}()
		go func() {
			if err := srv.RunPersistCursor(ctx); err != nil {
				slog.Error("cursor persister stopped", "error", err)
			}
		}()

		if err := srv.RunConsumer(ctx); err != nil {
			return fmt.Errorf("failed to run moderation consumer: %w", err)
		}
		return nil
	},
}
