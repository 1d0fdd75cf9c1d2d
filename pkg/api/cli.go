package api

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/travigo/vvs/pkg/configflow"
	"github.com/travigo/vvs/pkg/database"
	"github.com/travigo/vvs/pkg/dbwatch"
	"github.com/travigo/vvs/pkg/setup"
	"github.com/travigo/vvs/pkg/stations"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Polls every config entry and serves the setup and sensor API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run coordinators and web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
						Usage: "listen target for the web server",
					},
					&cli.BoolFlag{
						Name:  "watch",
						Value: true,
						Usage: "follow config entry changes made by other processes, needs a MongoDB replica set",
					},
				},
				Action: func(c *cli.Context) error {
					table := stations.Default()

					manager, err := setup.NewManagerFromEnvironment(table)
					if err != nil {
						return err
					}

					ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
					defer stop()

					if err := manager.Start(ctx); err != nil {
						return err
					}
					defer manager.Stop()

					if c.Bool("watch") && database.Configured() {
						go dbwatch.NewEntriesWatch(manager.Sync).Run(ctx)
					}

					webApp := NewApp(Server{
						Table:   table,
						Flows:   configflow.NewManager(table, manager.Fetcher, manager),
						Entries: manager,
					})

					go func() {
						<-ctx.Done()
						log.Info().Msg("Shutting down web api server")
						webApp.Shutdown()
					}()

					log.Info().Str("listen", c.String("listen")).Int("stations", table.Len()).Msg("Starting web api server")

					return webApp.Listen(c.String("listen"))
				},
			},
		},
	}
}
