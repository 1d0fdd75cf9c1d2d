package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/vvs/pkg/api"
	"github.com/travigo/vvs/pkg/departures"
	"github.com/travigo/vvs/pkg/entries"
	"github.com/travigo/vvs/pkg/events"
	"github.com/travigo/vvs/pkg/notify"
	"github.com/travigo/vvs/pkg/snapshotcache"
	"github.com/travigo/vvs/pkg/stations"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	if os.Getenv("VVS_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("VVS_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "vvs",
		Description: "Next departure sensors for routes in the VVS network",

		Commands: []*cli.Command{
			api.RegisterCLI(),
			entries.RegisterCLI(),
			stations.RegisterCLI(),
			departures.RegisterCLI(),
			snapshotcache.RegisterCLI(),
			events.RegisterCLI(),
			notify.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
