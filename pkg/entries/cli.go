package entries

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/travigo/vvs/pkg/efa"
	"github.com/travigo/vvs/pkg/stations"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "entries",
		Usage: "Manage stored config entries",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list stored config entries",
				Action: func(c *cli.Context) error {
					store, err := StoreFromEnvironment()
					if err != nil {
						return err
					}

					storedEntries, err := store.List(c.Context)
					if err != nil {
						return err
					}

					for _, entry := range storedEntries {
						log.Info().
							Str("entry", entry.EntryID).
							Str("title", entry.Title).
							Str("start", entry.Data.Start).
							Str("destination", entry.Data.Destination).
							Int("offset", entry.Data.Offset).
							Int("max_connections", entry.Data.MaxConnections).
							Str("route_type", string(entry.Data.RouteType)).
							Msg("Config entry")
					}

					return nil
				},
			},
			{
				Name:  "add",
				Usage: "add a config entry without going through a setup flow",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "start",
						Usage:    "start station id",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "destination",
						Usage:    "destination station id",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "entry title, built from the station names when empty",
					},
					&cli.IntFlag{
						Name:  "offset",
						Value: DefaultOffset,
						Usage: "minutes added to the current time when searching trips",
					},
					&cli.IntFlag{
						Name:  "max-connections",
						Value: DefaultMaxConnections,
						Usage: "number of trips to fetch",
					},
					&cli.StringFlag{
						Name:  "route-type",
						Value: string(DefaultRouteType),
						Usage: "leasttime, leastinterchange or leastwalking",
					},
				},
				Action: func(c *cli.Context) error {
					data := NewData(c.String("start"), c.String("destination"))
					data.Offset = c.Int("offset")
					data.MaxConnections = c.Int("max-connections")
					data.RouteType = efa.RouteType(c.String("route-type"))

					if err := data.Validate(); err != nil {
						return err
					}

					store, err := StoreFromEnvironment()
					if err != nil {
						return err
					}

					entry, err := store.Create(c.Context, entryTitle(stations.Default(), c.String("title"), data), data)
					if err != nil {
						return err
					}

					log.Info().Str("entry", entry.EntryID).Str("title", entry.Title).Msg("Added config entry")

					return nil
				},
			},
			{
				Name:      "import",
				Usage:     "import config entries from a YAML file",
				ArgsUsage: "<file>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 1 {
						return errors.New("expected the path of one entries file")
					}

					imports, err := LoadImportFile(c.Args().First())
					if err != nil {
						return err
					}

					store, err := StoreFromEnvironment()
					if err != nil {
						return err
					}

					created, err := ImportEntries(c.Context, store, stations.Default(), imports)
					if err != nil {
						return err
					}

					log.Info().Int("declared", len(imports)).Int("created", created).Msg("Imported config entries")

					return nil
				},
			},
			{
				Name:      "remove",
				Usage:     "remove a stored config entry",
				ArgsUsage: "<entry id>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 1 {
						return errors.New("expected one entry id")
					}

					store, err := StoreFromEnvironment()
					if err != nil {
						return err
					}

					if err := store.Delete(c.Context, c.Args().First()); err != nil {
						return err
					}

					log.Info().Str("entry", c.Args().First()).Msg("Removed config entry")

					return nil
				},
			},
		},
	}
}

// ImportEntries creates every declared entry whose data is not stored yet and
// returns how many were created
func ImportEntries(ctx context.Context, store Store, table *stations.Table, imports []Import) (int, error) {
	storedEntries, err := store.List(ctx)
	if err != nil {
		return 0, err
	}

	existing := map[Data]bool{}
	for _, entry := range storedEntries {
		existing[entry.Data] = true
	}

	created := 0
	for _, declared := range imports {
		if existing[declared.Data] {
			log.Debug().Str("start", declared.Data.Start).Str("destination", declared.Data.Destination).Msg("Config entry already stored")
			continue
		}

		entry, err := store.Create(ctx, entryTitle(table, declared.Title, declared.Data), declared.Data)
		if err != nil {
			return created, err
		}
		existing[declared.Data] = true
		created++

		log.Info().Str("entry", entry.EntryID).Str("title", entry.Title).Msg("Imported config entry")
	}

	return created, nil
}

func entryTitle(table *stations.Table, title string, data Data) string {
	if title != "" {
		return title
	}

	return fmt.Sprintf("%s - %s", table.FriendlyName(data.Start), table.FriendlyName(data.Destination))
}
