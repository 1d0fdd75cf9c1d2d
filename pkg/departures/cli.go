package departures

import (
	"fmt"
	"time"

	"github.com/kr/pretty"
	"github.com/travigo/vvs/pkg/efa"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "trips",
		Usage: "Fetch trips between two stations and print them",
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
			&cli.IntFlag{
				Name:  "limit",
				Value: 3,
				Usage: "number of trips to request",
			},
			&cli.IntFlag{
				Name:  "offset",
				Usage: "minutes added to the current time",
			},
			&cli.StringFlag{
				Name:  "route-type",
				Usage: "leasttime, leastinterchange or leastwalking, server default when empty",
			},
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "print the decoded EFA journeys instead of normalised trips",
			},
		},
		Action: func(c *cli.Context) error {
			location, err := LocationFromEnvironment()
			if err != nil {
				return err
			}

			client := efa.NewClient(location)
			rawTrips, err := client.GetTrips(c.Context, efa.TripRequest{
				Origin:      c.String("start"),
				Destination: c.String("destination"),
				CheckTime:   time.Now().In(location).Add(time.Duration(c.Int("offset")) * time.Minute),
				Limit:       c.Int("limit"),
				RouteType:   efa.RouteType(c.String("route-type")),
			})
			if err != nil {
				return err
			}

			if c.Bool("raw") {
				pretty.Println(rawTrips)
				return nil
			}

			for _, trip := range NormaliseTrips(rawTrips, location) {
				fmt.Printf("%# v\n", pretty.Formatter(trip))
			}

			return nil
		},
	}
}
