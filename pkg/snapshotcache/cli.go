package snapshotcache

import (
	"errors"

	"github.com/kr/pretty"
	"github.com/travigo/vvs/pkg/redis_client"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "sensors",
		Usage: "Inspect sensor snapshots shared through Redis",
		Subcommands: []*cli.Command{
			{
				Name:      "cached",
				Usage:     "print the cached snapshot of a config entry",
				ArgsUsage: "<entry id>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 1 {
						return errors.New("expected one entry id")
					}

					if err := redis_client.Connect(); err != nil {
						return err
					}

					cachedSnapshot, err := New(redis_client.Client).Load(c.Context, c.Args().First())
					if err != nil {
						return err
					}

					pretty.Println(cachedSnapshot)

					return nil
				},
			},
		},
	}
}
