package stations

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "stations",
		Usage: "Query the bundled VVS station table",
		Subcommands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "search stations the way the setup flow does",
				ArgsUsage: "<term>",
				Action: func(c *cli.Context) error {
					term := strings.Join(c.Args().Slice(), " ")
					if !LongEnough(term) {
						return errors.New("search term must be at least 3 characters")
					}

					for _, option := range Search(Default(), term) {
						fmt.Printf("%-40s %s\n", option.Label, option.Value)
					}

					return nil
				},
			},
		},
	}
}
