package events

import (
	"github.com/rs/zerolog/log"
	"github.com/travigo/vvs/pkg/redis_client"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Inspect the state change queue",
		Subcommands: []*cli.Command{
			{
				Name:  "test-event",
				Usage: "publish a test state change",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "entity",
						Value: "sensor.vvs_test",
						Usage: "entity id put on the event",
					},
				},
				Action: func(c *cli.Context) error {
					if err := redis_client.Connect(); err != nil {
						return err
					}

					queue, err := redis_client.QueueConnection.OpenQueue(StateChangedQueue)
					if err != nil {
						return err
					}

					if err := NewPublisher(queue).PublishStateChanged("test", c.String("entity"), "10:04", "10:14"); err != nil {
						return err
					}

					log.Info().Str("queue", StateChangedQueue).Msg("Published test event")

					return nil
				},
			},
		},
	}
}
