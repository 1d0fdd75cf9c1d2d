package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"github.com/rs/zerolog/log"
	"github.com/travigo/vvs/pkg/sensor"
	"github.com/travigo/vvs/pkg/setup"
)

func SensorsRouter(router fiber.Router, manager *setup.Manager) {
	router.Get("/", func(c *fiber.Ctx) error {
		states := []sensor.State{}
		for _, runtime := range manager.Runtimes() {
			states = append(states, runtime.Sensor.State())
		}

		groups := []string{"basic"}
		if c.QueryBool("detail") {
			groups = []string{"detailed"}
		}

		return reducedJSON(c, groups, states)
	})

	router.Get("/:id", func(c *fiber.Ctx) error {
		entryID := c.Params("id")

		runtime, err := manager.Runtime(entryID)
		if err == nil {
			return reducedJSON(c, []string{"detailed"}, runtime.Sensor.State())
		}

		// Another process may be polling this entry
		if manager.Cache != nil {
			cachedSnapshot, cacheErr := manager.Cache.Load(c.UserContext(), entryID)
			if cacheErr == nil {
				return c.JSON(cachedSnapshot)
			}
		}

		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "Could not find loaded sensor for config entry",
		})
	})

	router.Post("/:id/refresh", func(c *fiber.Ctx) error {
		runtime, err := manager.Runtime(c.Params("id"))
		if err != nil {
			c.SendStatus(fiber.StatusNotFound)
			return c.JSON(fiber.Map{
				"error": "Could not find loaded sensor for config entry",
			})
		}

		if err := runtime.Coordinator.Refresh(c.UserContext()); err != nil {
			c.SendStatus(fiber.StatusBadGateway)
			return c.JSON(fiber.Map{
				"error":  err.Error(),
				"sensor": runtime.Sensor.State(),
			})
		}

		return reducedJSON(c, []string{"detailed"}, runtime.Sensor.State())
	})
}

func reducedJSON(c *fiber.Ctx, groups []string, data interface{}) error {
	reduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: groups,
	}, data)

	if err != nil {
		log.Error().Err(err).Msg("Sheriff could not reduce sensor state")

		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sheriff could not reduce sensor state",
		})
	}

	return c.JSON(reduced)
}
