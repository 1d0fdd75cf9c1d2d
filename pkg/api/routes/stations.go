package routes

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/vvs/pkg/stations"
)

func StationsRouter(router fiber.Router, table *stations.Table) {
	router.Get("/", func(c *fiber.Ctx) error {
		term := strings.TrimSpace(c.Query("q"))

		if !stations.LongEnough(term) {
			c.SendStatus(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"error": "Search term must be at least 3 characters",
			})
		}

		options := stations.Search(table, term)
		if options == nil {
			options = []stations.Option{}
		}

		return c.JSON(options)
	})
}
