package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/vvs/pkg/configflow"
)

type flowInitRequest struct {
	Handler string `json:"handler"`
}

func FlowsRouter(router fiber.Router, flows *configflow.Manager) {
	router.Post("/", func(c *fiber.Ctx) error {
		var request flowInitRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&request); err != nil {
				c.SendStatus(fiber.StatusBadRequest)
				return c.JSON(fiber.Map{
					"error": "Could not parse flow request",
				})
			}
		}

		result, err := flows.Init(request.Handler)
		if err != nil {
			return flowError(c, err)
		}

		return c.JSON(result)
	})

	router.Get("/:id", func(c *fiber.Ctx) error {
		result, err := flows.Get(c.Params("id"))
		if err != nil {
			return flowError(c, err)
		}

		return c.JSON(result)
	})

	router.Post("/:id", func(c *fiber.Ctx) error {
		result, err := flows.Configure(c.UserContext(), c.Params("id"), c.Body())
		if err != nil {
			return flowError(c, err)
		}

		return c.JSON(result)
	})

	router.Delete("/:id", func(c *fiber.Ctx) error {
		result, err := flows.Abort(c.Params("id"))
		if err != nil {
			return flowError(c, err)
		}

		return c.JSON(result)
	})
}

func flowError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, configflow.ErrFlowNotFound):
		c.SendStatus(fiber.StatusNotFound)
	case errors.Is(err, configflow.ErrUnknownHandler), errors.Is(err, configflow.ErrInvalidInput):
		c.SendStatus(fiber.StatusBadRequest)
	default:
		c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{
		"error": err.Error(),
	})
}
