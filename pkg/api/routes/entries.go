package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/vvs/pkg/entries"
	"github.com/travigo/vvs/pkg/setup"
)

const (
	entryStateLoaded     = "loaded"
	entryStateSetupRetry = "setup_retry"
	entryStateNotLoaded  = "not_loaded"
)

type entryView struct {
	*entries.Entry
	State string `json:"state"`
}

func EntriesRouter(router fiber.Router, manager *setup.Manager) {
	router.Get("/", func(c *fiber.Ctx) error {
		storedEntries, err := manager.Store.List(c.UserContext())
		if err != nil {
			c.SendStatus(fiber.StatusInternalServerError)
			return c.JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		views := make([]entryView, 0, len(storedEntries))
		for _, entry := range storedEntries {
			views = append(views, newEntryView(manager, entry))
		}

		return c.JSON(views)
	})

	router.Get("/:id", func(c *fiber.Ctx) error {
		entry, err := manager.Store.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return entryError(c, err)
		}

		return c.JSON(newEntryView(manager, entry))
	})

	router.Delete("/:id", func(c *fiber.Ctx) error {
		if err := manager.RemoveEntry(c.UserContext(), c.Params("id")); err != nil {
			return entryError(c, err)
		}

		return c.SendStatus(fiber.StatusNoContent)
	})
}

func newEntryView(manager *setup.Manager, entry *entries.Entry) entryView {
	state := entryStateNotLoaded
	if _, err := manager.Runtime(entry.EntryID); err == nil {
		state = entryStateLoaded
	} else if manager.Pending(entry.EntryID) {
		state = entryStateSetupRetry
	}

	return entryView{Entry: entry, State: state}
}

func entryError(c *fiber.Ctx, err error) error {
	if errors.Is(err, entries.ErrNotFound) {
		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "Could not find config entry matching identifier",
		})
	}

	c.SendStatus(fiber.StatusInternalServerError)
	return c.JSON(fiber.Map{
		"error": err.Error(),
	})
}
