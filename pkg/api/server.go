package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/travigo/vvs/pkg/api/routes"
	"github.com/travigo/vvs/pkg/configflow"
	"github.com/travigo/vvs/pkg/setup"
	"github.com/travigo/vvs/pkg/stations"
)

type Server struct {
	Table   *stations.Table
	Flows   *configflow.Manager
	Entries *setup.Manager
}

func NewApp(server Server) *fiber.App {
	webApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	webApp.Use(NewLogger())

	group := webApp.Group("/core")

	group.Get("version", routes.APIVersion)

	routes.StationsRouter(group.Group("/stations"), server.Table)
	routes.FlowsRouter(group.Group("/flows"), server.Flows)
	routes.EntriesRouter(group.Group("/entries"), server.Entries)
	routes.SensorsRouter(group.Group("/sensors"), server.Entries)

	return webApp
}
