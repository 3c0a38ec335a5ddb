package router

import (
	"github.com/gofiber/fiber/v2"
)

// Router registers its middleware and routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter installs the routers in order. The ops router goes first so
// its request id, logging and metrics middleware wrap every API route.
func InstallRouter(app *fiber.App, routers ...Router) {
	setup(app, routers...)
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
