package handlers

import "github.com/gofiber/fiber/v2"

// Register mounts the API under /api. mw runs before every route.
func Register(app *fiber.App, h *Handlers, mw ...fiber.Handler) {
	api := app.Group("/api", mw...)
	api.Get("/health", h.Health)

	api.Get("/schedule", h.GetSchedule)
	api.Get("/alarms", h.GetAlarms)

	api.Get("/settings", h.GetSettings)
	api.Put("/settings", h.UpdateSettings)
	api.Post("/onboarding", h.CompleteOnboarding)
	api.Post("/prayers/:id/alarm", h.TogglePrayer)

	api.Put("/city", h.SelectCity)
	api.Get("/cities", h.SearchCities)

	api.Post("/notifications/test", h.TestNotification)
}
