package handlers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"muadhin/internal/app"
	"muadhin/internal/locale"
	"muadhin/internal/models"
	"muadhin/internal/notify"
	"muadhin/internal/prayer"
	"muadhin/internal/schedule"
)

// Searcher looks up places by name. *geocode.Client implements it.
type Searcher interface {
	Search(ctx context.Context, query string, lang models.Language, limit int) ([]models.City, error)
}

type Handlers struct {
	State    *app.State
	Geocoder Searcher // nil disables the online fallback
	Native   bool     // scheduler variant picked at startup

	Now func() time.Time
}

const (
	// MinSearchLen is the shortest query forwarded to the geocoder.
	MinSearchLen = 3
	// SearchLimit caps geocoder results.
	SearchLimit = 5
	// ScheduleMaxAgeSec is the Cache-Control max-age of schedule responses.
	ScheduleMaxAgeSec = 30
)

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Health handles GET /api/health.
func (h *Handlers) Health(c *fiber.Ctx) error {
	scheduler := "polling"
	if h.Native {
		scheduler = "native"
	}
	return c.JSON(fiber.Map{"status": "ok", "scheduler": scheduler})
}

// GetSchedule handles GET /api/schedule: today's six events, the next one
// marked, and a countdown to it. When today cannot be computed the last
// good schedule is returned with "stale": true.
func (h *Handlers) GetSchedule(c *fiber.Ctx) error {
	now := h.now()
	events, err := h.State.Schedule(now)
	switch {
	case errors.Is(err, app.ErrNoCity):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no location selected"})
	case err != nil && len(events) == 0:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	city, _ := h.State.City()
	resp := fiber.Map{
		"city":      city,
		"method":    h.State.Settings().Method,
		"events":    events,
		"countdown": schedule.Countdown(events, now),
		"stale":     err != nil,
	}
	if next, ok := schedule.Next(events); ok {
		resp["next"] = next
	}
	c.Set("Cache-Control", "max-age="+strconv.Itoa(ScheduleMaxAgeSec))
	return c.JSON(resp)
}

// GetAlarms handles GET /api/alarms: the alarms the current state registers.
func (h *Handlers) GetAlarms(c *fiber.Ctx) error {
	alarms := h.State.Alarms(h.now())
	if alarms == nil {
		alarms = []models.AlarmInstant{}
	}
	return c.JSON(alarms)
}

// GetSettings handles GET /api/settings.
func (h *Handlers) GetSettings(c *fiber.Ctx) error {
	resp := fiber.Map{"settings": h.State.Settings()}
	if city, ok := h.State.City(); ok {
		resp["city"] = city
	}
	return c.JSON(resp)
}

// UpdateSettings handles PUT /api/settings with a partial body; absent
// fields keep their value.
func (h *Handlers) UpdateSettings(c *fiber.Ctx) error {
	var req app.SettingsPatch
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.State.UpdateSettings(c.UserContext(), req); err != nil {
		return stateError(c, err)
	}
	return c.JSON(fiber.Map{"settings": h.State.Settings()})
}

// CompleteOnboarding handles POST /api/onboarding.
func (h *Handlers) CompleteOnboarding(c *fiber.Ctx) error {
	if err := h.State.CompleteOnboarding(c.UserContext()); err != nil {
		return stateError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// TestNotification handles POST /api/notifications/test.
func (h *Handlers) TestNotification(c *fiber.Ctx) error {
	if err := h.State.TestNotification(c.UserContext()); err != nil {
		return stateError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok", "message": h.State.Texts().TestSent})
}

// stateError maps state errors to status codes.
func stateError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, app.ErrInvalidSettings), errors.Is(err, app.ErrNotAlarmable):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, notify.ErrPermissionDenied):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "notification permission denied"})
	case errors.Is(err, prayer.ErrInvalidInput):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	log.Error().Err(err).Str("component", "api").Str("path", c.Path()).Msg("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

// requestLanguage prefers ?lang=, then Accept-Language, then the settings.
func (h *Handlers) requestLanguage(c *fiber.Ctx) models.Language {
	if q := c.Query("lang"); q != "" {
		return locale.Negotiate(q)
	}
	if accept := c.Get(fiber.HeaderAcceptLanguage); accept != "" {
		return locale.Negotiate(accept)
	}
	return h.State.Settings().Language
}
