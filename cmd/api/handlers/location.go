package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"muadhin/internal/geocode"
	"muadhin/internal/models"
)

// cityRequest is the JSON body of PUT /api/city. Source "manual" or "gps"
// names the city after how the coordinates were obtained.
type cityRequest struct {
	Name      string   `json:"name"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Source    string   `json:"source"`
}

const maxCityNameLen = 200

// SelectCity handles PUT /api/city.
func (h *Handlers) SelectCity(c *fiber.Ctx) error {
	var req cityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Latitude == nil || req.Longitude == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "latitude and longitude are required"})
	}
	coords := models.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}

	var city models.City
	switch req.Source {
	case "manual":
		city = geocode.ManualCity(coords)
	case "gps":
		city = geocode.GPSCity(coords)
	case "", "catalog", "search":
		name := strings.TrimSpace(req.Name)
		if name == "" || len(name) > maxCityNameLen || len(req.Country) > maxCityNameLen {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid city name"})
		}
		city = models.City{Name: name, Country: strings.TrimSpace(req.Country), Coords: coords}
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown source"})
	}

	if err := h.State.SelectCity(c.UserContext(), city); err != nil {
		return stateError(c, err)
	}
	return c.JSON(fiber.Map{"city": city})
}

// SearchCities handles GET /api/cities?q=. The built-in catalogue is
// searched first; the geocoder is asked only when it has no match.
func (h *Handlers) SearchCities(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))
	cities := geocode.Catalog(q)
	if len(cities) > 0 || h.Geocoder == nil || len([]rune(q)) < MinSearchLen {
		if cities == nil {
			cities = []models.City{}
		}
		return c.JSON(fiber.Map{"source": "catalog", "cities": cities})
	}

	found, err := h.Geocoder.Search(c.UserContext(), q, h.requestLanguage(c), SearchLimit)
	if err != nil {
		log.Warn().Err(err).Str("component", "api").Str("query", q).Msg("geocoder search failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "geocoder unavailable"})
	}
	if found == nil {
		found = []models.City{}
	}
	return c.JSON(fiber.Map{"source": "geocoder", "cities": found})
}

type toggleRequest struct {
	Enabled *bool `json:"enabled"`
}

// TogglePrayer handles POST /api/prayers/:id/alarm.
func (h *Handlers) TogglePrayer(c *fiber.Ctx) error {
	id := models.PrayerID(c.Params("id"))
	if !id.Valid() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown prayer"})
	}
	var req toggleRequest
	if err := c.BodyParser(&req); err != nil || req.Enabled == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "enabled is required"})
	}
	if err := h.State.TogglePrayer(c.UserContext(), id, *req.Enabled); err != nil {
		return stateError(c, err)
	}
	return c.JSON(fiber.Map{"prayer": id, "enabled": *req.Enabled})
}
