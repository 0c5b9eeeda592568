package geocode

import (
	"strings"

	"muadhin/internal/models"
)

type catalogCity struct {
	city   models.City
	arabic string
}

func city(name, country, arabic string, lat, lon float64) catalogCity {
	return catalogCity{
		city:   models.City{Name: name, Country: country, Coords: models.Coordinates{Latitude: lat, Longitude: lon}},
		arabic: arabic,
	}
}

// catalog is the built-in list offered before any network lookup.
var catalog = []catalogCity{
	city("Makkah", "Saudi Arabia", "مكة المكرمة", 21.4225, 39.8262),
	city("Madinah", "Saudi Arabia", "المدينة المنورة", 24.4672, 39.6111),
	city("Riyadh", "Saudi Arabia", "الرياض", 24.7136, 46.6753),
	city("Jeddah", "Saudi Arabia", "جدة", 21.5433, 39.1728),
	city("Cairo", "Egypt", "القاهرة", 30.0444, 31.2357),
	city("Alexandria", "Egypt", "الإسكندرية", 31.2001, 29.9187),
	city("Dubai", "United Arab Emirates", "دبي", 25.2048, 55.2708),
	city("Abu Dhabi", "United Arab Emirates", "أبو ظبي", 24.4539, 54.3773),
	city("Doha", "Qatar", "الدوحة", 25.2854, 51.5310),
	city("Kuwait City", "Kuwait", "الكويت", 29.3759, 47.9774),
	city("Manama", "Bahrain", "المنامة", 26.2285, 50.5860),
	city("Muscat", "Oman", "مسقط", 23.5880, 58.3829),
	city("Amman", "Jordan", "عمان", 31.9454, 35.9284),
	city("Jerusalem", "Palestine", "القدس", 31.7683, 35.2137),
	city("Beirut", "Lebanon", "بيروت", 33.8938, 35.5018),
	city("Damascus", "Syria", "دمشق", 33.5138, 36.2765),
	city("Baghdad", "Iraq", "بغداد", 33.3152, 44.3661),
	city("Tehran", "Iran", "طهران", 35.6892, 51.3890),
	city("Istanbul", "Turkey", "إسطنبول", 41.0082, 28.9784),
	city("Karachi", "Pakistan", "كراتشي", 24.8607, 67.0011),
	city("Lahore", "Pakistan", "لاهور", 31.5204, 74.3587),
	city("Dhaka", "Bangladesh", "دكا", 23.8103, 90.4125),
	city("Jakarta", "Indonesia", "جاكرتا", -6.2088, 106.8456),
	city("Kuala Lumpur", "Malaysia", "كوالالمبور", 3.1390, 101.6869),
	city("Casablanca", "Morocco", "الدار البيضاء", 33.5731, -7.5898),
	city("Tunis", "Tunisia", "تونس", 36.8065, 10.1815),
	city("Algiers", "Algeria", "الجزائر", 36.7538, 3.0588),
	city("Khartoum", "Sudan", "الخرطوم", 15.5007, 32.5599),
	city("London", "United Kingdom", "لندن", 51.5074, -0.1278),
	city("Paris", "France", "باريس", 48.8566, 2.3522),
	city("New York", "United States", "نيويورك", 40.7128, -74.0060),
	city("Toronto", "Canada", "تورونتو", 43.6532, -79.3832),
}

// Catalog lists built-in cities whose name, country or Arabic name contains
// query, case-insensitively. An empty query returns every city.
func Catalog(query string) []models.City {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.City, 0, len(catalog))
	for _, c := range catalog {
		if q == "" ||
			strings.Contains(strings.ToLower(c.city.Name), q) ||
			strings.Contains(strings.ToLower(c.city.Country), q) ||
			strings.Contains(c.arabic, q) {
			out = append(out, c.city)
		}
	}
	return out
}

// ManualCity wraps coordinates typed in by the user.
func ManualCity(coords models.Coordinates) models.City {
	return models.City{Name: "Manual Location", Country: "Manual Coordinates", Coords: coords}
}

// GPSCity wraps a device position fix.
func GPSCity(coords models.Coordinates) models.City {
	return models.City{Name: "GPS Location", Country: "GPS Detected", Coords: coords}
}
