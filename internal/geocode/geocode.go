package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"muadhin/internal/models"
)

const DefaultBaseURL = "https://nominatim.openstreetmap.org"

type nominatimResult struct {
	Lat     string        `json:"lat"`
	Lon     string        `json:"lon"`
	Display string        `json:"display_name"`
	Address nominatimAddr `json:"address"`
}

type nominatimAddr struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// Client searches Nominatim. Requests are throttled to the configured rate
// as the public instance's usage policy requires.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(baseURL string, requestsPerSecond int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// Search queries Nominatim for settlements matching query, with names in
// lang. Returns an empty slice (no error) if nothing was found.
func (c *Client) Search(ctx context.Context, query string, lang models.Language, limit int) ([]models.City, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("addressdetails", "1")
	params.Set("accept-language", string(lang))
	u := c.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "muadhin/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode nominatim response: %w", err)
	}

	cities := make([]models.City, 0, len(results))
	for _, r := range results {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			continue
		}
		name, country := placeName(r)
		cities = append(cities, models.City{
			Name:    name,
			Country: country,
			Coords:  models.Coordinates{Latitude: lat, Longitude: lon},
		})
	}
	return cities, nil
}

// placeName picks the settlement name: city > town > village > state, and
// falls back to the first component of the display name.
func placeName(r nominatimResult) (string, string) {
	a := r.Address
	name := a.City
	if name == "" {
		name = a.Town
	}
	if name == "" {
		name = a.Village
	}
	if name == "" {
		name = a.State
	}
	if name == "" {
		name, _, _ = strings.Cut(r.Display, ",")
		name = strings.TrimSpace(name)
	}
	if name == "" {
		name = "Unknown"
	}
	return name, a.Country
}
