package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muadhin/internal/models"
)

func TestCatalog(t *testing.T) {
	all := Catalog("")
	assert.Len(t, all, len(catalog))

	egypt := Catalog("EGYPT")
	require.Len(t, egypt, 2)
	assert.Equal(t, "Cairo", egypt[0].Name)

	byArabic := Catalog("القاهرة")
	require.Len(t, byArabic, 1)
	assert.Equal(t, "Cairo", byArabic[0].Name)

	assert.Empty(t, Catalog("atlantis"))

	for _, c := range all {
		assert.NoError(t, c.Coords.Validate(), c.Name)
	}
}

func TestManualAndGPSCity(t *testing.T) {
	coords := models.Coordinates{Latitude: 1, Longitude: 2}
	assert.Equal(t, "Manual Location", ManualCity(coords).Name)
	assert.Equal(t, "GPS Detected", GPSCity(coords).Country)
	assert.Equal(t, coords, GPSCity(coords).Coords)
}

func TestSearch(t *testing.T) {
	var gotQuery, gotLang, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotLang = r.URL.Query().Get("accept-language")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"lat":"59.3293","lon":"18.0686","display_name":"Stockholm, Sweden","address":{"city":"Stockholm","country":"Sweden"}},
			{"lat":"bad","lon":"0","display_name":"Broken"},
			{"lat":"64.1","lon":"-21.9","display_name":"Reykjavik, Iceland","address":{"country":"Iceland"}}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 100)
	cities, err := c.Search(context.Background(), "stock holm", models.LangArabic, 3)
	require.NoError(t, err)
	require.Len(t, cities, 2)

	assert.Equal(t, "stock holm", gotQuery)
	assert.Equal(t, "ar", gotLang)
	assert.Equal(t, "muadhin/1.0", gotUA)

	assert.Equal(t, "Stockholm", cities[0].Name)
	assert.Equal(t, "Sweden", cities[0].Country)
	assert.InDelta(t, 18.0686, cities[0].Coords.Longitude, 1e-9)
	assert.Equal(t, "Reykjavik", cities[1].Name)
}

func TestSearchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 100).Search(context.Background(), "x", models.LangEnglish, 1)
	assert.ErrorContains(t, err, "429")
}

func TestSearchHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient("http://127.0.0.1:1", 1).Search(ctx, "x", models.LangEnglish, 1)
	assert.Error(t, err)
}
