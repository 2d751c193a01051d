package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"fleetroute/internal/model"
)

const defaultNominatimURL = "https://nominatim.openstreetmap.org"

// Geocoder resolves free-form addresses to coordinates via the Nominatim
// search API. The zero retry policy is deliberate: geocoding failures are a
// configuration problem reported to the caller, not something to mask.
type Geocoder struct {
	BaseURL string
	HTTP    *http.Client
}

// NewGeocoder builds a Geocoder. NOMINATIM_URL overrides the public endpoint,
// which is what tests and self-hosted deployments use.
func NewGeocoder() *Geocoder {
	base := os.Getenv("NOMINATIM_URL")
	if base == "" {
		base = defaultNominatimURL
	}
	return &Geocoder{BaseURL: base, HTTP: &http.Client{Timeout: 10 * time.Second}}
}

// Geocode returns the best-ranked match for the address.
func (g *Geocoder) Geocode(ctx context.Context, address string) (model.GeoPoint, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return model.GeoPoint{}, err
	}
	req.Header.Set("User-Agent", "fleetroute/1.0")
	resp, err := g.HTTP.Do(req)
	if err != nil {
		return model.GeoPoint{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return model.GeoPoint{}, fmt.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}
	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return model.GeoPoint{}, err
	}
	if len(results) == 0 {
		return model.GeoPoint{}, fmt.Errorf("geocode: no match for %q", address)
	}
	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return model.GeoPoint{}, fmt.Errorf("geocode: bad latitude %q", results[0].Lat)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return model.GeoPoint{}, fmt.Errorf("geocode: bad longitude %q", results[0].Lon)
	}
	return model.GeoPoint{Lat: lat, Lng: lng}, nil
}
