package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const bigDataCloudURL = "https://api.bigdatacloud.net/data/reverse-geocode-client"

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// ReverseGeocoder resolves coordinates to a display address.
type ReverseGeocoder struct {
	BaseURL string
	Client  *http.Client
}

func NewReverseGeocoder() *ReverseGeocoder {
	return &ReverseGeocoder{
		BaseURL: bigDataCloudURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Locate never fails: any lookup problem degrades to "lat, lon" as the address.
func (g *ReverseGeocoder) Locate(ctx context.Context, lat, lon float64) Location {
	loc := Location{Latitude: lat, Longitude: lon}

	addr, err := g.lookup(ctx, lat, lon)
	if err != nil || addr == "" {
		loc.Address = fmt.Sprintf("%s, %s", formatCoord(lat), formatCoord(lon))
		return loc
	}
	loc.Address = addr
	return loc
}

func (g *ReverseGeocoder) lookup(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("latitude", formatCoord(lat))
	q.Set("longitude", formatCoord(lon))
	q.Set("localityLanguage", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode: status %d", resp.StatusCode)
	}

	var body struct {
		DisplayName string `json:"displayName"`
		Locality    string `json:"locality"`
		City        string `json:"city"`
		Subdivision string `json:"principalSubdivision"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}

	switch {
	case body.DisplayName != "":
		return body.DisplayName, nil
	case body.City != "" && body.Subdivision != "":
		return body.City + ", " + body.Subdivision, nil
	case body.Locality != "":
		return body.Locality, nil
	}
	return "", nil
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
