package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/chariot-app/globemap/internal/geo"
	"github.com/chariot-app/globemap/internal/models"
)

type usgsResponse struct {
	Features []usgsFeature `json:"features"`
}

type usgsFeature struct {
	ID         string         `json:"id"`
	Properties usgsProperties `json:"properties"`
	Geometry   usgsGeometry   `json:"geometry"`
}

type usgsProperties struct {
	Mag   float64 `json:"mag"`
	Place string  `json:"place"`
	Time  int64   `json:"time"` // unix millis
}

type usgsGeometry struct {
	Coordinates []float64 `json:"coordinates"` // [lon, lat, depth]
}

// USGSClient fetches significant recent earthquakes from the USGS FDSN
// event service.
type USGSClient struct {
	baseURL      string
	minMagnitude float64
	daysBack     int
	httpClient   *http.Client
	now          func() time.Time
}

func NewUSGSClient(baseURL string, minMagnitude float64, daysBack int) *USGSClient {
	return &USGSClient{
		baseURL:      baseURL,
		minMagnitude: minMagnitude,
		daysBack:     daysBack,
		httpClient:   newHTTPClient(),
		now:          time.Now,
	}
}

func (c *USGSClient) Name() string { return "usgs" }

func (c *USGSClient) FetchCrises(ctx context.Context) ([]models.Crisis, error) {
	startTime := c.now().UTC().AddDate(0, 0, -c.daysBack).Format("2006-01-02")

	params := url.Values{}
	params.Set("format", "geojson")
	params.Set("starttime", startTime)
	params.Set("minmagnitude", strconv.FormatFloat(c.minMagnitude, 'f', -1, 64))
	params.Set("orderby", "magnitude")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("usgs: creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("usgs: doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("usgs: unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data usgsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("usgs: decoding response: %w", err)
	}

	crises := make([]models.Crisis, 0, len(data.Features))
	for _, f := range data.Features {
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}
		lon, lat := f.Geometry.Coordinates[0], f.Geometry.Coordinates[1]

		place := f.Properties.Place
		if place == "" {
			place = "Unknown Location"
		}

		crises = append(crises, models.Crisis{
			Title:       fmt.Sprintf("Magnitude %.1f Earthquake - %s", f.Properties.Mag, place),
			Category:    models.CategoryDisaster,
			Severity:    models.SeverityFromMagnitude(f.Properties.Mag),
			Latitude:    lat,
			Longitude:   lon,
			CountryCode: geo.CountryFromPlace(place),
			Description: fmt.Sprintf("Earthquake with magnitude %.1f occurred near %s", f.Properties.Mag, place),
			Source:      c.Name(),
			SourceID:    "usgs_" + f.ID,
		})
	}

	return crises, nil
}
