package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/chariot-app/globemap/internal/geo"
	"github.com/chariot-app/globemap/internal/models"
)

// reliefwebSeverity is the fixed severity assigned to ReliefWeb disasters;
// the feed carries no magnitude-like field.
const reliefwebSeverity = 5

type reliefwebResponse struct {
	Data []reliefwebEntry `json:"data"`
}

type reliefwebEntry struct {
	ID     string          `json:"id"`
	Fields reliefwebFields `json:"fields"`
}

type reliefwebFields struct {
	Name           string             `json:"name"`
	Type           []reliefwebType    `json:"type"`
	PrimaryCountry reliefwebCountry   `json:"primary_country"`
	Country        []reliefwebCountry `json:"country"`
}

type reliefwebType struct {
	Name string `json:"name"`
}

type reliefwebCountry struct {
	ISO3 string `json:"iso3"`
	Name string `json:"name"`
}

// ReliefWebClient fetches recent disasters from the ReliefWeb API.
type ReliefWebClient struct {
	baseURL    string
	appName    string
	limit      int
	httpClient *http.Client
}

func NewReliefWebClient(baseURL string, limit int) *ReliefWebClient {
	return &ReliefWebClient{
		baseURL:    baseURL,
		appName:    "chariot-app",
		limit:      limit,
		httpClient: newHTTPClient(),
	}
}

func (c *ReliefWebClient) Name() string { return "reliefweb" }

func (c *ReliefWebClient) FetchCrises(ctx context.Context) ([]models.Crisis, error) {
	params := url.Values{}
	params.Set("appname", c.appName)
	params.Set("limit", strconv.Itoa(c.limit))
	params.Set("preset", "latest")
	for _, field := range []string{"name", "type.name", "country.iso3", "country.name", "primary_country.iso3", "primary_country.name"} {
		params.Add("fields[include][]", field)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("reliefweb: creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reliefweb: doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reliefweb: unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data reliefwebResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("reliefweb: decoding response: %w", err)
	}

	crises := make([]models.Crisis, 0, len(data.Data))
	for _, entry := range data.Data {
		fields := entry.Fields

		disasterType := "Disaster"
		if len(fields.Type) > 0 && fields.Type[0].Name != "" {
			disasterType = fields.Type[0].Name
		}

		countryCode := geo.ISO3ToISO2(fields.PrimaryCountry.ISO3)
		countryName := fields.PrimaryCountry.Name
		if countryName == "" {
			countryName = "Unknown"
		}

		// ReliefWeb disasters carry no coordinates; fall back to the
		// country centroid and drop entries we cannot place.
		lat, lon, ok := geo.CountryCentroid(countryCode)
		if !ok {
			continue
		}

		crises = append(crises, models.Crisis{
			Title:       fields.Name,
			Category:    models.CategoryFromType(disasterType),
			Severity:    reliefwebSeverity,
			Latitude:    lat,
			Longitude:   lon,
			CountryCode: countryCode,
			Description: fmt.Sprintf("%s in %s", disasterType, countryName),
			Source:      c.Name(),
			SourceID:    "reliefweb_" + entry.ID,
		})
	}

	return crises, nil
}
