package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/chariot-app/globemap/internal/models"
)

type everyorgResponse struct {
	Nonprofits []everyorgNonprofit `json:"nonprofits"`
}

type everyorgNonprofit struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Mission     string `json:"mission"`
	WebsiteURL  string `json:"websiteUrl"`
	LogoURL     string `json:"logoUrl"`
	Slug        string `json:"slug"`
}

// EveryOrgClient searches the Every.org partner API for disaster-relief
// nonprofits in a given country. Without an API key the client degrades to
// returning no results rather than failing the run.
type EveryOrgClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewEveryOrgClient(baseURL, apiKey string, minDelay rate.Limit) *EveryOrgClient {
	return &EveryOrgClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: newHTTPClient(),
		limiter:    rate.NewLimiter(minDelay, 1),
	}
}

func (c *EveryOrgClient) Name() string { return "everyorg" }

func (c *EveryOrgClient) FetchCharities(ctx context.Context, countryCode string, limit int) ([]models.Charity, error) {
	if c.apiKey == "" {
		// Degraded mode: no key, no results, no error.
		return nil, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("everyorg: waiting for rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("query", "disaster relief "+countryCode)
	params.Set("take", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("everyorg: creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("everyorg: doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("everyorg: unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data everyorgResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("everyorg: decoding response: %w", err)
	}

	charities := make([]models.Charity, 0, len(data.Nonprofits))
	for _, org := range data.Nonprofits {
		name := org.Name
		if name == "" {
			name = "Unknown Organization"
		}
		description := org.Description
		if description == "" {
			description = org.Mission
		}

		charities = append(charities, models.Charity{
			Name:        name,
			Description: description,
			Website:     org.WebsiteURL,
			LogoURL:     org.LogoURL,
			DonationURL: "https://www.every.org/" + org.Slug,
			CountryCode: countryCode,
			Source:      c.Name(),
		})
	}

	return charities, nil
}
