package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/chariot-app/globemap/internal/models"
)

const opencollectiveQuery = `
query($searchTerm: String!, $limit: Int!) {
  search(searchTerm: $searchTerm, limit: $limit, types: [COLLECTIVE]) {
    collectives {
      name
      slug
      description
      website
      imageUrl
    }
  }
}`

// defaultKeywords drive the global (country-agnostic) collective search.
var defaultKeywords = []string{"disaster relief", "hunger", "health", "climate"}

type opencollectiveRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type opencollectiveResponse struct {
	Data struct {
		Search struct {
			Collectives []opencollectiveCollective `json:"collectives"`
		} `json:"search"`
	} `json:"data"`
}

type opencollectiveCollective struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Website     string `json:"website"`
	ImageURL    string `json:"imageUrl"`
}

// OpenCollectiveClient searches the OpenCollective GraphQL API for public
// collectives by keyword. Results are global: the search response carries no
// country information, so CountryCode is always left empty.
type OpenCollectiveClient struct {
	baseURL    string
	keywords   []string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewOpenCollectiveClient(baseURL string, minDelay rate.Limit) *OpenCollectiveClient {
	return &OpenCollectiveClient{
		baseURL:    baseURL,
		keywords:   defaultKeywords,
		httpClient: newHTTPClient(),
		limiter:    rate.NewLimiter(minDelay, 1),
	}
}

func (c *OpenCollectiveClient) Name() string { return "opencollective" }

// FetchCharities runs one keyword search per configured keyword, spacing the
// calls via the rate limiter. The countryCode parameter is ignored.
func (c *OpenCollectiveClient) FetchCharities(ctx context.Context, _ string, limit int) ([]models.Charity, error) {
	var charities []models.Charity

	for _, keyword := range c.keywords {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("opencollective: waiting for rate limiter: %w", err)
		}

		collectives, err := c.search(ctx, keyword, limit)
		if err != nil {
			return nil, err
		}

		for _, col := range collectives {
			name := col.Name
			if name == "" {
				name = "Unknown Collective"
			}
			charities = append(charities, models.Charity{
				Name:        name,
				Description: col.Description,
				Website:     col.Website,
				LogoURL:     col.ImageURL,
				DonationURL: "https://opencollective.com/" + col.Slug,
				Source:      c.Name(),
			})
		}
	}

	return charities, nil
}

func (c *OpenCollectiveClient) search(ctx context.Context, keyword string, limit int) ([]opencollectiveCollective, error) {
	body, err := json.Marshal(opencollectiveRequest{
		Query: opencollectiveQuery,
		Variables: map[string]interface{}{
			"searchTerm": keyword,
			"limit":      limit,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("opencollective: encoding query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("opencollective: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opencollective: doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("opencollective: unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data opencollectiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("opencollective: decoding response: %w", err)
	}

	return data.Data.Search.Collectives, nil
}
