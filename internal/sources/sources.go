// Package sources contains one adapter per external data provider. Each
// adapter fetches raw data over HTTP and normalizes it into the common
// record shapes in internal/models. Adapters return an error instead of a
// partial result on any HTTP or parse failure; isolating that failure from
// sibling adapters is the orchestrator's job.
package sources

import (
	"context"
	"net/http"
	"time"

	"github.com/chariot-app/globemap/internal/models"
)

const requestTimeout = 30 * time.Second

// CrisisSource fetches and normalizes crisis records from one provider.
type CrisisSource interface {
	Name() string
	FetchCrises(ctx context.Context) ([]models.Crisis, error)
}

// CharitySource fetches and normalizes charity records from one provider.
// countryCode scopes the search where the provider supports it; adapters
// without country support ignore it. limit bounds the result count.
type CharitySource interface {
	Name() string
	FetchCharities(ctx context.Context, countryCode string, limit int) ([]models.Charity, error)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}
