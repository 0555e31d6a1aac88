package repository

import (
	"context"

	"github.com/chariot-app/globemap/internal/models"
)

// Filter narrows and pages read-API crisis queries.
type Filter struct {
	Query    string // tokenized substring search over title and description
	Category string
	Sort     string // one of "severity", "last_updated", "id"
	Limit    int
	Offset   int
}

// CrisisPage is one page of crisis results plus the unpaged total.
type CrisisPage struct {
	Total  int             `json:"total"`
	Items  []models.Crisis `json:"items"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// Store is the persistence contract consumed by the merge engine and the
// read API. Insert methods commit each batch as a single transaction.
type Store interface {
	CountCrises(ctx context.Context) (int, error)
	FindCrisisBySourceID(ctx context.Context, sourceID string) (*models.Crisis, error)
	ListCrisisCountryCodes(ctx context.Context) ([]string, error)
	FirstCrisisByCountry(ctx context.Context, countryCode string) (*models.Crisis, error)
	InsertCrises(ctx context.Context, batch []models.Crisis) ([]int64, error)
	InsertCharities(ctx context.Context, batch []models.Charity) error

	ListCrises(ctx context.Context, f Filter) (CrisisPage, error)
	ListCharities(ctx context.Context, crisisID *int64) ([]models.Charity, error)
}
