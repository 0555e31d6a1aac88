// Package merge converges freshly fetched records into the store. Crises are
// deduplicated against their source-scoped natural key so re-running the
// pipeline is idempotent; charities are linked to crises by country code at
// insert time.
package merge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chariot-app/globemap/internal/models"
	"github.com/chariot-app/globemap/internal/repository"
)

// CrisisStats summarizes one crisis merge batch.
type CrisisStats struct {
	Inserted int
	Skipped  int // duplicate source_id
	Dropped  int // unresolvable location
}

// CharityStats summarizes one charity merge batch.
type CharityStats struct {
	Inserted int
	Linked   int
}

type Merger struct {
	store repository.Store
}

func NewMerger(store repository.Store) *Merger {
	return &Merger{store: store}
}

// MergeCrises inserts the records whose source_id is not already stored.
// Records with an empty source_id carry no dedup key and are always
// inserted. The whole batch commits as one transaction; on error nothing
// from this batch is persisted.
func (m *Merger) MergeCrises(ctx context.Context, incoming []models.Crisis) ([]int64, CrisisStats, error) {
	var stats CrisisStats
	batch := make([]models.Crisis, 0, len(incoming))
	seen := make(map[string]bool, len(incoming))

	for _, c := range incoming {
		if !c.HasCoordinates() {
			stats.Dropped++
			slog.Debug("dropping crisis without resolvable location", "title", c.Title, "source", c.Source)
			continue
		}

		if c.SourceID != "" {
			// In-batch duplicates would abort the whole transaction on the
			// UNIQUE constraint, so collapse them here as well.
			if seen[c.SourceID] {
				stats.Skipped++
				continue
			}
			existing, err := m.store.FindCrisisBySourceID(ctx, c.SourceID)
			if err != nil {
				return nil, stats, fmt.Errorf("merge: looking up source_id %q: %w", c.SourceID, err)
			}
			if existing != nil {
				stats.Skipped++
				continue
			}
			seen[c.SourceID] = true
		}

		c.LastUpdated = clock.Now().UTC()
		if c.SourceAPI == "" {
			c.SourceAPI = c.Source // legacy column mirrors source
		}
		batch = append(batch, c)
	}

	if len(batch) == 0 {
		return nil, stats, nil
	}

	ids, err := m.store.InsertCrises(ctx, batch)
	if err != nil {
		return nil, stats, fmt.Errorf("merge: inserting crisis batch: %w", err)
	}
	stats.Inserted = len(ids)
	return ids, stats, nil
}

// MergeCharities links each incoming charity to the first stored crisis
// (ascending id) sharing its country code, then inserts the batch. The
// linkage pool is the store's full crisis set, not just this run's inserts.
// Charities carry no dedup key; repeated runs accumulate rows.
func (m *Merger) MergeCharities(ctx context.Context, incoming []models.Charity) (CharityStats, error) {
	var stats CharityStats
	if len(incoming) == 0 {
		return stats, nil
	}

	// The linkage pool is the store's full crisis country set, not just the
	// countries this run inserted.
	codes, err := m.store.ListCrisisCountryCodes(ctx)
	if err != nil {
		return stats, fmt.Errorf("merge: listing crisis countries: %w", err)
	}
	linkable := make(map[string]bool, len(codes))
	for _, code := range codes {
		linkable[code] = true
	}

	crisisByCountry := make(map[string]*int64)
	batch := make([]models.Charity, 0, len(incoming))

	for _, c := range incoming {
		if linkable[c.CountryCode] {
			id, cached := crisisByCountry[c.CountryCode]
			if !cached {
				crisis, err := m.store.FirstCrisisByCountry(ctx, c.CountryCode)
				if err != nil {
					return stats, fmt.Errorf("merge: resolving crisis for country %q: %w", c.CountryCode, err)
				}
				if crisis != nil {
					id = &crisis.ID
				}
				crisisByCountry[c.CountryCode] = id
			}
			if id != nil {
				c.RelatedCrisisID = id
				c.CrisisID = id // legacy column mirrors the relation
				stats.Linked++
			}
		}
		batch = append(batch, c)
	}

	if err := m.store.InsertCharities(ctx, batch); err != nil {
		return stats, fmt.Errorf("merge: inserting charity batch: %w", err)
	}
	stats.Inserted = len(batch)
	return stats, nil
}
