package ingestion

import (
	"golang.org/x/time/rate"

	"github.com/chariot-app/globemap/internal/config"
	"github.com/chariot-app/globemap/internal/merge"
	"github.com/chariot-app/globemap/internal/observability"
	"github.com/chariot-app/globemap/internal/repository"
	"github.com/chariot-app/globemap/internal/sources"
)

// BuildAggregator wires the configured source adapters, merge engine and
// metrics into a ready-to-run Aggregator. An every.org adapter without an
// API key stays wired but fetches nothing.
func BuildAggregator(cfg *config.Config, store repository.Store, metrics *observability.Metrics) *Aggregator {
	minDelay := rate.Inf
	if cfg.Sources.CharityMinDelay > 0 {
		minDelay = rate.Every(cfg.Sources.CharityMinDelay)
	}

	crisisSources := []sources.CrisisSource{
		sources.NewReliefWebClient(cfg.Sources.ReliefWebURL, cfg.Sources.ReliefWebLimit),
		sources.NewUSGSClient(cfg.Sources.USGSURL, cfg.Sources.USGSMinMagnitude, cfg.Sources.USGSDaysBack),
	}

	countrySources := []sources.CharitySource{
		sources.NewEveryOrgClient(cfg.Sources.EveryOrgURL, cfg.Sources.EveryOrgAPIKey, minDelay),
	}

	globalSources := []sources.CharitySource{
		sources.NewOpenCollectiveClient(cfg.Sources.OpenCollectiveURL, minDelay),
	}

	return NewAggregator(Options{
		CrisisSources:  crisisSources,
		GlobalSources:  globalSources,
		CountrySources: countrySources,
		Merger:         merge.NewMerger(store),
		Metrics:        metrics,
		WorkerCount:    cfg.Worker.Count,
		CharityLimit:   cfg.Sources.CharityLimit,
		MaxCountries:   cfg.Ingest.MaxCountries,
	})
}
