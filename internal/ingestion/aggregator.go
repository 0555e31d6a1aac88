// Package ingestion coordinates the batch pipeline: concurrent adapter
// fetches in two phases (crises, then charities scoped by the observed
// countries), followed by an idempotent merge into the store.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/chariot-app/globemap/internal/merge"
	"github.com/chariot-app/globemap/internal/models"
	"github.com/chariot-app/globemap/internal/observability"
	"github.com/chariot-app/globemap/internal/sources"
	"github.com/chariot-app/globemap/internal/worker"
)

// Summary reports the outcome of one ingestion run. Adapter failures are
// recorded here and in logs; only a store-layer error fails the run itself.
type Summary struct {
	CrisesFetched     map[string]int
	CharitiesFetched  map[string]int
	FailedSources     []string
	Countries         []string
	CrisesInserted    int
	CrisesSkipped     int
	CrisesDropped     int
	CharitiesInserted int
	CharitiesLinked   int
	Duration          time.Duration
}

type Aggregator struct {
	crisisSources  []sources.CrisisSource
	globalSources  []sources.CharitySource
	countrySources []sources.CharitySource
	merger         *merge.Merger
	metrics        *observability.Metrics
	workerCount    int
	charityLimit   int
	maxCountries   int
}

type Options struct {
	CrisisSources  []sources.CrisisSource
	GlobalSources  []sources.CharitySource // country-agnostic, fetched once per run
	CountrySources []sources.CharitySource // fetched once per observed country
	Merger         *merge.Merger
	Metrics        *observability.Metrics
	WorkerCount    int
	CharityLimit   int
	MaxCountries   int
}

func NewAggregator(opts Options) *Aggregator {
	return &Aggregator{
		crisisSources:  opts.CrisisSources,
		globalSources:  opts.GlobalSources,
		countrySources: opts.CountrySources,
		merger:         opts.Merger,
		metrics:        opts.Metrics,
		workerCount:    opts.WorkerCount,
		charityLimit:   opts.CharityLimit,
		maxCountries:   opts.MaxCountries,
	}
}

// Run executes one complete ingestion run. Adapter failures contribute zero
// records and never abort the run; a store write failure does.
func (a *Aggregator) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{
		CrisesFetched:    make(map[string]int),
		CharitiesFetched: make(map[string]int),
	}

	// Phase 1: crises from every source, concurrently.
	crises := a.fetchCrises(ctx, &summary)

	summary.Countries = observedCountries(crises, a.maxCountries)

	// Phase 2 strictly follows phase 1: country-scoped charity fetches need
	// the observed country set.
	charities := a.fetchCharities(ctx, summary.Countries, &summary)

	crisisIDs, crisisStats, err := a.merger.MergeCrises(ctx, crises)
	if err != nil {
		a.recordRun(start, &summary, false)
		return summary, fmt.Errorf("ingestion: crisis merge failed: %w", err)
	}
	summary.CrisesInserted = crisisStats.Inserted
	summary.CrisesSkipped = crisisStats.Skipped
	summary.CrisesDropped = crisisStats.Dropped

	charityStats, err := a.merger.MergeCharities(ctx, charities)
	if err != nil {
		// The crisis batch already committed; only the charity batch is lost.
		a.recordRun(start, &summary, false)
		return summary, fmt.Errorf("ingestion: charity merge failed: %w", err)
	}
	summary.CharitiesInserted = charityStats.Inserted
	summary.CharitiesLinked = charityStats.Linked

	a.recordRun(start, &summary, true)

	slog.Info("ingestion run complete",
		"crises_inserted", summary.CrisesInserted,
		"crises_skipped", summary.CrisesSkipped,
		"crises_dropped", summary.CrisesDropped,
		"charities_inserted", summary.CharitiesInserted,
		"charities_linked", summary.CharitiesLinked,
		"countries", summary.Countries,
		"failed_sources", summary.FailedSources,
		"new_crisis_ids", len(crisisIDs),
		"duration", summary.Duration,
	)
	return summary, nil
}

type crisisResult struct {
	source  string
	records []models.Crisis
	err     error
}

func (a *Aggregator) fetchCrises(ctx context.Context, summary *Summary) []models.Crisis {
	results := make([]crisisResult, len(a.crisisSources))

	group := worker.NewGroup(a.workerCount, len(a.crisisSources))
	group.Start(ctx)
	for i, src := range a.crisisSources {
		i, src := i, src
		group.Submit(func(ctx context.Context) {
			records, err := src.FetchCrises(ctx)
			results[i] = crisisResult{source: src.Name(), records: records, err: err}
		})
	}
	group.Join()

	var crises []models.Crisis
	for _, res := range results {
		if res.source == "" {
			continue // task never ran (cancelled mid-phase)
		}
		if res.err != nil {
			slog.Error("crisis fetch failed", "source", res.source, "error", res.err)
			summary.FailedSources = append(summary.FailedSources, res.source)
			a.metrics.FetchErrors.WithLabelValues(res.source).Inc()
			continue
		}
		slog.Debug("crisis fetch complete", "source", res.source, "count", len(res.records))
		summary.CrisesFetched[res.source] += len(res.records)
		a.metrics.RecordsFetched.WithLabelValues(res.source, "crisis").Add(float64(len(res.records)))
		crises = append(crises, res.records...)
	}
	return crises
}

type charityResult struct {
	source  string
	country string
	records []models.Charity
	err     error
}

func (a *Aggregator) fetchCharities(ctx context.Context, countries []string, summary *Summary) []models.Charity {
	type job struct {
		src     sources.CharitySource
		country string
	}
	var jobs []job
	for _, src := range a.globalSources {
		jobs = append(jobs, job{src: src})
	}
	for _, src := range a.countrySources {
		for _, country := range countries {
			jobs = append(jobs, job{src: src, country: country})
		}
	}
	if len(jobs) == 0 {
		return nil
	}

	results := make([]charityResult, len(jobs))
	failed := make(map[string]bool)

	group := worker.NewGroup(a.workerCount, len(jobs))
	group.Start(ctx)
	for i, j := range jobs {
		i, j := i, j
		group.Submit(func(ctx context.Context) {
			records, err := j.src.FetchCharities(ctx, j.country, a.charityLimit)
			results[i] = charityResult{source: j.src.Name(), country: j.country, records: records, err: err}
		})
	}
	group.Join()

	var charities []models.Charity
	for _, res := range results {
		if res.source == "" {
			continue
		}
		if res.err != nil {
			slog.Error("charity fetch failed", "source", res.source, "country", res.country, "error", res.err)
			a.metrics.FetchErrors.WithLabelValues(res.source).Inc()
			if !failed[res.source] {
				failed[res.source] = true
				summary.FailedSources = append(summary.FailedSources, res.source)
			}
			continue
		}
		slog.Debug("charity fetch complete", "source", res.source, "country", res.country, "count", len(res.records))
		summary.CharitiesFetched[res.source] += len(res.records)
		a.metrics.RecordsFetched.WithLabelValues(res.source, "charity").Add(float64(len(res.records)))
		charities = append(charities, res.records...)
	}
	return charities
}

// observedCountries returns the distinct non-empty country codes across the
// fetched crises, ascending, truncated to max. Sorting before truncation
// keeps the cap deterministic across runs.
func observedCountries(crises []models.Crisis, max int) []string {
	set := make(map[string]bool)
	for _, c := range crises {
		if c.CountryCode != "" {
			set[c.CountryCode] = true
		}
	}

	countries := make([]string, 0, len(set))
	for code := range set {
		countries = append(countries, code)
	}
	sort.Strings(countries)

	if len(countries) > max {
		countries = countries[:max]
	}
	return countries
}

func (a *Aggregator) recordRun(start time.Time, summary *Summary, ok bool) {
	summary.Duration = time.Since(start)
	a.metrics.RunDuration.Observe(summary.Duration.Seconds())
	a.metrics.CrisesInserted.Add(float64(summary.CrisesInserted))
	a.metrics.CrisesSkipped.Add(float64(summary.CrisesSkipped))
	a.metrics.CrisesDropped.Add(float64(summary.CrisesDropped))
	a.metrics.CharitiesInserted.Add(float64(summary.CharitiesInserted))
	a.metrics.CharitiesLinked.Add(float64(summary.CharitiesLinked))
	if ok {
		a.metrics.RunsTotal.WithLabelValues("success").Inc()
	} else {
		a.metrics.RunsTotal.WithLabelValues("error").Inc()
	}
}
