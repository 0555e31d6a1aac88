package merge

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/chariot-app/globemap/internal/models"
	"github.com/chariot-app/globemap/internal/repository"
)

// mockStore implements repository.Store for testing.
type mockStore struct {
	crises    []models.Crisis
	charities []models.Charity
	nextID    int64

	failCrisisInsert  bool
	failCharityInsert bool
}

func newMockStore() *mockStore {
	return &mockStore{nextID: 1}
}

func (m *mockStore) CountCrises(ctx context.Context) (int, error) {
	return len(m.crises), nil
}

func (m *mockStore) FindCrisisBySourceID(ctx context.Context, sourceID string) (*models.Crisis, error) {
	for i := range m.crises {
		if m.crises[i].SourceID == sourceID {
			return &m.crises[i], nil
		}
	}
	return nil, nil
}

func (m *mockStore) ListCrisisCountryCodes(ctx context.Context) ([]string, error) {
	set := map[string]bool{}
	for _, c := range m.crises {
		if c.CountryCode != "" {
			set[c.CountryCode] = true
		}
	}
	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

func (m *mockStore) FirstCrisisByCountry(ctx context.Context, countryCode string) (*models.Crisis, error) {
	var best *models.Crisis
	for i := range m.crises {
		if m.crises[i].CountryCode != countryCode {
			continue
		}
		if best == nil || m.crises[i].ID < best.ID {
			best = &m.crises[i]
		}
	}
	return best, nil
}

func (m *mockStore) InsertCrises(ctx context.Context, batch []models.Crisis) ([]int64, error) {
	if m.failCrisisInsert {
		return nil, errors.New("store unavailable")
	}
	ids := make([]int64, 0, len(batch))
	for _, c := range batch {
		c.ID = m.nextID
		m.nextID++
		m.crises = append(m.crises, c)
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (m *mockStore) InsertCharities(ctx context.Context, batch []models.Charity) error {
	if m.failCharityInsert {
		return errors.New("store unavailable")
	}
	m.charities = append(m.charities, batch...)
	return nil
}

func (m *mockStore) ListCrises(ctx context.Context, f repository.Filter) (repository.CrisisPage, error) {
	return repository.CrisisPage{Total: len(m.crises), Items: m.crises}, nil
}

func (m *mockStore) ListCharities(ctx context.Context, crisisID *int64) ([]models.Charity, error) {
	return m.charities, nil
}

func quake(sourceID, countryCode string) models.Crisis {
	return models.Crisis{
		Title:       "Magnitude 6.0 Earthquake",
		Category:    models.CategoryDisaster,
		Severity:    4,
		Latitude:    34.5,
		Longitude:   139.7,
		CountryCode: countryCode,
		Source:      "usgs",
		SourceID:    sourceID,
	}
}

func TestMergeCrises_Idempotent(t *testing.T) {
	store := newMockStore()
	m := NewMerger(store)
	ctx := context.Background()

	batch := []models.Crisis{quake("usgs_us7000abcd", "JP")}

	ids, stats, err := m.MergeCrises(ctx, batch)
	if err != nil {
		t.Fatalf("first MergeCrises failed: %v", err)
	}
	if len(ids) != 1 || stats.Inserted != 1 {
		t.Fatalf("expected 1 insert, got ids=%v stats=%+v", ids, stats)
	}

	// Same upstream event on the second run: zero additional rows.
	ids, stats, err = m.MergeCrises(ctx, batch)
	if err != nil {
		t.Fatalf("second MergeCrises failed: %v", err)
	}
	if len(ids) != 0 || stats.Skipped != 1 {
		t.Errorf("expected skip on re-run, got ids=%v stats=%+v", ids, stats)
	}
	if count, _ := store.CountCrises(ctx); count != 1 {
		t.Errorf("store count changed on re-run: %d", count)
	}
}

func TestMergeCrises_EmptySourceIDAlwaysInserts(t *testing.T) {
	store := newMockStore()
	m := NewMerger(store)
	ctx := context.Background()

	batch := []models.Crisis{quake("", "JP")}

	for i := 0; i < 2; i++ {
		if _, _, err := m.MergeCrises(ctx, batch); err != nil {
			t.Fatalf("MergeCrises run %d failed: %v", i+1, err)
		}
	}

	if count, _ := store.CountCrises(ctx); count != 2 {
		t.Errorf("expected 2 rows for keyless records, got %d", count)
	}
}

func TestMergeCrises_InBatchDuplicate(t *testing.T) {
	store := newMockStore()
	m := NewMerger(store)
	ctx := context.Background()

	batch := []models.Crisis{quake("usgs_dup", "JP"), quake("usgs_dup", "JP")}

	ids, stats, err := m.MergeCrises(ctx, batch)
	if err != nil {
		t.Fatalf("MergeCrises failed: %v", err)
	}
	if len(ids) != 1 || stats.Skipped != 1 {
		t.Errorf("expected in-batch dedup, got ids=%v stats=%+v", ids, stats)
	}
}

func TestMergeCrises_DropsUnresolvableLocation(t *testing.T) {
	store := newMockStore()
	m := NewMerger(store)
	ctx := context.Background()

	noCoords := quake("reliefweb_99", "")
	noCoords.Latitude = 0
	noCoords.Longitude = 0

	ids, stats, err := m.MergeCrises(ctx, []models.Crisis{noCoords})
	if err != nil {
		t.Fatalf("MergeCrises failed: %v", err)
	}
	if len(ids) != 0 || stats.Dropped != 1 {
		t.Errorf("expected drop, got ids=%v stats=%+v", ids, stats)
	}
	if count, _ := store.CountCrises(ctx); count != 0 {
		t.Errorf("unresolvable record reached the store")
	}
}

func TestMergeCrises_StampsLastUpdatedAndSourceAPI(t *testing.T) {
	frozen := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	defer SetClock(nil)

	store := newMockStore()
	m := NewMerger(store)

	if _, _, err := m.MergeCrises(context.Background(), []models.Crisis{quake("usgs_t1", "JP")}); err != nil {
		t.Fatalf("MergeCrises failed: %v", err)
	}

	got := store.crises[0]
	if !got.LastUpdated.Equal(frozen) {
		t.Errorf("expected last_updated %v, got %v", frozen, got.LastUpdated)
	}
	if got.SourceAPI != "usgs" {
		t.Errorf("expected source_api mirror, got %q", got.SourceAPI)
	}
}

func TestMergeCrises_StoreFailure(t *testing.T) {
	store := newMockStore()
	store.failCrisisInsert = true
	m := NewMerger(store)

	_, _, err := m.MergeCrises(context.Background(), []models.Crisis{quake("usgs_f1", "JP")})
	if err == nil {
		t.Fatal("expected store failure to propagate")
	}
}

func TestMergeCharities_LinksByCountryCode(t *testing.T) {
	store := newMockStore()
	m := NewMerger(store)
	ctx := context.Background()

	ids, _, err := m.MergeCrises(ctx, []models.Crisis{quake("usgs_ke1", "KE"), quake("usgs_ke2", "KE")})
	if err != nil {
		t.Fatalf("MergeCrises failed: %v", err)
	}

	batch := []models.Charity{
		{Name: "Kenya Relief", CountryCode: "KE", Source: "everyorg"},
		{Name: "Global Fund", Source: "opencollective"},
		{Name: "Brazil Aid", CountryCode: "BR", Source: "everyorg"},
	}

	stats, err := m.MergeCharities(ctx, batch)
	if err != nil {
		t.Fatalf("MergeCharities failed: %v", err)
	}
	if stats.Inserted != 3 || stats.Linked != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	byName := map[string]models.Charity{}
	for _, c := range store.charities {
		byName[c.Name] = c
	}

	linked := byName["Kenya Relief"]
	if linked.RelatedCrisisID == nil || *linked.RelatedCrisisID != ids[0] {
		t.Errorf("expected link to first KE crisis %d, got %+v", ids[0], linked.RelatedCrisisID)
	}
	if linked.CrisisID == nil || *linked.CrisisID != ids[0] {
		t.Errorf("expected legacy crisis_id mirror, got %+v", linked.CrisisID)
	}

	if byName["Global Fund"].RelatedCrisisID != nil {
		t.Error("expected charity without country to stay global")
	}
	if byName["Brazil Aid"].RelatedCrisisID != nil {
		t.Error("expected charity without matching crisis to stay global")
	}
}

func TestMergeCharities_StoreFailure(t *testing.T) {
	store := newMockStore()
	store.failCharityInsert = true
	m := NewMerger(store)

	_, err := m.MergeCharities(context.Background(), []models.Charity{{Name: "X"}})
	if err == nil {
		t.Fatal("expected store failure to propagate")
	}
}
