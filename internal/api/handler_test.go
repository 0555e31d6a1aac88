package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chariot-app/globemap/internal/models"
	"github.com/chariot-app/globemap/internal/repository"
)

// mockStore implements repository.Store for testing
type mockStore struct {
	crises    []models.Crisis
	charities []models.Charity
	listErr   error
}

func (m *mockStore) CountCrises(ctx context.Context) (int, error) {
	return len(m.crises), nil
}

func (m *mockStore) FindCrisisBySourceID(ctx context.Context, sourceID string) (*models.Crisis, error) {
	for _, cr := range m.crises {
		if cr.SourceID == sourceID {
			return &cr, nil
		}
	}
	return nil, nil
}

func (m *mockStore) ListCrisisCountryCodes(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var codes []string
	for _, cr := range m.crises {
		if cr.CountryCode != "" && !seen[cr.CountryCode] {
			seen[cr.CountryCode] = true
			codes = append(codes, cr.CountryCode)
		}
	}
	return codes, nil
}

func (m *mockStore) FirstCrisisByCountry(ctx context.Context, countryCode string) (*models.Crisis, error) {
	for _, cr := range m.crises {
		if cr.CountryCode == countryCode {
			return &cr, nil
		}
	}
	return nil, nil
}

func (m *mockStore) InsertCrises(ctx context.Context, batch []models.Crisis) ([]int64, error) {
	var ids []int64
	for _, cr := range batch {
		cr.ID = int64(len(m.crises) + 1)
		m.crises = append(m.crises, cr)
		ids = append(ids, cr.ID)
	}
	return ids, nil
}

func (m *mockStore) InsertCharities(ctx context.Context, batch []models.Charity) error {
	m.charities = append(m.charities, batch...)
	return nil
}

func (m *mockStore) ListCrises(ctx context.Context, f repository.Filter) (repository.CrisisPage, error) {
	if m.listErr != nil {
		return repository.CrisisPage{}, m.listErr
	}

	results := make([]models.Crisis, 0, len(m.crises))
	for _, cr := range m.crises {
		if f.Category != "" && string(cr.Category) != f.Category {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(cr.Title), strings.ToLower(f.Query)) {
			continue
		}
		results = append(results, cr)
	}

	if f.Sort == "severity" {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Severity > results[j].Severity
		})
	}

	total := len(results)
	if f.Offset > 0 {
		if f.Offset >= len(results) {
			results = nil
		} else {
			results = results[f.Offset:]
		}
	}
	if f.Limit > 0 && len(results) > f.Limit {
		results = results[:f.Limit]
	}

	return repository.CrisisPage{Total: total, Items: results, Limit: f.Limit, Offset: f.Offset}, nil
}

func (m *mockStore) ListCharities(ctx context.Context, crisisID *int64) ([]models.Charity, error) {
	if crisisID == nil {
		return m.charities, nil
	}
	var out []models.Charity
	for _, ch := range m.charities {
		if ch.RelatedCrisisID != nil && *ch.RelatedCrisisID == *crisisID {
			out = append(out, ch)
		}
	}
	return out, nil
}

func setupTestRouter(store repository.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHandler(store)
	handler.RegisterRoutes(router)
	return router
}

func sampleCrises() []models.Crisis {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []models.Crisis{
		{ID: 1, Title: "Magnitude 6.1 Earthquake - Honshu, Japan", Category: models.CategoryDisaster, Severity: 4, Latitude: 36.2, Longitude: 138.2, CountryCode: "JP", Source: "usgs", SourceID: "usgs_aa1", LastUpdated: now},
		{ID: 2, Title: "Drought in Kenya", Category: models.CategoryClimate, Severity: 5, Latitude: -0.02, Longitude: 37.9, CountryCode: "KE", Source: "reliefweb", SourceID: "reliefweb_77", LastUpdated: now},
		{ID: 3, Title: "Cholera outbreak in Yemen", Category: models.CategoryHealth, Severity: 7, Latitude: 15.5, Longitude: 48.5, CountryCode: "YE", Source: "reliefweb", SourceID: "reliefweb_78", LastUpdated: now},
	}
}

func TestGetCrises(t *testing.T) {
	store := &mockStore{crises: sampleCrises()}
	router := setupTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/crises", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var page crisisPageDTO
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if page.Total != 3 {
		t.Errorf("expected total 3, got %d", page.Total)
	}
	if len(page.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(page.Items))
	}
	// Default sort is severity descending
	if page.Items[0].ID != 3 {
		t.Errorf("expected most severe crisis first, got id %d", page.Items[0].ID)
	}
	if page.Limit != 20 {
		t.Errorf("expected default limit 20, got %d", page.Limit)
	}
}

func TestGetCrisesCategoryFilter(t *testing.T) {
	store := &mockStore{crises: sampleCrises()}
	router := setupTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/crises?category=Health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var page crisisPageDTO
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("expected total 1, got %d", page.Total)
	}
	if page.Items[0].Category != "Health" {
		t.Errorf("expected Health crisis, got %s", page.Items[0].Category)
	}
}

func TestGetCrisesSearch(t *testing.T) {
	store := &mockStore{crises: sampleCrises()}
	router := setupTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/crises?q=kenya", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var page crisisPageDTO
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("expected total 1, got %d", page.Total)
	}
	if page.Items[0].CountryCode != "KE" {
		t.Errorf("expected Kenya crisis, got %s", page.Items[0].CountryCode)
	}
}

func TestGetCrisesPagination(t *testing.T) {
	store := &mockStore{crises: sampleCrises()}
	router := setupTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/crises?limit=1&offset=1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var page crisisPageDTO
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if page.Total != 3 {
		t.Errorf("expected total to ignore paging, got %d", page.Total)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(page.Items))
	}
	if page.Limit != 1 || page.Offset != 1 {
		t.Errorf("expected limit=1 offset=1 echoed, got limit=%d offset=%d", page.Limit, page.Offset)
	}
}

func TestGetCrisesInvalidParamsIgnored(t *testing.T) {
	store := &mockStore{crises: sampleCrises()}
	router := setupTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/crises?limit=abc&offset=-5&sort=;drop", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var page crisisPageDTO
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if page.Limit != 20 {
		t.Errorf("expected default limit on bad param, got %d", page.Limit)
	}
	if page.Offset != 0 {
		t.Errorf("expected offset 0 on bad param, got %d", page.Offset)
	}
}

func TestGetCrisesStoreError(t *testing.T) {
	store := &mockStore{listErr: context.DeadlineExceeded}
	router := setupTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/crises", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
}

func TestGetCrisesGeoJSON(t *testing.T) {
	store := &mockStore{crises: sampleCrises()}
	router := setupTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/crises/geojson", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "geo+json") {
		t.Errorf("expected geo+json content type, got %s", ct)
	}

	var fc FeatureCollection
	if err := json.Unmarshal(w.Body.Bytes(), &fc); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if fc.Type != "FeatureCollection" {
		t.Errorf("expected FeatureCollection, got %s", fc.Type)
	}
	if len(fc.Features) != 3 {
		t.Fatalf("expected 3 features, got %d", len(fc.Features))
	}
	// GeoJSON ordering is [longitude, latitude]
	f := fc.Features[0]
	if f.Geometry.Type != "Point" {
		t.Errorf("expected Point geometry, got %s", f.Geometry.Type)
	}
	if len(f.Geometry.Coordinates) != 2 {
		t.Fatalf("expected 2 coordinates, got %d", len(f.Geometry.Coordinates))
	}
}

func TestGetCharities(t *testing.T) {
	one := int64(1)
	store := &mockStore{charities: []models.Charity{
		{ID: 10, Name: "Relief Now", Source: "everyorg", CountryCode: "KE", RelatedCrisisID: &one, CrisisID: &one},
		{ID: 11, Name: "Global Aid", Source: "opencollective"},
	}}
	router := setupTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/charities", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var charities []charityDTO
	if err := json.Unmarshal(w.Body.Bytes(), &charities); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(charities) != 2 {
		t.Fatalf("expected 2 charities, got %d", len(charities))
	}
}

func TestGetCharitiesByCrisis(t *testing.T) {
	one := int64(1)
	store := &mockStore{charities: []models.Charity{
		{ID: 10, Name: "Relief Now", RelatedCrisisID: &one},
		{ID: 11, Name: "Global Aid"},
	}}
	router := setupTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/charities?crisis_id=1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var charities []charityDTO
	if err := json.Unmarshal(w.Body.Bytes(), &charities); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(charities) != 1 {
		t.Fatalf("expected 1 charity, got %d", len(charities))
	}
	if charities[0].Name != "Relief Now" {
		t.Errorf("expected Relief Now, got %s", charities[0].Name)
	}
}

func TestGetCharitiesInvalidCrisisID(t *testing.T) {
	store := &mockStore{}
	router := setupTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/charities?crisis_id=abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	store := &mockStore{}
	router := setupTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(1, 1))
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("expected second request limited, got %d", second.Code)
	}
}
