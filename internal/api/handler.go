package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chariot-app/globemap/internal/models"
	"github.com/chariot-app/globemap/internal/repository"
)

// Handler serves the read API. Records are created only by the ingestion
// pipeline; every route here is a query.
type Handler struct {
	repo repository.Store
}

func NewHandler(repo repository.Store) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/crises", h.getCrises)
	r.GET("/api/crises/geojson", h.getCrisesGeoJSON)
	r.GET("/api/charities", h.getCharities)
	r.GET("/health", h.health)
}

type crisisDTO struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Severity    int       `json:"severity"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	CountryCode string    `json:"country_code,omitempty"`
	Description string    `json:"description,omitempty"`
	Source      string    `json:"source,omitempty"`
	SourceID    string    `json:"source_id,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

type crisisPageDTO struct {
	Total  int         `json:"total"`
	Items  []crisisDTO `json:"items"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

type charityDTO struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Website         string `json:"website,omitempty"`
	LogoURL         string `json:"logo_url,omitempty"`
	DonationURL     string `json:"donation_url,omitempty"`
	CountryCode     string `json:"country_code,omitempty"`
	Source          string `json:"source,omitempty"`
	RelatedCrisisID *int64 `json:"related_crisis_id,omitempty"`
}

func (h *Handler) getCrises(c *gin.Context) {
	filter := repository.Filter{
		Sort:  "severity",
		Limit: 20, // Default to 20 crises if limit param not supplied
	}

	filter.Query = c.Query("q")
	if cat := c.Query("category"); cat != "" {
		filter.Category = cat
	}
	if s := c.Query("sort"); s == "severity" || s == "last_updated" || s == "id" {
		filter.Sort = s
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 200 {
			filter.Limit = lim
		}
	}
	if o := c.Query("offset"); o != "" {
		if off, err := strconv.Atoi(o); err == nil && off >= 0 {
			filter.Offset = off
		}
	}

	page, err := h.repo.ListCrises(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch crises",
		})
		return
	}

	out := crisisPageDTO{
		Total:  page.Total,
		Items:  make([]crisisDTO, 0, len(page.Items)),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	for _, item := range page.Items {
		out.Items = append(out.Items, toCrisisDTO(item))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) getCrisesGeoJSON(c *gin.Context) {
	filter := repository.Filter{
		Sort:  "severity",
		Limit: 500,
	}
	if cat := c.Query("category"); cat != "" {
		filter.Category = cat
	}

	page, err := h.repo.ListCrises(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch crises",
		})
		return
	}

	fc := toGeoJSON(page.Items)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) getCharities(c *gin.Context) {
	var crisisID *int64
	if raw := c.Query("crisis_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid crisis_id"})
			return
		}
		crisisID = &id
	}

	charities, err := h.repo.ListCharities(c.Request.Context(), crisisID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch charities",
		})
		return
	}

	out := make([]charityDTO, 0, len(charities))
	for _, ch := range charities {
		out = append(out, charityDTO{
			ID:              ch.ID,
			Name:            ch.Name,
			Description:     ch.Description,
			Website:         ch.Website,
			LogoURL:         ch.LogoURL,
			DonationURL:     ch.DonationURL,
			CountryCode:     ch.CountryCode,
			Source:          ch.Source,
			RelatedCrisisID: ch.RelatedCrisisID,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func toCrisisDTO(m models.Crisis) crisisDTO {
	return crisisDTO{
		ID:          m.ID,
		Title:       m.Title,
		Category:    string(m.Category),
		Severity:    m.Severity,
		Latitude:    m.Latitude,
		Longitude:   m.Longitude,
		CountryCode: m.CountryCode,
		Description: m.Description,
		Source:      m.Source,
		SourceID:    m.SourceID,
		LastUpdated: m.LastUpdated,
	}
}
