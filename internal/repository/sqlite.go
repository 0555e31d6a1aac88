package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/chariot-app/globemap/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS crises (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			category TEXT NOT NULL,
			severity INTEGER,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			country_code TEXT,
			description TEXT,
			source TEXT,
			source_id TEXT UNIQUE,
			source_api TEXT,
			last_updated DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS charities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT,
			website TEXT,
			logo_url TEXT,
			donation_url TEXT,
			related_crisis_id INTEGER REFERENCES crises(id),
			country_code TEXT,
			source TEXT,
			crisis_id INTEGER REFERENCES crises(id)
		);

		CREATE INDEX IF NOT EXISTS idx_crises_country_code ON crises(country_code);
		CREATE INDEX IF NOT EXISTS idx_crises_category ON crises(category);
		CREATE INDEX IF NOT EXISTS idx_charities_country_code ON charities(country_code);
		CREATE INDEX IF NOT EXISTS idx_charities_related_crisis ON charities(related_crisis_id);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) CountCrises(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM crises`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting crises: %w", err)
	}
	return count, nil
}

const crisisColumns = `id, title, category, severity, latitude, longitude, country_code, description, source, source_id, source_api, last_updated`

func (s *SQLiteDB) FindCrisisBySourceID(ctx context.Context, sourceID string) (*models.Crisis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+crisisColumns+` FROM crises WHERE source_id = ?`, sourceID)

	c, err := scanCrisis(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error finding crisis by source_id: %w", err)
	}
	return c, nil
}

func (s *SQLiteDB) ListCrisisCountryCodes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT country_code FROM crises WHERE country_code IS NOT NULL ORDER BY country_code`)
	if err != nil {
		return nil, fmt.Errorf("error listing crisis country codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("error scanning country code: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (s *SQLiteDB) FirstCrisisByCountry(ctx context.Context, countryCode string) (*models.Crisis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+crisisColumns+` FROM crises WHERE country_code = ? ORDER BY id ASC LIMIT 1`, countryCode)

	c, err := scanCrisis(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error finding crisis by country: %w", err)
	}
	return c, nil
}

func (s *SQLiteDB) InsertCrises(ctx context.Context, batch []models.Crisis) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error beginning crisis transaction: %w", err)
	}
	defer tx.Rollback()

	ids := make([]int64, 0, len(batch))
	for _, c := range batch {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO crises(title, category, severity, latitude, longitude, country_code, description, source, source_id, source_api, last_updated)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.Title, string(c.Category), c.Severity, c.Latitude, c.Longitude,
			nullString(c.CountryCode), nullString(c.Description), nullString(c.Source),
			nullString(c.SourceID), nullString(c.SourceAPI), c.LastUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("error inserting crisis %q: %w", c.Title, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("error reading inserted crisis id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing crisis batch: %w", err)
	}
	return ids, nil
}

func (s *SQLiteDB) InsertCharities(ctx context.Context, batch []models.Charity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning charity transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range batch {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO charities(name, description, website, logo_url, donation_url, related_crisis_id, country_code, source, crisis_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.Name, nullString(c.Description), nullString(c.Website), nullString(c.LogoURL),
			nullString(c.DonationURL), c.RelatedCrisisID, nullString(c.CountryCode),
			nullString(c.Source), c.CrisisID,
		)
		if err != nil {
			return fmt.Errorf("error inserting charity %q: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing charity batch: %w", err)
	}
	return nil
}

var sortColumns = map[string]string{
	"severity":     "severity",
	"last_updated": "last_updated",
	"id":           "id",
}

func (s *SQLiteDB) ListCrises(ctx context.Context, f Filter) (CrisisPage, error) {
	var clauses []string
	var params []any

	for _, token := range strings.Fields(f.Query) {
		clauses = append(clauses, "(title LIKE ? OR description LIKE ?)")
		like := "%" + token + "%"
		params = append(params, like, like)
	}
	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		params = append(params, f.Category)
	}

	whereSQL := ""
	if len(clauses) > 0 {
		whereSQL = "WHERE " + strings.Join(clauses, " AND ")
	}

	// Sort column is whitelisted; anything else degrades to severity.
	sortCol, ok := sortColumns[f.Sort]
	if !ok {
		sortCol = "severity"
	}

	page := CrisisPage{Items: []models.Crisis{}, Limit: f.Limit, Offset: f.Offset}

	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM crises %s", whereSQL), params...).Scan(&page.Total)
	if err != nil {
		return CrisisPage{}, fmt.Errorf("error counting filtered crises: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM crises %s ORDER BY %s DESC LIMIT ? OFFSET ?`,
		crisisColumns, whereSQL, sortCol)
	rows, err := s.db.QueryContext(ctx, query, append(params, f.Limit, f.Offset)...)
	if err != nil {
		return CrisisPage{}, fmt.Errorf("error listing crises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCrisis(rows)
		if err != nil {
			return CrisisPage{}, fmt.Errorf("error scanning crisis row: %w", err)
		}
		page.Items = append(page.Items, *c)
	}
	return page, rows.Err()
}

func (s *SQLiteDB) ListCharities(ctx context.Context, crisisID *int64) ([]models.Charity, error) {
	query := `SELECT id, name, description, website, logo_url, donation_url, related_crisis_id, country_code, source, crisis_id FROM charities`
	var params []any
	if crisisID != nil {
		query += ` WHERE related_crisis_id = ?`
		params = append(params, *crisisID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("error listing charities: %w", err)
	}
	defer rows.Close()

	charities := []models.Charity{}
	for rows.Next() {
		var c models.Charity
		var description, website, logoURL, donationURL, countryCode, source sql.NullString
		err := rows.Scan(&c.ID, &c.Name, &description, &website, &logoURL, &donationURL,
			&c.RelatedCrisisID, &countryCode, &source, &c.CrisisID)
		if err != nil {
			return nil, fmt.Errorf("error scanning charity row: %w", err)
		}
		c.Description = description.String
		c.Website = website.String
		c.LogoURL = logoURL.String
		c.DonationURL = donationURL.String
		c.CountryCode = countryCode.String
		c.Source = source.String
		charities = append(charities, c)
	}
	return charities, rows.Err()
}

// Reset clears both tables. Operational use only; steady-state ingestion
// never deletes.
func (s *SQLiteDB) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning reset transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM charities`); err != nil {
		return fmt.Errorf("error clearing charities: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM crises`); err != nil {
		return fmt.Errorf("error clearing crises: %w", err)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCrisis(row rowScanner) (*models.Crisis, error) {
	var c models.Crisis
	var category string
	var severity sql.NullInt64
	var countryCode, description, source, sourceID, sourceAPI sql.NullString

	err := row.Scan(&c.ID, &c.Title, &category, &severity, &c.Latitude, &c.Longitude,
		&countryCode, &description, &source, &sourceID, &sourceAPI, &c.LastUpdated)
	if err != nil {
		return nil, err
	}

	c.Category = models.Category(category)
	c.Severity = int(severity.Int64)
	c.CountryCode = countryCode.String
	c.Description = description.String
	c.Source = source.String
	c.SourceID = sourceID.String
	c.SourceAPI = sourceAPI.String
	return &c, nil
}

// nullString maps the empty string to NULL so that UNIQUE(source_id) treats
// keyless records as distinct rows.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
