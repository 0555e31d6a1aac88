package models

type Charity struct {
	ID              int64
	Name            string
	Description     string
	Website         string
	LogoURL         string
	DonationURL     string
	CountryCode     string // ISO-3166 alpha-2, empty when unknown
	Source          string // adapter name, e.g. "everyorg"
	RelatedCrisisID *int64 // nil means global, not tied to any crisis
	CrisisID        *int64 // legacy column, mirrors RelatedCrisisID
}
