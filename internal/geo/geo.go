// Package geo provides static country-level location lookups: centroid
// coordinates, ISO code conversion, and place-name matching. Everything here
// is a pure table lookup; there is no network geocoding.
package geo

import "strings"

// centroids holds approximate geographic centers for a curated set of
// countries, keyed by ISO-3166 alpha-2 code.
var centroids = map[string][2]float64{
	"US": {37.0902, -95.7129},
	"GB": {55.3781, -3.4360},
	"CA": {56.1304, -106.3468},
	"AU": {-25.2744, 133.7751},
	"DE": {51.1657, 10.4515},
	"FR": {46.2276, 2.2137},
	"IT": {41.8719, 12.5674},
	"ES": {40.4637, -3.7492},
	"JP": {36.2048, 138.2529},
	"CN": {35.8617, 104.1954},
	"IN": {20.5937, 78.9629},
	"BR": {-14.2350, -51.9253},
	"MX": {23.6345, -102.5528},
	"RU": {61.5240, 105.3188},
	"TR": {38.9637, 35.2433},
	"ZA": {-30.5595, 22.9375},
	"KR": {35.9078, 127.7669},
	"ID": {-0.7893, 113.9213},
	"TH": {15.8700, 100.9925},
	"VN": {14.0583, 108.2772},
	"PH": {12.8797, 121.7740},
	"EG": {26.8206, 30.8025},
	"NG": {9.0820, 8.6753},
	"KE": {-0.0236, 37.9062},
	"ET": {9.1450, 40.4897},
	"PK": {30.3753, 69.3451},
	"BD": {23.6850, 90.3563},
	"UA": {48.3794, 31.1656},
	"PL": {51.9194, 19.1451},
	"AR": {-38.4161, -63.6167},
}

// CountryCentroid returns the approximate center of a country. ok is false
// for codes outside the curated set.
func CountryCentroid(countryCode string) (lat, lon float64, ok bool) {
	c, ok := centroids[strings.ToUpper(countryCode)]
	if !ok {
		return 0, 0, false
	}
	return c[0], c[1], true
}

var iso3ToISO2 = map[string]string{
	"USA": "US", "GBR": "GB", "CAN": "CA", "AUS": "AU", "DEU": "DE",
	"FRA": "FR", "ITA": "IT", "ESP": "ES", "JPN": "JP", "CHN": "CN",
	"IND": "IN", "BRA": "BR", "MEX": "MX", "RUS": "RU", "TUR": "TR",
	"ZAF": "ZA", "KOR": "KR", "IDN": "ID", "THA": "TH", "VNM": "VN",
	"PHL": "PH", "EGY": "EG", "NGA": "NG", "KEN": "KE", "ETH": "ET",
	"PAK": "PK", "BGD": "BD", "UKR": "UA", "POL": "PL", "ARG": "AR",
}

// ISO3ToISO2 converts a 3-letter country code to its 2-letter form.
// Unmapped codes fall back to the first two characters, which is a known
// best-effort approximation (e.g. "NPL" -> "NP" happens to be right,
// "PRT" -> "PR" is not).
func ISO3ToISO2(iso3 string) string {
	if iso3 == "" {
		return ""
	}
	upper := strings.ToUpper(iso3)
	if iso2, ok := iso3ToISO2[upper]; ok {
		return iso2
	}
	if len(upper) >= 2 {
		return upper[:2]
	}
	return upper
}

// placeCountries is an ordered substring matcher for free-text place strings
// like the USGS "place" field ("120km SSW of Tokyo, Japan"). US states cover
// feeds that never name the country. First match wins.
var placeCountries = []struct {
	name string
	code string
}{
	{"Japan", "JP"},
	{"Indonesia", "ID"},
	{"Philippines", "PH"},
	{"Chile", "CL"},
	{"Mexico", "MX"},
	{"Turkey", "TR"},
	{"Iran", "IR"},
	{"Italy", "IT"},
	{"Greece", "GR"},
	{"New Zealand", "NZ"},
	{"Alaska", "US"},
	{"California", "US"},
	{"Nevada", "US"},
	{"Hawaii", "US"},
	{"Puerto Rico", "US"},
}

// CountryFromPlace extracts a country code from a free-text place string.
// Returns "" when no entry of the fixed list matches.
func CountryFromPlace(place string) string {
	for _, pc := range placeCountries {
		if strings.Contains(place, pc.name) {
			return pc.code
		}
	}
	return ""
}
