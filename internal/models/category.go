package models

import "strings"

// categoryKeywords maps upstream type keywords to categories. Match order
// matters: the first group containing a substring of the upstream type wins.
var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{CategoryDisaster, []string{"flood", "earthquake", "tsunami", "cyclone", "hurricane", "storm", "landslide", "volcano"}},
	{CategoryClimate, []string{"drought", "fire", "pollution", "heat wave", "cold wave"}},
	{CategoryHealth, []string{"epidemic", "pandemic", "disease"}},
	{CategoryHunger, []string{"food", "famine"}},
	{CategoryConflict, []string{"conflict", "war"}},
}

// CategoryFromType maps an upstream disaster-type string to a Category.
// Unmapped types fall back to Disaster.
func CategoryFromType(upstreamType string) Category {
	lower := strings.ToLower(upstreamType)
	for _, group := range categoryKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.category
			}
		}
	}
	return CategoryDisaster
}

// SeverityFromMagnitude converts a magnitude-like value to a severity,
// linear from the magnitude-4.5 fetch floor, clamped to [0, 10].
func SeverityFromMagnitude(magnitude float64) int {
	severity := int((magnitude - 4) * 2)
	if severity < 0 {
		return 0
	}
	if severity > 10 {
		return 10
	}
	return severity
}
