package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// countryAliases maps case-folded synonyms and ISO codes to display names.
var countryAliases = map[string]string{
	"austria":     "Austria",
	"at":          "Austria",
	"aut":         "Austria",
	"österreich":  "Austria",
	"osterreich":  "Austria",
	"oesterreich": "Austria",

	"switzerland": "Switzerland",
	"ch":          "Switzerland",
	"che":         "Switzerland",
	"schweiz":     "Switzerland",
	"suisse":      "Switzerland",
	"svizzera":    "Switzerland",

	"italy":  "Italy",
	"it":     "Italy",
	"ita":    "Italy",
	"italia": "Italy",

	"france": "France",
	"fr":     "France",
	"fra":    "France",

	"germany":     "Germany",
	"de":          "Germany",
	"deu":         "Germany",
	"deutschland": "Germany",

	"slovenia":  "Slovenia",
	"si":        "Slovenia",
	"svn":       "Slovenia",
	"slovenija": "Slovenia",
}

// CanonicalCountry folds a country string to its display name.
// Unrecognized values are returned trimmed, with inner whitespace collapsed.
func CanonicalCountry(value string) string {
	value = collapseSpaces(value)
	if value == "" {
		return ""
	}
	if name, ok := countryAliases[foldKey(value)]; ok {
		return name
	}
	return value
}

// NormalizeRegion trims a region name. A blank region is returned as "".
func NormalizeRegion(value string) string {
	return collapseSpaces(value)
}

// NormalizeObservations canonicalizes region and country on every observation in place.
func NormalizeObservations(obs []Observation) {
	for i := range obs {
		obs[i].Region = NormalizeRegion(obs[i].Region)
		obs[i].Country = CanonicalCountry(obs[i].Country)
	}
}

// SameName compares two names the way filters do: case-folded, whitespace-insensitive.
func SameName(a, b string) bool {
	return foldKey(collapseSpaces(a)) == foldKey(collapseSpaces(b))
}

func foldKey(s string) string {
	// Casers are stateful and must not be shared between goroutines.
	return cases.Fold().String(s)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
