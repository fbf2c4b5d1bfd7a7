package scoring

import (
	"strings"

	"custodia/pkg/platform/textnorm"
)

// CountryTier classifies a transfer destination.
type CountryTier string

const (
	CountryDomestic         CountryTier = "domestic"
	CountryEU               CountryTier = "eu"
	CountryAdequacy         CountryTier = "adequacy"
	CountryUSA              CountryTier = "usa"
	CountrySimilarFramework CountryTier = "similar_framework"
	CountryNoFramework      CountryTier = "no_framework"
)

func defaultCountries() Countries {
	return Countries{
		Domestic: "CL",
		// EU member states plus the EEA states bound by the same regime.
		EU: []string{
			"AT", "BE", "BG", "HR", "CY", "CZ", "DK", "EE", "FI", "FR", "DE", "GR", "HU", "IE",
			"IT", "LV", "LT", "LU", "MT", "NL", "PL", "PT", "RO", "SK", "SI", "ES", "SE",
			"IS", "LI", "NO",
		},
		Adequacy:         []string{"AD", "AR", "CA", "FO", "GG", "IL", "IM", "JP", "JE", "NZ", "KR", "CH", "GB", "UY"},
		USA:              []string{"US"},
		SimilarFramework: []string{"BR", "MX", "CO", "PE", "CR", "PA", "EC", "SG", "AU", "ZA", "TH", "PH", "MY", "HK"},
		Aliases: map[string]string{
			"chile":          "CL",
			"estados unidos": "US",
			"eeuu":           "US",
			"ee.uu.":         "US",
			"usa":            "US",
			"united states":  "US",
			"espana":         "ES",
			"spain":          "ES",
			"alemania":       "DE",
			"germany":        "DE",
			"francia":        "FR",
			"france":         "FR",
			"irlanda":        "IE",
			"ireland":        "IE",
			"paises bajos":   "NL",
			"netherlands":    "NL",
			"italia":         "IT",
			"italy":          "IT",
			"portugal":       "PT",
			"reino unido":    "GB",
			"united kingdom": "GB",
			"uk":             "GB",
			"suiza":          "CH",
			"switzerland":    "CH",
			"argentina":      "AR",
			"uruguay":        "UY",
			"canada":         "CA",
			"japon":          "JP",
			"japan":          "JP",
			"brasil":         "BR",
			"brazil":         "BR",
			"mexico":         "MX",
			"colombia":       "CO",
			"peru":           "PE",
			"china":          "CN",
			"india":          "IN",
			"rusia":          "RU",
			"russia":         "RU",
		},
	}
}

// countryIndex is the lookup form of Countries, built once per scorer.
type countryIndex struct {
	domestic string
	tiers    map[string]CountryTier
	aliases  map[string]string
}

func newCountryIndex(c Countries) *countryIndex {
	idx := &countryIndex{
		domestic: strings.ToUpper(strings.TrimSpace(c.Domestic)),
		tiers:    make(map[string]CountryTier),
		aliases:  make(map[string]string, len(c.Aliases)),
	}
	add := func(codes []string, tier CountryTier) {
		for _, code := range codes {
			idx.tiers[strings.ToUpper(strings.TrimSpace(code))] = tier
		}
	}
	add(c.EU, CountryEU)
	add(c.Adequacy, CountryAdequacy)
	add(c.USA, CountryUSA)
	add(c.SimilarFramework, CountrySimilarFramework)
	for name, code := range c.Aliases {
		idx.aliases[textnorm.Fold(strings.TrimSpace(name))] = strings.ToUpper(code)
	}
	return idx
}

// code resolves a country name or code to an upper-case alpha-2 code.
func (idx *countryIndex) code(country string) string {
	trimmed := strings.TrimSpace(country)
	if trimmed == "" {
		return ""
	}
	if code, ok := idx.aliases[textnorm.Fold(trimmed)]; ok {
		return code
	}
	return strings.ToUpper(trimmed)
}

// classify returns the destination tier. Unknown and empty destinations are
// treated as having no data-protection framework.
func (idx *countryIndex) classify(country string) CountryTier {
	code := idx.code(country)
	if code == "" {
		return CountryNoFramework
	}
	if code == idx.domestic {
		return CountryDomestic
	}
	if tier, ok := idx.tiers[code]; ok {
		return tier
	}
	return CountryNoFramework
}
