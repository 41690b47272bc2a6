package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	postalCodePattern = regexp.MustCompile(`^[0-9]{5}$`)
)

// Major cities per leading postal-code digit. Deliberately coarse: a valid but
// unlisted city simply does not match.
var postalCodeRegions = map[byte][]string{
	'0': {"Dresden", "Leipzig", "Chemnitz", "Erfurt", "Jena", "Gera"},
	'1': {"Berlin", "Potsdam", "Frankfurt (Oder)", "Cottbus"},
	'2': {"Hamburg", "Kiel", "Lübeck", "Rostock", "Schwerin"},
	'3': {"Hannover", "Braunschweig", "Magdeburg", "Wolfsburg"},
	'4': {"Bremen", "Osnabrück", "Oldenburg", "Münster", "Bielefeld"},
	'5': {"Köln", "Bonn", "Düsseldorf", "Aachen", "Essen", "Duisburg"},
	'6': {"Frankfurt am Main", "Darmstadt", "Kassel", "Wiesbaden", "Mainz"},
	'7': {"Stuttgart", "Karlsruhe", "Mannheim", "Heidelberg", "Pforzheim"},
	'8': {"München", "Augsburg", "Nürnberg", "Regensburg", "Ingolstadt"},
	'9': {"Würzburg", "Bamberg", "Bayreuth", "Hof", "Coburg"},
}

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsValidPostalCode accepts German postal codes: exactly five ASCII digits.
func IsValidPostalCode(postalCode string) bool {
	return postalCodePattern.MatchString(postalCode)
}

func IsValidCity(city string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(city)) >= 2
}

func PostalCodeAndCityMatch(postalCode, city string) bool {
	if postalCode == "" || city == "" || !IsValidPostalCode(postalCode) {
		return false
	}

	needle := strings.ToLower(city)
	for _, candidate := range postalCodeRegions[postalCode[0]] {
		candidate = strings.ToLower(candidate)
		if strings.Contains(needle, candidate) || strings.Contains(candidate, needle) {
			return true
		}
	}

	return false
}

func SuggestCitiesForPostalCode(postalCode string) []string {
	if !IsValidPostalCode(postalCode) {
		return []string{}
	}

	cities := postalCodeRegions[postalCode[0]]
	out := make([]string, len(cities))
	copy(out, cities)
	return out
}
