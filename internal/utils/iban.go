package utils

import (
	"strings"
	"unicode"
)

const ibanGroupSize = 4

// FormatIBAN drops everything but letters and digits and regroups the rest in
// blocks of four from the left. Formatting a formatted IBAN is a no-op.
func FormatIBAN(raw string) string {
	var compact strings.Builder
	for _, r := range raw {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			compact.WriteRune(unicode.ToUpper(r))
		}
	}

	s := compact.String()
	if s == "" {
		return ""
	}

	var grouped strings.Builder
	grouped.Grow(len(s) + len(s)/ibanGroupSize)
	for i := 0; i < len(s); i++ {
		if i > 0 && i%ibanGroupSize == 0 {
			grouped.WriteByte(' ')
		}
		grouped.WriteByte(s[i])
	}

	return grouped.String()
}

// CompactIBAN returns the IBAN without grouping spaces.
func CompactIBAN(iban string) string {
	return strings.ReplaceAll(FormatIBAN(iban), " ", "")
}
