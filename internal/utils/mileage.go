package utils

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var germanPrinter = message.NewPrinter(language.German)

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatMileage keeps the digits of raw and renders them with German
// thousands separators ("150000" -> "150.000").
func FormatMileage(raw string) string {
	digits := strings.TrimLeft(digitsOnly(raw), "0")
	if digits == "" {
		if strings.ContainsFunc(raw, unicode.IsDigit) {
			return "0"
		}
		return ""
	}

	km, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return groupThousands(digits)
	}
	return FormatKilometers(km)
}

func FormatKilometers(km int64) string {
	return germanPrinter.Sprintf("%d", km)
}

// ParseMileage reverses FormatMileage. Empty input parses to zero.
func ParseMileage(formatted string) (int64, error) {
	digits := digitsOnly(formatted)
	if digits == "" {
		return 0, nil
	}
	return strconv.ParseInt(digits, 10, 64)
}

// groupThousands is only reached for values that overflow int64.
func groupThousands(digits string) string {
	var b strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
