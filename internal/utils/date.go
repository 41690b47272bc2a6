package utils

import (
	"fmt"
	"strings"
	"time"
)

type DateFormat string

const (
	FormatStorageDate  DateFormat = "2006-01-02"
	FormatDisplayDate  DateFormat = "02.01.2006"
	FormatRFC3339      DateFormat = "2006-01-02T15:04:05Z07:00"
	FormatEuropeanDate DateFormat = "02/01/2006"
	FormatDashDate     DateFormat = "02-01-2006"
	FormatShortDotDate DateFormat = "2.1.2006"
)

// DateValidator recognises the date spellings agents paste into the form and
// converts them to the storage format.
type DateValidator struct {
	supportedFormats []DateFormat
}

type ValidationResult struct {
	IsValid        bool
	DetectedFormat DateFormat
	ParsedTime     time.Time
	StandardFormat string
	OriginalValue  string
}

func NewDateValidator() *DateValidator {
	return &DateValidator{
		supportedFormats: []DateFormat{
			FormatStorageDate,
			FormatDisplayDate,
			FormatRFC3339,
			FormatEuropeanDate,
			FormatDashDate,
			FormatShortDotDate,
		},
	}
}

func (dv *DateValidator) ValidateAndConvert(input string) ValidationResult {
	result := ValidationResult{OriginalValue: input}

	input = strings.TrimSpace(input)
	if input == "" {
		return result
	}

	for _, format := range dv.supportedFormats {
		parsedTime, err := time.Parse(string(format), input)
		if err != nil {
			continue
		}
		result.IsValid = true
		result.DetectedFormat = format
		result.ParsedTime = parsedTime
		result.StandardFormat = parsedTime.Format(string(FormatStorageDate))
		return result
	}

	return result
}

var defaultDateValidator = NewDateValidator()

// NormalizeDate converts any supported spelling to YYYY-MM-DD. Empty stays
// empty; unrecognised input is returned unchanged with ok=false.
func NormalizeDate(input string) (string, bool) {
	if strings.TrimSpace(input) == "" {
		return "", true
	}
	result := defaultDateValidator.ValidateAndConvert(input)
	if !result.IsValid {
		return input, false
	}
	return result.StandardFormat, true
}

// ParseStorageDate returns false for "no date selected".
func ParseStorageDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(string(FormatStorageDate), value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func ToStorageDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(string(FormatStorageDate))
}

// StorageDateToDisplay turns "2024-03-01" into "01.03.2024".
func StorageDateToDisplay(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	t, err := time.Parse(string(FormatStorageDate), value)
	if err != nil {
		return "", fmt.Errorf("invalid storage date %q: %w", value, err)
	}
	return t.Format(string(FormatDisplayDate)), nil
}

// DisplayDateToStorage turns "01.03.2024" into "2024-03-01".
func DisplayDateToStorage(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	for _, format := range []DateFormat{FormatDisplayDate, FormatShortDotDate} {
		if t, err := time.Parse(string(format), value); err == nil {
			return t.Format(string(FormatStorageDate)), nil
		}
	}
	return "", fmt.Errorf("invalid display date %q", value)
}
