package utils

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"portal/internal/models"
)

// Demo data sets for filling the customer form.
var mockDataSets = struct {
	Cities          []string
	Streets         []string
	Makes           []string
	Models          map[string][]string
	MaritalStatuses []models.MaritalStatus
	FirstNames      []string
	LastNames       []string
	EmailDomains    []string
	PlateCities     []string
	Insurers        []string
}{
	Cities:  []string{"München", "Berlin", "Hamburg", "Frankfurt", "Köln", "Stuttgart", "Düsseldorf"},
	Streets: []string{"Hauptstraße", "Bahnhofstraße", "Schulstraße", "Gartenweg", "Kirchplatz", "Marktplatz"},
	Makes:   []string{"BMW", "Mercedes", "Audi", "VW", "Porsche", "Opel"},
	Models: map[string][]string{
		"BMW":      {"320i", "520d", "X3", "X5", "M3"},
		"Mercedes": {"C200", "E350", "GLC", "A200", "S500"},
		"Audi":     {"A4", "A6", "Q5", "RS6", "e-tron"},
		"VW":       {"Golf", "Passat", "Tiguan", "ID.4", "Polo"},
		"Porsche":  {"911", "Cayenne", "Macan", "Taycan", "Panamera"},
		"Opel":     {"Corsa", "Astra", "Insignia", "Mokka", "Grandland"},
	},
	MaritalStatuses: models.MaritalStatuses,
	FirstNames:      []string{"Max", "Anna", "Paul", "Maria", "Thomas", "Laura", "Michael", "Sarah"},
	LastNames:       []string{"Müller", "Schmidt", "Schneider", "Fischer", "Weber", "Meyer", "Wagner"},
	EmailDomains:    []string{"gmail.com", "yahoo.de", "outlook.com", "web.de", "gmx.de", "t-online.de"},
	PlateCities:     []string{"M", "B", "F", "K", "S", "H"},
	Insurers:        []string{"Allianz", "HUK-COBURG", "AXA", "ERGO", "DEVK", "R+V"},
}

const (
	plateLetters = "ABCDEFGHJKLMNPRSTUVWXYZ"
	// VIN alphabet without I, O and Q.
	vinAlphabet = "0123456789ABCDEFGHJKLMNPRSTUVWXYZ"
	vinLength   = 17
)

// ModelsForMake returns the model list the generator draws from.
func ModelsForMake(vehicleMake string) []string {
	return mockDataSets.Models[vehicleMake]
}

func randomElement[T any](items []T) T {
	return items[rand.IntN(len(items))]
}

// randomNumber is inclusive on both ends.
func randomNumber(lo, hi int64) int64 {
	return lo + rand.Int64N(hi-lo+1)
}

func randomDate(start, end time.Time) string {
	span := end.Sub(start)
	if span <= 0 {
		return ToStorageDate(start)
	}
	return ToStorageDate(start.Add(time.Duration(rand.Int64N(int64(span)))))
}

func generateEmail(firstName, lastName string) string {
	first := strings.ToLower(firstName)
	last := strings.ToLower(lastName)
	formats := []string{
		first + "." + last,
		fmt.Sprintf("%s%d", first, randomNumber(1, 99)),
		last + "." + first,
		string([]rune(first)[:1]) + last,
		fmt.Sprintf("%s%d", last, randomNumber(1, 999)),
	}
	return randomElement(formats) + "@" + randomElement(mockDataSets.EmailDomains)
}

// generateIBAN is shaped like a German IBAN but carries no valid checksum.
func generateIBAN() string {
	bankCode := randomNumber(10000000, 99999999)
	accountNumber := randomNumber(1000000000, 9999999999)
	return FormatIBAN(fmt.Sprintf("DE%d%d", bankCode, accountNumber))
}

func generateLicensePlate() string {
	return fmt.Sprintf("%s %c%c %d",
		randomElement(mockDataSets.PlateCities),
		plateLetters[rand.IntN(len(plateLetters))],
		plateLetters[rand.IntN(len(plateLetters))],
		randomNumber(1, 9999),
	)
}

func generateHsnTsn() string {
	return fmt.Sprintf("%04d %d", randomNumber(1000, 9999), randomNumber(100, 999))
}

func generateVIN() string {
	b := make([]byte, vinLength)
	for i := range b {
		b[i] = vinAlphabet[rand.IntN(len(vinAlphabet))]
	}
	return string(b)
}

func generatePhoneNumber() string {
	formats := []string{
		fmt.Sprintf("+49 %d %d", randomNumber(100, 999), randomNumber(1000000, 9999999)),
		fmt.Sprintf("0%d %d", randomNumber(100, 999), randomNumber(100000, 9999999)),
		fmt.Sprintf("0%d %d", randomNumber(1000, 9999), randomNumber(10000, 999999)),
	}
	return randomElement(formats)
}

// GenerateMockData returns a fully populated form for demos.
func GenerateMockData() models.FormData {
	return generateMockDataAt(time.Now())
}

func generateMockDataAt(now time.Time) models.FormData {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	yearStart := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	nextYearStart := yearStart.AddDate(1, 0, 0)
	licenseStart := yearStart.AddDate(-30, 0, 0)

	vehicleMake := randomElement(mockDataSets.Makes)
	firstName := randomElement(mockDataSets.FirstNames)
	lastName := randomElement(mockDataSets.LastNames)

	return models.FormData{
		VehicleData: models.VehicleData{
			Make:                   vehicleMake,
			Model:                  randomElement(mockDataSets.Models[vehicleMake]),
			Year:                   today.Year(),
			VIN:                    generateVIN(),
			HsnTsn:                 generateHsnTsn(),
			LicensePlate:           generateLicensePlate(),
			FirstRegistration:      randomDate(yearStart, today),
			FirstRegistrationOwner: randomDate(yearStart, today),
			CurrentMileage:         FormatKilometers(randomNumber(1000, 150000)),
		},
		DriverInfo: models.DriverInfo{
			// Strictly between 70 and 18 years before today.
			DOB:              randomDate(today.AddDate(-70, 0, 1), today.AddDate(-18, 0, 0)),
			LicenseIssueDate: randomDate(licenseStart, today),
			MaritalStatus:    randomElement(mockDataSets.MaritalStatuses),
		},
		InsuranceInfo: models.InsuranceInfo{
			StartDate:               randomDate(today, nextYearStart),
			PreviousInsurance:       randomElement(mockDataSets.Insurers),
			PreviousInsuranceNumber: fmt.Sprintf("VS-%d", randomNumber(100000, 999999)),
		},
		PersonalData: models.PersonalData{
			Email:       generateEmail(firstName, lastName),
			FirstName:   firstName,
			LastName:    lastName,
			Street:      randomElement(mockDataSets.Streets),
			HouseNumber: fmt.Sprint(randomNumber(1, 150)),
			PostalCode:  fmt.Sprint(randomNumber(10000, 99999)),
			City:        randomElement(mockDataSets.Cities),
			PhoneNumber: generatePhoneNumber(),
		},
		PaymentInfo: models.PaymentInfo{
			IBAN: generateIBAN(),
		},
	}
}

// GenerateMockCustomers returns n independent mock forms.
func GenerateMockCustomers(n int) []models.FormData {
	out := make([]models.FormData, 0, n)
	for range n {
		out = append(out, GenerateMockData())
	}
	return out
}
