package utils

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	vinShape     = regexp.MustCompile(`^[0-9A-HJ-NPR-Z]{17}$`)
	hsnTsnShape  = regexp.MustCompile(`^[0-9]{4} [0-9]{3}$`)
	plateShape   = regexp.MustCompile(`^[MBFKSH] [A-HJ-NPR-Z]{2} [0-9]{1,4}$`)
	ibanShape    = regexp.MustCompile(`^DE[0-9]{18}$`)
	mileageShape = regexp.MustCompile(`^[0-9]{1,3}(\.[0-9]{3})*$`)
)

func TestGenerateMockData_ModelMatchesMake(t *testing.T) {
	for i := 0; i < 100; i++ {
		data := GenerateMockData()
		assert.Contains(t, ModelsForMake(data.VehicleData.Make), data.VehicleData.Model,
			"make %s", data.VehicleData.Make)
	}
}

func TestGenerateMockData_Shapes(t *testing.T) {
	for i := 0; i < 50; i++ {
		data := GenerateMockData()

		assert.Regexp(t, vinShape, data.VehicleData.VIN)
		assert.Regexp(t, hsnTsnShape, data.VehicleData.HsnTsn)
		assert.Regexp(t, plateShape, data.VehicleData.LicensePlate)
		assert.Regexp(t, mileageShape, data.VehicleData.CurrentMileage)
		assert.Regexp(t, ibanShape, CompactIBAN(data.PaymentInfo.IBAN))
		assert.Equal(t, FormatIBAN(data.PaymentInfo.IBAN), data.PaymentInfo.IBAN)

		assert.True(t, IsValidEmail(data.PersonalData.Email), data.PersonalData.Email)
		assert.True(t, IsValidPostalCode(data.PersonalData.PostalCode), data.PersonalData.PostalCode)
		assert.NotEmpty(t, strings.TrimSpace(data.PersonalData.LastName))
		assert.Contains(t, []string{"Ledig", "Verheiratet", "Geschieden"}, string(data.DriverInfo.MaritalStatus))

		assert.False(t, data.EditedByCustomer)
		assert.Empty(t, data.GUID)

		km, err := ParseMileage(data.VehicleData.CurrentMileage)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, km, int64(1000))
		assert.LessOrEqual(t, km, int64(150000))
	}
}

func TestGenerateMockData_DateWindows(t *testing.T) {
	now := time.Date(2026, time.October, 15, 9, 30, 0, 0, time.UTC)
	today := time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 200; i++ {
		data := generateMockDataAt(now)

		dob, ok := ParseStorageDate(data.DriverInfo.DOB)
		require.True(t, ok, data.DriverInfo.DOB)
		assert.True(t, dob.After(today.AddDate(-70, 0, 0)), "dob %s too old", data.DriverInfo.DOB)
		assert.False(t, dob.After(today.AddDate(-18, 0, 0)), "dob %s too young", data.DriverInfo.DOB)

		start, ok := ParseStorageDate(data.InsuranceInfo.StartDate)
		require.True(t, ok)
		assert.False(t, start.Before(today))
		assert.True(t, start.Before(time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)))

		reg, ok := ParseStorageDate(data.VehicleData.FirstRegistration)
		require.True(t, ok)
		assert.Equal(t, 2026, reg.Year())

		assert.Equal(t, 2026, data.VehicleData.Year)
	}
}

func TestGenerateMockData_Independent(t *testing.T) {
	seen := map[string]bool{}
	for _, data := range GenerateMockCustomers(20) {
		seen[data.VehicleData.VIN] = true
	}
	// 17 random characters from 33 symbols: collisions are practically impossible.
	assert.Len(t, seen, 20)
}

func TestGenerateMockCustomers_Count(t *testing.T) {
	assert.Len(t, GenerateMockCustomers(0), 0)
	assert.Len(t, GenerateMockCustomers(7), 7)
}
