package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"portal/internal/logger"
	"portal/internal/models"
)

var customerCSVHeaders = []string{
	"customerId",
	"lastName",
	"firstName",
	"email",
	"phoneNumber",
	"street",
	"houseNumber",
	"postalCode",
	"city",
	"dob",
	"licenseIssueDate",
	"maritalStatus",
	"make",
	"model",
	"year",
	"vin",
	"hsnTsn",
	"licensePlate",
	"firstRegistration",
	"firstRegistrationOwner",
	"currentMileage",
	"startDate",
	"previousInsurance",
	"previousInsuranceNumber",
	"iban",
	"guid",
	"editedByCustomer",
}

// CustomerCSVWriter streams customer records as CSV. Dates are written in
// display form (DD.MM.YYYY).
type CustomerCSVWriter struct {
	writer *csv.Writer
	rows   int
	log    logger.Logger
}

func NewCustomerCSVWriter(w io.Writer) *CustomerCSVWriter {
	writer := csv.NewWriter(w)
	writer.Comma = ';'
	return &CustomerCSVWriter{
		writer: writer,
		log:    logger.New("utils").File("customer_csv"),
	}
}

func CustomerCSVHeaders() []string {
	headers := make([]string, len(customerCSVHeaders))
	copy(headers, customerCSVHeaders)
	return headers
}

func (w *CustomerCSVWriter) WriteAll(records []models.CustomerRecord) error {
	log := w.log.Function("WriteAll")

	if err := w.writer.Write(customerCSVHeaders); err != nil {
		return log.Err("failed to write headers", err)
	}

	for i, record := range records {
		if err := w.writer.Write(customerCSVRow(record)); err != nil {
			return log.Err("failed to write row", err, "row", i, "customerID", record.CustomerID)
		}
		w.rows++
	}

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return log.Err("failed to flush csv", err)
	}

	log.Debug("customer csv written", "rows", w.rows)
	return nil
}

func (w *CustomerCSVWriter) Rows() int {
	return w.rows
}

func customerCSVRow(record models.CustomerRecord) []string {
	f := record.FormData
	year := ""
	if f.VehicleData.Year > 0 {
		year = strconv.Itoa(f.VehicleData.Year)
	}

	return []string{
		record.CustomerID,
		f.PersonalData.LastName,
		f.PersonalData.FirstName,
		f.PersonalData.Email,
		f.PersonalData.PhoneNumber,
		f.PersonalData.Street,
		f.PersonalData.HouseNumber,
		f.PersonalData.PostalCode,
		f.PersonalData.City,
		csvDate(f.DriverInfo.DOB),
		csvDate(f.DriverInfo.LicenseIssueDate),
		string(f.DriverInfo.MaritalStatus),
		f.VehicleData.Make,
		f.VehicleData.Model,
		year,
		f.VehicleData.VIN,
		f.VehicleData.HsnTsn,
		f.VehicleData.LicensePlate,
		csvDate(f.VehicleData.FirstRegistration),
		csvDate(f.VehicleData.FirstRegistrationOwner),
		f.VehicleData.CurrentMileage,
		csvDate(f.InsuranceInfo.StartDate),
		f.InsuranceInfo.PreviousInsurance,
		f.InsuranceInfo.PreviousInsuranceNumber,
		FormatIBAN(f.PaymentInfo.IBAN),
		f.GUID,
		fmt.Sprint(f.EditedByCustomer),
	}
}

// csvDate falls back to the raw value for anything that is not a storage date.
func csvDate(value string) string {
	display, err := StorageDateToDisplay(value)
	if err != nil {
		return value
	}
	return display
}
