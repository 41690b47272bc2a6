package forms

import (
	"fmt"
	"strconv"
	"strings"

	. "portal/internal/models"
	"portal/internal/utils"
)

type Section int

const (
	SectionVehicleData Section = iota
	SectionDriverInfo
	SectionInsuranceInfo
	SectionPersonalData
	SectionPaymentInfo
)

var sectionNames = map[Section]string{
	SectionVehicleData:   "vehicleData",
	SectionDriverInfo:    "driverInfo",
	SectionInsuranceInfo: "insuranceInfo",
	SectionPersonalData:  "personalData",
	SectionPaymentInfo:   "paymentInfo",
}

func (s Section) String() string {
	if name, ok := sectionNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Section(%d)", int(s))
}

// Field names one input of the customer form. The set of implementations is
// closed: one string type per section.
type Field interface {
	Section() Section
	Name() string
	isField()
}

type VehicleField string

const (
	VehicleMake                   VehicleField = "make"
	VehicleModel                  VehicleField = "model"
	VehicleYear                   VehicleField = "year"
	VehicleVIN                    VehicleField = "vin"
	VehicleHsnTsn                 VehicleField = "hsnTsn"
	VehicleLicensePlate           VehicleField = "licensePlate"
	VehicleFirstRegistration      VehicleField = "firstRegistration"
	VehicleFirstRegistrationOwner VehicleField = "firstRegistrationOwner"
	VehicleCurrentMileage         VehicleField = "currentMileage"
)

type DriverField string

const (
	DriverDOB              DriverField = "dob"
	DriverLicenseIssueDate DriverField = "licenseNumber"
	DriverMaritalStatus    DriverField = "maritalStatus"
)

type InsuranceField string

const (
	InsuranceStartDate               InsuranceField = "startDate"
	InsurancePreviousInsurance       InsuranceField = "previousInsurance"
	InsurancePreviousInsuranceNumber InsuranceField = "previousInsuranceNumber"
)

type PersonalField string

const (
	PersonalEmail       PersonalField = "email"
	PersonalFirstName   PersonalField = "firstName"
	PersonalLastName    PersonalField = "lastName"
	PersonalStreet      PersonalField = "street"
	PersonalHouseNumber PersonalField = "houseNumber"
	PersonalPostalCode  PersonalField = "postalCode"
	PersonalCity        PersonalField = "city"
	PersonalPhoneNumber PersonalField = "phoneNumber"
)

type PaymentField string

const (
	PaymentIBAN PaymentField = "iban"
)

func (VehicleField) Section() Section   { return SectionVehicleData }
func (DriverField) Section() Section    { return SectionDriverInfo }
func (InsuranceField) Section() Section { return SectionInsuranceInfo }
func (PersonalField) Section() Section  { return SectionPersonalData }
func (PaymentField) Section() Section   { return SectionPaymentInfo }

func (f VehicleField) Name() string   { return string(f) }
func (f DriverField) Name() string    { return string(f) }
func (f InsuranceField) Name() string { return string(f) }
func (f PersonalField) Name() string  { return string(f) }
func (f PaymentField) Name() string   { return string(f) }

func (VehicleField) isField()   {}
func (DriverField) isField()    {}
func (InsuranceField) isField() {}
func (PersonalField) isField()  {}
func (PaymentField) isField()   {}

// Fields lists every form input in display order.
func Fields() []Field {
	return []Field{
		VehicleMake, VehicleModel, VehicleYear, VehicleVIN, VehicleHsnTsn,
		VehicleLicensePlate, VehicleFirstRegistration, VehicleFirstRegistrationOwner,
		VehicleCurrentMileage,
		DriverDOB, DriverLicenseIssueDate, DriverMaritalStatus,
		InsuranceStartDate, InsurancePreviousInsurance, InsurancePreviousInsuranceNumber,
		PersonalEmail, PersonalFirstName, PersonalLastName, PersonalStreet,
		PersonalHouseNumber, PersonalPostalCode, PersonalCity, PersonalPhoneNumber,
		PaymentIBAN,
	}
}

// ParseField resolves "section.name" (for example "personalData.lastName").
func ParseField(path string) (Field, error) {
	for _, field := range Fields() {
		if field.Section().String()+"."+field.Name() == path {
			return field, nil
		}
	}
	return nil, fmt.Errorf("unknown form field %q", path)
}

// setField writes value into data. Unknown constants of a known field type
// are ignored.
func setField(data *FormData, field Field, value string) {
	switch f := field.(type) {
	case VehicleField:
		setVehicleField(&data.VehicleData, f, value)
	case DriverField:
		setDriverField(&data.DriverInfo, f, value)
	case InsuranceField:
		setInsuranceField(&data.InsuranceInfo, f, value)
	case PersonalField:
		setPersonalField(&data.PersonalData, f, value)
	case PaymentField:
		setPaymentField(&data.PaymentInfo, f, value)
	}
}

func setVehicleField(v *VehicleData, f VehicleField, value string) {
	switch f {
	case VehicleMake:
		v.Make = value
	case VehicleModel:
		v.Model = value
	case VehicleYear:
		year, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			year = 0
		}
		v.Year = year
	case VehicleVIN:
		v.VIN = value
	case VehicleHsnTsn:
		v.HsnTsn = value
	case VehicleLicensePlate:
		v.LicensePlate = value
	case VehicleFirstRegistration:
		v.FirstRegistration = value
	case VehicleFirstRegistrationOwner:
		v.FirstRegistrationOwner = value
	case VehicleCurrentMileage:
		v.CurrentMileage = utils.FormatMileage(value)
	}
}

func setDriverField(d *DriverInfo, f DriverField, value string) {
	switch f {
	case DriverDOB:
		d.DOB = value
	case DriverLicenseIssueDate:
		d.LicenseIssueDate = value
	case DriverMaritalStatus:
		d.MaritalStatus = MaritalStatus(value)
	}
}

func setInsuranceField(i *InsuranceInfo, f InsuranceField, value string) {
	switch f {
	case InsuranceStartDate:
		i.StartDate = value
	case InsurancePreviousInsurance:
		i.PreviousInsurance = value
	case InsurancePreviousInsuranceNumber:
		i.PreviousInsuranceNumber = value
	}
}

func setPersonalField(p *PersonalData, f PersonalField, value string) {
	switch f {
	case PersonalEmail:
		p.Email = value
	case PersonalFirstName:
		p.FirstName = value
	case PersonalLastName:
		p.LastName = value
	case PersonalStreet:
		p.Street = value
	case PersonalHouseNumber:
		p.HouseNumber = value
	case PersonalPostalCode:
		p.PostalCode = value
	case PersonalCity:
		p.City = value
	case PersonalPhoneNumber:
		p.PhoneNumber = value
	}
}

func setPaymentField(p *PaymentInfo, f PaymentField, value string) {
	switch f {
	case PaymentIBAN:
		p.IBAN = utils.FormatIBAN(value)
	}
}

// SplitHsnTsn splits the combined "HSN TSN" string at the first space. A
// leading space means the HSN is empty.
func SplitHsnTsn(combined string) (hsn, tsn string) {
	hsn, tsn, _ = strings.Cut(combined, " ")
	return strings.TrimSpace(hsn), strings.TrimSpace(tsn)
}

func JoinHsnTsn(hsn, tsn string) string {
	hsn, tsn = strings.TrimSpace(hsn), strings.TrimSpace(tsn)
	if hsn == "" && tsn == "" {
		return ""
	}
	return hsn + " " + tsn
}
