package models

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// NewCustomerID marks a record the persistence layer has not created yet.
const NewCustomerID = "new"

type MaritalStatus string

const (
	MaritalStatusSingle   MaritalStatus = "Ledig"
	MaritalStatusMarried  MaritalStatus = "Verheiratet"
	MaritalStatusDivorced MaritalStatus = "Geschieden"
)

var MaritalStatuses = []MaritalStatus{
	MaritalStatusSingle,
	MaritalStatusMarried,
	MaritalStatusDivorced,
}

var (
	ErrNotFound           = errors.New("customer not found")
	ErrAlreadyEdited      = errors.New("customer already submitted the public form")
	ErrInvalidAccessToken = errors.New("invalid access token")
)

// ValidationError carries per-field failures keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "invalid fields: " + strings.Join(names, ", ")
}

type VehicleData struct {
	Make                   string `json:"make"`
	Model                  string `json:"model"`
	Year                   int    `json:"year"`
	VIN                    string `json:"vin"`
	HsnTsn                 string `json:"hsnTsn"`
	LicensePlate           string `json:"licensePlate"`
	FirstRegistration      string `json:"firstRegistration"`
	FirstRegistrationOwner string `json:"firstRegistrationOwner"`
	CurrentMileage         string `json:"currentMileage"`
}

type DriverInfo struct {
	DOB string `json:"dob"`
	// LicenseIssueDate keeps the "licenseNumber" wire name; it has always held
	// the date the driving license was issued.
	LicenseIssueDate string        `json:"licenseNumber"`
	MaritalStatus    MaritalStatus `json:"maritalStatus" validate:"omitempty,marital_status"`
}

type InsuranceInfo struct {
	StartDate               string `json:"startDate"`
	PreviousInsurance       string `json:"previousInsurance"`
	PreviousInsuranceNumber string `json:"previousInsuranceNumber"`
}

type PersonalData struct {
	Email       string `json:"email"       validate:"omitempty,email_basic"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"    validate:"required,notblank"`
	Street      string `json:"street"`
	HouseNumber string `json:"houseNumber"`
	PostalCode  string `json:"postalCode"  validate:"omitempty,postal_code"`
	City        string `json:"city"        validate:"omitempty,city"`
	PhoneNumber string `json:"phoneNumber"`
}

type PaymentInfo struct {
	IBAN string `json:"iban"`
}

type FormData struct {
	VehicleData      VehicleData   `json:"vehicleData"`
	DriverInfo       DriverInfo    `json:"driverInfo"`
	InsuranceInfo    InsuranceInfo `json:"insuranceInfo"`
	PersonalData     PersonalData  `json:"personalData"`
	PaymentInfo      PaymentInfo   `json:"paymentInfo"`
	GUID             string        `json:"guid"`
	EditedByCustomer bool          `json:"editedByCustomer"`
}

// CustomerRecord is the shape exchanged with clients.
type CustomerRecord struct {
	CustomerID string   `json:"customerId"`
	FormData   FormData `json:"formData"`
}

func (r CustomerRecord) IsNew() bool {
	return r.CustomerID == "" || r.CustomerID == NewCustomerID
}

// Customer is the stored row; the form payload is kept as one JSON column.
type Customer struct {
	BaseUUIDModel
	FormData        FormData `gorm:"serializer:json;type:text;not null" json:"formData"`
	AccessTokenHash *string  `gorm:"type:varchar(255)"                  json:"-"`
}

func (c Customer) Record() CustomerRecord {
	return CustomerRecord{CustomerID: c.ID, FormData: c.FormData}
}

// CustomerStore is everything the form and list layers need from persistence.
type CustomerStore interface {
	List(ctx context.Context) ([]CustomerRecord, error)
	GetByID(ctx context.Context, id string) (CustomerRecord, error)
	Create(ctx context.Context, formData FormData) error
	Update(ctx context.Context, id string, formData FormData) error
	Delete(ctx context.Context, id string) error
}

// Envelope is the REST response wrapper shared by server and client.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type PublicLink struct {
	CustomerID  string `json:"customerId"`
	AccessToken string `json:"accessToken"`
	Path        string `json:"path"`
	URL         string `json:"url"`
}
