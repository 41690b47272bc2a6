package forms

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrAlreadySubmitted is informational: the public link was used already.
	ErrAlreadySubmitted = errors.New("form already submitted")
	ErrSubmitInFlight   = errors.New("submission already in progress")
	// ErrAlreadyCreated refuses a second create from the same new-customer form.
	ErrAlreadyCreated   = errors.New("customer already created from this form")
)

const (
	MsgLastNameRequired    = "Nachname ist ein Pflichtfeld"
	MsgInvalidEmail        = "Bitte geben Sie eine gültige E-Mail-Adresse ein"
	MsgInvalidPostalCode   = "Die Postleitzahl muss aus 5 Ziffern bestehen"
	MsgInvalidCity         = "Bitte geben Sie einen gültigen Ort ein"
	MsgPostalCodeCityMatch = "Postleitzahl und Ort passen nicht zusammen"
)

type FormValidationError struct {
	Errors map[Field]string
}

func (e *FormValidationError) Error() string {
	names := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		names = append(names, field.Name())
	}
	sort.Strings(names)
	return "invalid fields: " + strings.Join(names, ", ")
}

// TransportError wraps any failure of the persistence collaborator.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "failed to save customer: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
