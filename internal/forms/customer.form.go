// Package forms holds the editable state of one customer form: field
// updates, validation and the submit state machine.
package forms

import (
	"context"
	"errors"
	"maps"
	"strings"
	"sync"

	"portal/internal/logger"
	. "portal/internal/models"
	"portal/internal/utils"

	"github.com/google/uuid"
)

type Mode int

const (
	ModeAgent Mode = iota
	ModePublic
)

type State int

const (
	StateIdle State = iota
	StateValidating
	StateRejected
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateRejected:
		return "rejected"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeRejected
	OutcomeAlreadySubmitted
	OutcomeSucceeded
	OutcomeFailed
)

// CustomerForm is the form controller for one customer record. A form is
// driven from one goroutine; the mutex only guards against a second Submit
// while a write is outstanding.
type CustomerForm struct {
	mu           sync.Mutex
	store        CustomerStore
	mode         Mode
	id           string
	data         FormData
	errors       map[Field]string
	state        State
	outcome      Outcome
	created      bool
	onTransition func(from, to State)
	newGUID      func() string
	log          logger.Logger
}

// New returns an empty form for a record that does not exist yet.
func New(store CustomerStore, mode Mode) *CustomerForm {
	return &CustomerForm{
		store:   store,
		mode:    mode,
		id:      NewCustomerID,
		errors:  map[Field]string{},
		newGUID: uuid.NewString,
		log:     logger.New("forms").File("customer_form"),
	}
}

// OnTransition registers fn to observe state changes. fn runs with the form
// locked and must not call back into it.
func (f *CustomerForm) OnTransition(fn func(from, to State)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onTransition = fn
}

// Load replaces the form with record and normalises the IBAN grouping.
func (f *CustomerForm) Load(record CustomerRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.id = record.CustomerID
	if f.id == "" {
		f.id = NewCustomerID
	}
	f.data = record.FormData
	f.data.PaymentInfo.IBAN = utils.FormatIBAN(f.data.PaymentInfo.IBAN)
	f.errors = map[Field]string{}
	f.outcome = OutcomeNone
	f.created = false
}

// LoadByID fetches and loads a stored record. ErrNotFound is returned as is,
// any other failure as a TransportError.
func (f *CustomerForm) LoadByID(ctx context.Context, id string) error {
	record, err := f.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return &TransportError{Err: err}
	}
	f.Load(record)
	return nil
}

func (f *CustomerForm) ID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id
}

func (f *CustomerForm) IsNew() bool {
	return CustomerRecord{CustomerID: f.ID()}.IsNew()
}

func (f *CustomerForm) Mode() Mode {
	return f.mode
}

func (f *CustomerForm) Data() FormData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data
}

func (f *CustomerForm) Errors() map[Field]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.errors)
}

func (f *CustomerForm) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Outcome reports how the last Submit ended.
func (f *CustomerForm) Outcome() Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcome
}

// SetField never validates; IBAN and mileage are reformatted as typed.
func (f *CustomerForm) SetField(field Field, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	setField(&f.data, field, value)
}

func (f *CustomerForm) HSN() string {
	hsn, _ := SplitHsnTsn(f.Data().VehicleData.HsnTsn)
	return hsn
}

func (f *CustomerForm) TSN() string {
	_, tsn := SplitHsnTsn(f.Data().VehicleData.HsnTsn)
	return tsn
}

func (f *CustomerForm) SetHSN(hsn string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, tsn := SplitHsnTsn(f.data.VehicleData.HsnTsn)
	f.data.VehicleData.HsnTsn = JoinHsnTsn(hsn, tsn)
}

func (f *CustomerForm) SetTSN(tsn string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hsn, _ := SplitHsnTsn(f.data.VehicleData.HsnTsn)
	f.data.VehicleData.HsnTsn = JoinHsnTsn(hsn, tsn)
}

// SuggestedCities returns the known cities for the current postal code.
func (f *CustomerForm) SuggestedCities() []string {
	return utils.SuggestCitiesForPostalCode(f.Data().PersonalData.PostalCode)
}

// Validate recomputes the error map and reports whether it is empty.
func (f *CustomerForm) Validate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = validate(f.data)
	return len(f.errors) == 0
}

// CanSubmit reports whether the submit trigger should be enabled.
func (f *CustomerForm) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == StateIdle && !f.created && !f.blocked()
}

// Submit validates and writes the form with exactly one store call. It
// returns ErrAlreadySubmitted, ErrAlreadyCreated, *FormValidationError,
// *TransportError or ErrSubmitInFlight without writing anything.
func (f *CustomerForm) Submit(ctx context.Context) error {
	log := f.log.Function("Submit")

	f.mu.Lock()
	if f.state != StateIdle {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	if f.created {
		f.mu.Unlock()
		return ErrAlreadyCreated
	}
	if f.blocked() {
		f.outcome = OutcomeAlreadySubmitted
		f.mu.Unlock()
		return ErrAlreadySubmitted
	}

	f.transition(StateValidating)
	f.errors = validate(f.data)
	if len(f.errors) > 0 {
		validationErr := &FormValidationError{Errors: maps.Clone(f.errors)}
		f.transition(StateRejected)
		f.outcome = OutcomeRejected
		f.transition(StateIdle)
		f.mu.Unlock()
		return validationErr
	}

	id := f.id
	creating := CustomerRecord{CustomerID: id}.IsNew()
	payload := f.data
	if creating {
		payload.GUID = f.newGUID()
	}
	if f.mode == ModePublic {
		payload.EditedByCustomer = true
	}
	f.transition(StateSubmitting)
	f.mu.Unlock()

	var err error
	if creating {
		err = f.store.Create(ctx, payload)
	} else {
		err = f.store.Update(ctx, id, payload)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		log.Warn("customer submission failed", "customerID", id, "error", err)
		f.transition(StateFailed)
		f.outcome = OutcomeFailed
		f.transition(StateIdle)
		return &TransportError{Err: err}
	}

	// Fields edited while the write was in flight are kept.
	f.data.GUID = payload.GUID
	f.data.EditedByCustomer = payload.EditedByCustomer
	// The store does not return the new id, so this form cannot address the
	// record it just created.
	f.created = creating
	f.transition(StateSucceeded)
	f.outcome = OutcomeSucceeded
	f.transition(StateIdle)
	return nil
}

func (f *CustomerForm) blocked() bool {
	return f.mode == ModePublic && f.data.EditedByCustomer
}

func (f *CustomerForm) transition(to State) {
	from := f.state
	f.state = to
	if f.onTransition != nil {
		f.onTransition(from, to)
	}
}

func validate(data FormData) map[Field]string {
	errs := map[Field]string{}
	set := func(field Field, message string) {
		if _, exists := errs[field]; !exists {
			errs[field] = message
		}
	}

	p := data.PersonalData
	if strings.TrimSpace(p.LastName) == "" {
		set(PersonalLastName, MsgLastNameRequired)
	}
	if p.Email != "" && !utils.IsValidEmail(p.Email) {
		set(PersonalEmail, MsgInvalidEmail)
	}
	if p.PostalCode != "" && !utils.IsValidPostalCode(p.PostalCode) {
		set(PersonalPostalCode, MsgInvalidPostalCode)
	}
	if p.City != "" && !utils.IsValidCity(p.City) {
		set(PersonalCity, MsgInvalidCity)
	}
	if p.PostalCode != "" && p.City != "" && !utils.PostalCodeAndCityMatch(p.PostalCode, p.City) {
		set(PersonalPostalCode, MsgPostalCodeCityMatch)
		set(PersonalCity, MsgPostalCodeCityMatch)
	}

	return errs
}
