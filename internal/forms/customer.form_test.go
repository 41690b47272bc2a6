package forms

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	method   string
	id       string
	formData FormData
}

type fakeStore struct {
	mu      sync.Mutex
	calls   []call
	records map[string]CustomerRecord
	err     error
	block   chan struct{}
	entered chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]CustomerRecord{}}
}

func (s *fakeStore) record(c call) error {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	block, entered, err := s.block, s.entered, s.err
	s.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return err
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *fakeStore) lastCall() call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

func (s *fakeStore) List(ctx context.Context) ([]CustomerRecord, error) {
	return nil, s.record(call{method: "list"})
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (CustomerRecord, error) {
	if err := s.record(call{method: "get", id: id}); err != nil {
		return CustomerRecord{}, err
	}
	record, ok := s.records[id]
	if !ok {
		return CustomerRecord{}, ErrNotFound
	}
	return record, nil
}

func (s *fakeStore) Create(ctx context.Context, formData FormData) error {
	return s.record(call{method: "create", formData: formData})
}

func (s *fakeStore) Update(ctx context.Context, id string, formData FormData) error {
	return s.record(call{method: "update", id: id, formData: formData})
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	return s.record(call{method: "delete", id: id})
}

func TestSetField_AllFields(t *testing.T) {
	form := New(newFakeStore(), ModeAgent)

	for _, field := range Fields() {
		form.SetField(field, "x")
	}
	data := form.Data()

	assert.Equal(t, "x", data.VehicleData.Make)
	assert.Equal(t, 0, data.VehicleData.Year, "non-numeric year")
	assert.Equal(t, "", data.VehicleData.CurrentMileage, "mileage keeps digits only")
	assert.Equal(t, "X", data.PaymentInfo.IBAN)
	assert.Equal(t, MaritalStatus("x"), data.DriverInfo.MaritalStatus)
	assert.Equal(t, "x", data.DriverInfo.LicenseIssueDate)
	assert.Equal(t, "x", data.InsuranceInfo.PreviousInsuranceNumber)
	assert.Equal(t, "x", data.PersonalData.PhoneNumber)
	assert.Equal(t, "x", data.PersonalData.LastName)
}

func TestSetField_Formatting(t *testing.T) {
	form := New(newFakeStore(), ModeAgent)

	form.SetField(VehicleYear, " 2021 ")
	form.SetField(VehicleCurrentMileage, "150000")
	form.SetField(PaymentIBAN, "de12345678901234567890")
	form.SetField(VehicleField("unknown"), "ignored")

	data := form.Data()
	assert.Equal(t, 2021, data.VehicleData.Year)
	assert.Equal(t, "150.000", data.VehicleData.CurrentMileage)
	assert.Equal(t, "DE12 3456 7890 1234 5678 90", data.PaymentInfo.IBAN)
	assert.Empty(t, form.Errors(), "setting fields never validates")
}

func TestParseField(t *testing.T) {
	field, err := ParseField("personalData.lastName")
	require.NoError(t, err)
	assert.Equal(t, PersonalLastName, field)

	field, err = ParseField("driverInfo.licenseNumber")
	require.NoError(t, err)
	assert.Equal(t, DriverLicenseIssueDate, field)

	_, err = ParseField("personalData.unknown")
	assert.Error(t, err)
}

func TestHsnTsn(t *testing.T) {
	form := New(newFakeStore(), ModeAgent)

	form.SetTSN("123")
	assert.Equal(t, " 123", form.Data().VehicleData.HsnTsn)
	assert.Equal(t, "", form.HSN())
	assert.Equal(t, "123", form.TSN())

	form.SetHSN("0603")
	assert.Equal(t, "0603 123", form.Data().VehicleData.HsnTsn)

	form.SetField(VehicleHsnTsn, "0005  ABC")
	assert.Equal(t, "0005", form.HSN())
	assert.Equal(t, "ABC", form.TSN())

	form.SetHSN("")
	form.SetTSN("")
	assert.Equal(t, "", form.Data().VehicleData.HsnTsn)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		fields map[Field]string
		want   map[Field]string
	}{
		{
			name:   "empty last name",
			fields: map[Field]string{},
			want:   map[Field]string{PersonalLastName: MsgLastNameRequired},
		},
		{
			name:   "whitespace last name",
			fields: map[Field]string{PersonalLastName: "   "},
			want:   map[Field]string{PersonalLastName: MsgLastNameRequired},
		},
		{
			name:   "invalid email only",
			fields: map[Field]string{PersonalLastName: "Müller", PersonalEmail: "invalid"},
			want:   map[Field]string{PersonalEmail: MsgInvalidEmail},
		},
		{
			name:   "postal code and city mismatch",
			fields: map[Field]string{PersonalLastName: "Müller", PersonalPostalCode: "80331", PersonalCity: "Berlin"},
			want: map[Field]string{
				PersonalPostalCode: MsgPostalCodeCityMatch,
				PersonalCity:       MsgPostalCodeCityMatch,
			},
		},
		{
			name:   "postal code and city match",
			fields: map[Field]string{PersonalLastName: "Müller", PersonalPostalCode: "80331", PersonalCity: "münchen"},
			want:   map[Field]string{},
		},
		{
			name:   "malformed postal code",
			fields: map[Field]string{PersonalLastName: "Müller", PersonalPostalCode: "8033"},
			want:   map[Field]string{PersonalPostalCode: MsgInvalidPostalCode},
		},
		{
			name:   "short city",
			fields: map[Field]string{PersonalLastName: "Müller", PersonalCity: "X"},
			want:   map[Field]string{PersonalCity: MsgInvalidCity},
		},
		{
			name: "independent rules",
			fields: map[Field]string{
				PersonalEmail:      "a@b",
				PersonalPostalCode: "ABCDE",
				PersonalCity:       "Köln",
			},
			want: map[Field]string{
				PersonalLastName:   MsgLastNameRequired,
				PersonalEmail:      MsgInvalidEmail,
				PersonalPostalCode: MsgInvalidPostalCode,
				PersonalCity:       MsgPostalCodeCityMatch,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := New(newFakeStore(), ModeAgent)
			for field, value := range tt.fields {
				form.SetField(field, value)
			}
			assert.Equal(t, len(tt.want) == 0, form.Validate())
			assert.Equal(t, tt.want, form.Errors())
		})
	}
}

func TestSubmit_EmptyLastNameMakesNoCall(t *testing.T) {
	store := newFakeStore()
	form := New(store, ModeAgent)

	err := form.Submit(context.Background())

	var validationErr *FormValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Errors, Field(PersonalLastName))
	assert.Zero(t, store.callCount())
	assert.Equal(t, OutcomeRejected, form.Outcome())
	assert.Equal(t, StateIdle, form.State())
}

func TestSubmit_CreateAssignsGUID(t *testing.T) {
	store := newFakeStore()
	form := New(store, ModeAgent)
	form.newGUID = func() string { return "guid-1" }

	var transitions []State
	form.OnTransition(func(from, to State) { transitions = append(transitions, to) })

	form.SetField(PersonalLastName, "Müller")
	require.NoError(t, form.Submit(context.Background()))

	require.Equal(t, 1, store.callCount())
	c := store.lastCall()
	assert.Equal(t, "create", c.method)
	assert.Equal(t, "guid-1", c.formData.GUID)
	assert.False(t, c.formData.EditedByCustomer)
	assert.Equal(t, "guid-1", form.Data().GUID)
	assert.Equal(t, OutcomeSucceeded, form.Outcome())
	assert.Equal(t, []State{StateValidating, StateSubmitting, StateSucceeded, StateIdle}, transitions)
}

func TestSubmit_CreateOnlyOnce(t *testing.T) {
	store := newFakeStore()
	form := New(store, ModeAgent)
	form.SetField(PersonalLastName, "Müller")

	require.NoError(t, form.Submit(context.Background()))
	assert.False(t, form.CanSubmit())

	err := form.Submit(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyCreated)
	assert.Equal(t, 1, store.callCount())
	assert.Equal(t, OutcomeSucceeded, form.Outcome())

	// Loading a stored record makes the form usable again.
	form.Load(CustomerRecord{CustomerID: "c-1", FormData: FormData{PersonalData: PersonalData{LastName: "Müller"}}})
	require.True(t, form.CanSubmit())
	require.NoError(t, form.Submit(context.Background()))
	require.NoError(t, form.Submit(context.Background()))
	assert.Equal(t, 3, store.callCount())
	assert.Equal(t, "update", store.lastCall().method)
}

func TestSubmit_UpdateKeepsGUID(t *testing.T) {
	store := newFakeStore()
	form := New(store, ModeAgent)
	form.Load(CustomerRecord{
		CustomerID: "c-1",
		FormData: FormData{
			PersonalData: PersonalData{LastName: "Weber"},
			GUID:         "stored-guid",
		},
	})

	require.NoError(t, form.Submit(context.Background()))

	c := store.lastCall()
	assert.Equal(t, "update", c.method)
	assert.Equal(t, "c-1", c.id)
	assert.Equal(t, "stored-guid", c.formData.GUID)
}

func TestSubmit_PublicDoubleSubmit(t *testing.T) {
	store := newFakeStore()
	form := New(store, ModePublic)
	form.Load(CustomerRecord{CustomerID: "c-1", FormData: FormData{PersonalData: PersonalData{LastName: "Weber"}}})

	require.True(t, form.CanSubmit())
	require.NoError(t, form.Submit(context.Background()))
	assert.True(t, store.lastCall().formData.EditedByCustomer)
	assert.True(t, form.Data().EditedByCustomer)
	assert.False(t, form.CanSubmit())

	err := form.Submit(context.Background())
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, OutcomeAlreadySubmitted, form.Outcome())
	assert.Equal(t, 1, store.callCount())
}

func TestSubmit_PublicLoadedAsEdited(t *testing.T) {
	store := newFakeStore()
	form := New(store, ModePublic)
	form.Load(CustomerRecord{CustomerID: "c-1", FormData: FormData{EditedByCustomer: true}})

	assert.False(t, form.CanSubmit())
	assert.ErrorIs(t, form.Submit(context.Background()), ErrAlreadySubmitted)
	assert.Zero(t, store.callCount())
}

func TestSubmit_AgentMayEditSubmittedRecord(t *testing.T) {
	store := newFakeStore()
	form := New(store, ModeAgent)
	form.Load(CustomerRecord{CustomerID: "c-1", FormData: FormData{
		PersonalData:     PersonalData{LastName: "Weber"},
		EditedByCustomer: true,
	}})

	require.NoError(t, form.Submit(context.Background()))
	assert.True(t, store.lastCall().formData.EditedByCustomer, "agent edits keep the flag as loaded")
}

func TestSubmit_TransportFailureLeavesStateUnchanged(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("connection refused")
	form := New(store, ModePublic)
	form.Load(CustomerRecord{CustomerID: "c-1", FormData: FormData{PersonalData: PersonalData{LastName: "Weber"}}})

	err := form.Submit(context.Background())
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.ErrorIs(t, err, store.err)

	assert.False(t, form.Data().EditedByCustomer)
	assert.Equal(t, OutcomeFailed, form.Outcome())
	assert.True(t, form.CanSubmit(), "user may retry")

	store.err = nil
	require.NoError(t, form.Submit(context.Background()))
	assert.Equal(t, 2, store.callCount())
}

func TestSubmit_InFlightRejectsSecondSubmit(t *testing.T) {
	store := newFakeStore()
	store.block = make(chan struct{})
	store.entered = make(chan struct{}, 1)
	form := New(store, ModeAgent)
	form.SetField(PersonalLastName, "Müller")

	done := make(chan error, 1)
	go func() { done <- form.Submit(context.Background()) }()

	select {
	case <-store.entered:
	case <-time.After(time.Second):
		t.Fatal("store was not called")
	}

	assert.Equal(t, StateSubmitting, form.State())
	assert.False(t, form.CanSubmit())
	assert.ErrorIs(t, form.Submit(context.Background()), ErrSubmitInFlight)

	form.SetField(PersonalCity, "München")
	close(store.block)
	require.NoError(t, <-done)

	assert.Equal(t, 1, store.callCount())
	assert.Equal(t, "München", form.Data().PersonalData.City, "edits during the write survive")
	assert.Equal(t, StateIdle, form.State())
}

func TestLoad_NormalizesIBAN(t *testing.T) {
	form := New(newFakeStore(), ModeAgent)
	form.Load(CustomerRecord{CustomerID: "c-1", FormData: FormData{PaymentInfo: PaymentInfo{IBAN: "DE12345678901234567890"}}})
	assert.Equal(t, "DE12 3456 7890 1234 5678 90", form.Data().PaymentInfo.IBAN)
	assert.False(t, form.IsNew())
	assert.Equal(t, "c-1", form.ID())
}

func TestLoadByID(t *testing.T) {
	store := newFakeStore()
	store.records["c-1"] = CustomerRecord{CustomerID: "c-1", FormData: FormData{PersonalData: PersonalData{LastName: "Weber"}}}
	form := New(store, ModeAgent)

	require.NoError(t, form.LoadByID(context.Background(), "c-1"))
	assert.Equal(t, "Weber", form.Data().PersonalData.LastName)

	assert.ErrorIs(t, form.LoadByID(context.Background(), "missing"), ErrNotFound)

	store.err = errors.New("timeout")
	var transportErr *TransportError
	assert.ErrorAs(t, form.LoadByID(context.Background(), "c-1"), &transportErr)
}
