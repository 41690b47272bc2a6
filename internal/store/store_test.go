package store

import (
	"context"
	"errors"
	"testing"

	. "portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	records   []CustomerRecord
	listErr   error
	deleteErr error
	updateErr error
	updates   []FormData
	lists     int
}

func (f *fakeAPI) List(ctx context.Context) ([]CustomerRecord, error) {
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]CustomerRecord(nil), f.records...), nil
}

func (f *fakeAPI) GetByID(ctx context.Context, id string) (CustomerRecord, error) {
	for _, r := range f.records {
		if r.CustomerID == id {
			return r, nil
		}
	}
	return CustomerRecord{}, ErrNotFound
}

func (f *fakeAPI) Create(ctx context.Context, formData FormData) error {
	return errors.New("not used")
}

func (f *fakeAPI) Update(ctx context.Context, id string, formData FormData) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, formData)
	for i := range f.records {
		if f.records[i].CustomerID == id {
			f.records[i].FormData = formData
		}
	}
	return nil
}

func (f *fakeAPI) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, r := range f.records {
		if r.CustomerID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func customers() []CustomerRecord {
	return []CustomerRecord{
		{CustomerID: "1", FormData: FormData{PersonalData: PersonalData{LastName: "Müller"}, EditedByCustomer: true}},
		{CustomerID: "2", FormData: FormData{PersonalData: PersonalData{LastName: "Schmidt"}}},
	}
}

func TestFetch(t *testing.T) {
	api := &fakeAPI{records: customers()}

	next := Fetch(context.Background(), State{}, api)
	assert.Len(t, next.Customers, 2)
	assert.Empty(t, next.Err)
	assert.False(t, next.Loading)

	api.listErr = errors.New("offline")
	failed := Fetch(context.Background(), next, api)
	assert.Equal(t, MsgFetchFailed, failed.Err)
	assert.Equal(t, next.Customers, failed.Customers, "previous list is kept")
}

func TestDelete(t *testing.T) {
	api := &fakeAPI{records: customers()}
	start := State{Customers: customers()}

	next := Delete(context.Background(), start, api, "1")
	require.Empty(t, next.Err)
	require.Len(t, next.Customers, 1)
	assert.Equal(t, "2", next.Customers[0].CustomerID)
	assert.Len(t, start.Customers, 2, "input state is not modified")
	assert.Equal(t, 1, api.lists, "list is re-fetched after the mutation")
}

func TestDelete_Failure(t *testing.T) {
	api := &fakeAPI{records: customers(), deleteErr: errors.New("500")}
	start := State{Customers: customers()}

	next := Delete(context.Background(), start, api, "1")
	assert.Equal(t, MsgDeleteFailed, next.Err)
	assert.Equal(t, start.Customers, next.Customers)
	assert.Zero(t, api.lists)
}

func TestDelete_RefetchFailureKeepsLocalChange(t *testing.T) {
	api := &fakeAPI{records: customers(), listErr: errors.New("offline")}

	next := Delete(context.Background(), State{Customers: customers()}, api, "1")
	assert.Equal(t, MsgFetchFailed, next.Err)
	require.Len(t, next.Customers, 1)
	assert.Equal(t, "2", next.Customers[0].CustomerID)
}

func TestResetEditedStatus(t *testing.T) {
	api := &fakeAPI{records: customers()}
	start := State{Customers: customers()}

	next := ResetEditedStatus(context.Background(), start, api, "1")
	require.Empty(t, next.Err)

	require.Len(t, api.updates, 1)
	assert.False(t, api.updates[0].EditedByCustomer)
	assert.Equal(t, "Müller", api.updates[0].PersonalData.LastName)

	record, ok := next.Find("1")
	require.True(t, ok)
	assert.False(t, record.FormData.EditedByCustomer)

	original, _ := start.Find("1")
	assert.True(t, original.FormData.EditedByCustomer, "input state is not modified")
}

func TestResetEditedStatus_Errors(t *testing.T) {
	api := &fakeAPI{records: customers()}
	start := State{Customers: customers()}

	missing := ResetEditedStatus(context.Background(), start, api, "404")
	assert.Equal(t, MsgNotFound, missing.Err)
	assert.Empty(t, api.updates)

	api.updateErr = errors.New("500")
	failed := ResetEditedStatus(context.Background(), start, api, "1")
	assert.Equal(t, MsgResetFailed, failed.Err)
	record, _ := failed.Find("1")
	assert.True(t, record.FormData.EditedByCustomer)
}

func TestStore_NotifiesLoadingThenResult(t *testing.T) {
	api := &fakeAPI{records: customers()}
	s := New(api)

	var seen []State
	s.Subscribe(func(state State) { seen = append(seen, state) })

	result := s.Fetch(context.Background())
	require.Len(t, seen, 2)
	assert.True(t, seen[0].Loading)
	assert.False(t, seen[1].Loading)
	assert.Len(t, result.Customers, 2)
	assert.Equal(t, result, s.State())

	s.Delete(context.Background(), "2")
	assert.Len(t, s.State().Customers, 1)

	s.ResetEditedStatus(context.Background(), "1")
	record, ok := s.State().Find("1")
	require.True(t, ok)
	assert.False(t, record.FormData.EditedByCustomer)
}
