// Package store holds the agent's customer list state. Reducers take a State
// and return a new one; they never modify the State they were given.
package store

import (
	"context"
	"slices"
	"sync"

	"portal/internal/logger"
	. "portal/internal/models"
)

const (
	MsgFetchFailed  = "Kunden konnten nicht geladen werden"
	MsgDeleteFailed = "Kunde konnte nicht gelöscht werden"
	MsgResetFailed  = "Bearbeitungsstatus konnte nicht zurückgesetzt werden"
	MsgNotFound     = "Kunde nicht gefunden"
)

type State struct {
	Customers []CustomerRecord
	Loading   bool
	Err       string
}

func (s State) Find(id string) (CustomerRecord, bool) {
	i := slices.IndexFunc(s.Customers, func(r CustomerRecord) bool { return r.CustomerID == id })
	if i < 0 {
		return CustomerRecord{}, false
	}
	return s.Customers[i], true
}

var log = logger.New("store")

// Fetch replaces the list with the persisted one. On failure the previous
// list is kept and Err is set.
func Fetch(ctx context.Context, s State, api CustomerStore) State {
	customers, err := api.List(ctx)
	if err != nil {
		log.Function("Fetch").Warn("failed to fetch customers", "error", err)
		return State{Customers: s.Customers, Err: MsgFetchFailed}
	}
	return State{Customers: slices.Clone(customers)}
}

// Delete removes the customer and re-fetches the list.
func Delete(ctx context.Context, s State, api CustomerStore, id string) State {
	if err := api.Delete(ctx, id); err != nil {
		log.Function("Delete").Warn("failed to delete customer", "customerID", id, "error", err)
		return State{Customers: s.Customers, Err: MsgDeleteFailed}
	}

	local := State{Customers: slices.DeleteFunc(slices.Clone(s.Customers), func(r CustomerRecord) bool {
		return r.CustomerID == id
	})}
	return refetch(ctx, local, api)
}

// ResetEditedStatus reopens the customer's public link by writing the stored
// form back with editedByCustomer=false.
func ResetEditedStatus(ctx context.Context, s State, api CustomerStore, id string) State {
	customer, ok := s.Find(id)
	if !ok {
		return State{Customers: s.Customers, Err: MsgNotFound}
	}

	formData := customer.FormData
	formData.EditedByCustomer = false
	if err := api.Update(ctx, id, formData); err != nil {
		log.Function("ResetEditedStatus").Warn("failed to reset edited status", "customerID", id, "error", err)
		return State{Customers: s.Customers, Err: MsgResetFailed}
	}

	customers := slices.Clone(s.Customers)
	for i := range customers {
		if customers[i].CustomerID == id {
			customers[i].FormData = formData
		}
	}
	return refetch(ctx, State{Customers: customers}, api)
}

// refetch keeps the locally applied change if the list cannot be reloaded.
func refetch(ctx context.Context, local State, api CustomerStore) State {
	next := Fetch(ctx, local, api)
	if next.Err != "" {
		local.Err = next.Err
		return local
	}
	return next
}

// Store is the shared handle the views hold. Every change replaces the whole
// State and notifies subscribers.
type Store struct {
	mu          sync.Mutex
	api         CustomerStore
	state       State
	subscribers []func(State)
}

func New(api CustomerStore) *Store {
	return &Store{api: api}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) Fetch(ctx context.Context) State {
	return s.dispatch(func(current State) State { return Fetch(ctx, current, s.api) })
}

func (s *Store) Delete(ctx context.Context, id string) State {
	return s.dispatch(func(current State) State { return Delete(ctx, current, s.api, id) })
}

func (s *Store) ResetEditedStatus(ctx context.Context, id string) State {
	return s.dispatch(func(current State) State { return ResetEditedStatus(ctx, current, s.api, id) })
}

func (s *Store) dispatch(reduce func(State) State) State {
	current := s.State()
	s.set(State{Customers: current.Customers, Loading: true})

	next := reduce(current)
	s.set(next)
	return next
}

func (s *Store) set(state State) {
	s.mu.Lock()
	s.state = state
	subscribers := slices.Clone(s.subscribers)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(state)
	}
}
