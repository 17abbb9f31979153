package orders

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"kitchenboard/internal/models"
)

// ErrNotFound is returned for any operation on an unknown order id
var ErrNotFound = errors.New("order not found")

// Store holds the canonical set of orders for the current shift
type Store struct {
	mu     sync.RWMutex
	orders map[string]models.Order
	now    func() time.Time
}

// NewStore creates an empty order store
func NewStore() *Store {
	return &Store{
		orders: make(map[string]models.Order),
		now:    time.Now,
	}
}

// WithClock overrides the clock used for UpdatedAt bookkeeping
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Upsert inserts a new order or replaces an existing one by id.
// Replacing keeps the stored stage and order time: stage only moves through Update.
func (s *Store) Upsert(order models.Order) error {
	o := order.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.orders[o.ID]; ok {
		o.Stage = existing.Stage
		o.OrderTime = existing.OrderTime
	}
	if err := o.Validate(); err != nil {
		return err
	}

	o.UpdatedAt = s.now()
	s.orders[o.ID] = o
	return nil
}

// Get returns a copy of the order with the given id
func (s *Store) Get(id string) (models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return o.Clone(), nil
}

// All returns a snapshot of every order taken under a single read lock
func (s *Store) All() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		snapshot = append(snapshot, o.Clone())
	}
	return snapshot
}

// Len returns the number of orders in the store
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// Remove deletes an order. Removing an unknown id is a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, id)
}

// Update applies fn to a working copy of the order and commits it when fn
// succeeds and the result still validates. Mutations are serialized.
func (s *Store) Update(id string, fn func(o *models.Order) error) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[id]
	if !ok {
		return models.Order{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	working := current.Clone()
	if err := fn(&working); err != nil {
		return current.Clone(), err
	}
	working.ID = current.ID
	if err := working.Validate(); err != nil {
		return current.Clone(), err
	}

	working.UpdatedAt = s.now()
	s.orders[id] = working
	return working.Clone(), nil
}

// SetStation assigns the order to a prep station. An empty station clears it.
func (s *Store) SetStation(id, station string) (models.Order, error) {
	return s.Update(id, func(o *models.Order) error {
		if station == "" {
			o.AssignedStation = nil
			return nil
		}
		o.AssignedStation = &station
		return nil
	})
}

// SetPriority changes the order's priority
func (s *Store) SetPriority(id string, level models.Priority) (models.Order, error) {
	return s.Update(id, func(o *models.Order) error {
		o.Priority = level
		return nil
	})
}

// SetRush flags or unflags the order as a rush
func (s *Store) SetRush(id string, rush bool) (models.Order, error) {
	return s.Update(id, func(o *models.Order) error {
		o.IsRush = rush
		return nil
	})
}

// ReviseEstimate moves the order's estimated completion time
func (s *Store) ReviseEstimate(id string, eta time.Time) (models.Order, error) {
	return s.Update(id, func(o *models.Order) error {
		o.EstimatedCompletionTime = eta
		return nil
	})
}
