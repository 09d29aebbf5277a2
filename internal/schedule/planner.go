package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Persisted state keys.
const (
	KeyPODetails   = "costdesk.schedule.po_details"
	KeyAllocations = "costdesk.schedule.vendor_allocations"
	KeyRows        = "costdesk.schedule.supply_rows"
)

var (
	// ErrRowNotFound is returned when a row id does not exist.
	ErrRowNotFound = errors.New("supply row not found")
	// ErrAllocationNotFound is returned when no allocation has the given name.
	ErrAllocationNotFound = errors.New("vendor allocation not found")
	// ErrAllocationName is returned for an allocation without a name.
	ErrAllocationName = errors.New("vendor name is required")
)

// Store persists JSON values under string keys.
type Store interface {
	Get(ctx context.Context, key string, v any) (bool, error)
	Put(ctx context.Context, key string, v any) error
}

// RowPatch carries the fields of an edit. Nil fields are left unchanged.
type RowPatch struct {
	Vendor      *string  `json:"vendor"`
	PlannedQty  *float64 `json:"plannedQty"`
	ReceivedQty *float64 `json:"receivedQty"`
	Date        *string  `json:"date"`
	Status      *Status  `json:"status"`
}

// Planner owns the schedule state. Every mutation re-sorts the rows and writes all three keys
// before the new state becomes visible; a failed write leaves the previous state in place.
type Planner struct {
	mu     sync.Mutex
	store  Store
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
	state  State
}

// Option configures a Planner.
type Option func(*Planner)

// WithClock overrides the clock used to seed dates.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// WithIDs overrides row id generation.
func WithIDs(newID func() string) Option {
	return func(p *Planner) { p.newID = newID }
}

// NewPlanner returns a Planner with empty state. Call Load to read persisted state.
func NewPlanner(store Store, logger *zap.Logger, opts ...Option) *Planner {
	p := &Planner{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
		state:  State{Allocations: []Allocation{}, Rows: []Row{}},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load replaces the in-memory state with the persisted one. Missing keys load as empty.
func (p *Planner) Load(ctx context.Context) error {
	var s State
	if _, err := p.store.Get(ctx, KeyPODetails, &s.PO); err != nil {
		return fmt.Errorf("load po details: %w", err)
	}
	if _, err := p.store.Get(ctx, KeyAllocations, &s.Allocations); err != nil {
		return fmt.Errorf("load vendor allocations: %w", err)
	}
	if _, err := p.store.Get(ctx, KeyRows, &s.Rows); err != nil {
		return fmt.Errorf("load supply rows: %w", err)
	}

	s = normalizeState(s)

	p.mu.Lock()
	p.state = s
	p.mu.Unlock()

	p.logger.Debug("schedule loaded", zap.Int("rows", len(s.Rows)), zap.Int("allocations", len(s.Allocations)))
	return nil
}

// State returns a copy of the current state.
func (p *Planner) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Clone()
}

// SetPO replaces the purchase order header.
func (p *Planner) SetPO(ctx context.Context, po PODetails) (State, error) {
	return p.mutate(ctx, func(s *State) error {
		s.PO = po
		return nil
	})
}

// AddRow appends a row, seeding its date from the last dated row when none is given.
func (p *Planner) AddRow(ctx context.Context, r Row) (Row, State, error) {
	var added Row
	s, err := p.mutate(ctx, func(s *State) error {
		r.ID = p.newID()
		if strings.TrimSpace(r.Date) == "" {
			r.Date = NextDate(s.Rows, p.now())
		}
		added = normalizeRow(r)
		s.Rows = append(s.Rows, added)
		return nil
	})
	if err != nil {
		return Row{}, State{}, err
	}
	return added, s, nil
}

// UpdateRow applies patch to the row with the given id.
func (p *Planner) UpdateRow(ctx context.Context, id string, patch RowPatch) (State, error) {
	return p.mutate(ctx, func(s *State) error {
		for i := range s.Rows {
			if s.Rows[i].ID != id {
				continue
			}
			r := s.Rows[i]
			if patch.Vendor != nil {
				r.Vendor = *patch.Vendor
			}
			if patch.PlannedQty != nil {
				r.PlannedQty = *patch.PlannedQty
			}
			if patch.ReceivedQty != nil {
				r.ReceivedQty = *patch.ReceivedQty
			}
			if patch.Date != nil {
				r.Date = *patch.Date
			}
			if patch.Status != nil {
				r.Status = *patch.Status
			}
			s.Rows[i] = normalizeRow(r)
			return nil
		}
		return ErrRowNotFound
	})
}

// DeleteRow removes the row with the given id.
func (p *Planner) DeleteRow(ctx context.Context, id string) (State, error) {
	return p.mutate(ctx, func(s *State) error {
		for i := range s.Rows {
			if s.Rows[i].ID == id {
				s.Rows = append(s.Rows[:i], s.Rows[i+1:]...)
				return nil
			}
		}
		return ErrRowNotFound
	})
}

// PutAllocation adds an allocation or replaces the one with the same name.
func (p *Planner) PutAllocation(ctx context.Context, a Allocation) (State, error) {
	a.Name = strings.TrimSpace(a.Name)
	a.Email = strings.TrimSpace(a.Email)
	if a.Name == "" {
		return State{}, ErrAllocationName
	}
	return p.mutate(ctx, func(s *State) error {
		for i := range s.Allocations {
			if strings.EqualFold(s.Allocations[i].Name, a.Name) {
				s.Allocations[i] = a
				return nil
			}
		}
		s.Allocations = append(s.Allocations, a)
		return nil
	})
}

// DeleteAllocation removes an allocation by name. Rows naming that vendor are kept.
func (p *Planner) DeleteAllocation(ctx context.Context, name string) (State, error) {
	return p.mutate(ctx, func(s *State) error {
		for i := range s.Allocations {
			if strings.EqualFold(s.Allocations[i].Name, name) {
				s.Allocations = append(s.Allocations[:i], s.Allocations[i+1:]...)
				return nil
			}
		}
		return ErrAllocationNotFound
	})
}

// Replace swaps in a whole state, e.g. one restored from an archive.
func (p *Planner) Replace(ctx context.Context, next State) (State, error) {
	return p.mutate(ctx, func(s *State) error {
		*s = next.Clone()
		for i := range s.Rows {
			if s.Rows[i].ID == "" {
				s.Rows[i].ID = p.newID()
			}
		}
		return nil
	})
}

func (p *Planner) mutate(ctx context.Context, fn func(*State) error) (State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.state.Clone()
	if err := fn(&next); err != nil {
		return State{}, err
	}
	next = normalizeState(next)

	if err := p.persist(ctx, next); err != nil {
		p.logger.Error("persist schedule", zap.Error(err))
		return State{}, err
	}

	p.state = next
	return next.Clone(), nil
}

func (p *Planner) persist(ctx context.Context, s State) error {
	if err := p.store.Put(ctx, KeyPODetails, s.PO); err != nil {
		return fmt.Errorf("save po details: %w", err)
	}
	if err := p.store.Put(ctx, KeyAllocations, s.Allocations); err != nil {
		return fmt.Errorf("save vendor allocations: %w", err)
	}
	if err := p.store.Put(ctx, KeyRows, s.Rows); err != nil {
		return fmt.Errorf("save supply rows: %w", err)
	}
	return nil
}

func normalizeState(s State) State {
	if s.Allocations == nil {
		s.Allocations = []Allocation{}
	}
	if s.Rows == nil {
		s.Rows = []Row{}
	}
	for i := range s.Rows {
		s.Rows[i] = normalizeRow(s.Rows[i])
	}
	SortRows(s.Rows)
	return s
}
