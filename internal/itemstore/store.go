// Package itemstore is a development stand-in for the remote item store.
// It keeps everything in memory and applies selections and new ids after
// a configurable lag, the way the real store ingests asynchronously.
package itemstore

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/google/uuid"

	"duallist/internal/clock"
	"duallist/internal/domain"
)

var (
	ErrNotFound     = errors.New("item not found")
	ErrExists       = errors.New("item already exists")
	ErrInvalidID    = errors.New("id must be a positive number")
	ErrInvalidOrder = errors.New("invalid order")
	ErrNoTicket     = errors.New("ticket not found")
)

const (
	DefaultLimit = 20
	MaxLimit     = 200
)

// Options configures a Store
type Options struct {
	Seed      int           // available ids 1..Seed
	SelectLag time.Duration // until a selected id moves
	IngestLag time.Duration // until an added id becomes available
}

// TicketState follows an added id through ingestion
type TicketState string

const (
	TicketPending  TicketState = "pending"
	TicketIngested TicketState = "ingested"
)

// Ticket is handed out for every accepted add
type Ticket struct {
	ID     string      `json:"ticket"`
	ItemID int         `json:"id"`
	State  TicketState `json:"state"`
}

// Store holds the available set and the ordered selection
type Store struct {
	mu    sync.Mutex
	clock clock.Clock
	opts  Options

	available *btree.BTreeG[int]
	selected  []int

	selecting map[int]bool
	ingesting map[int]bool
	tickets   map[string]*Ticket
}

// New creates a store seeded with opts.Seed available ids
func New(clk clock.Clock, opts Options) *Store {
	s := &Store{
		clock:     clk,
		opts:      opts,
		available: btree.NewG(32, func(a, b int) bool { return a < b }),
		selecting: map[int]bool{},
		ingesting: map[int]bool{},
		tickets:   map[string]*Ticket{},
	}
	for id := 1; id <= opts.Seed; id++ {
		s.available.ReplaceOrInsert(id)
	}
	return s
}

func normalize(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return offset, min(limit, MaxLimit)
}

// ListItems pages through the available ids whose decimal form contains
// filter, ascending.
func (s *Store) ListItems(filter string, offset, limit int) domain.Page {
	offset, limit = normalize(offset, limit)
	filter = strings.TrimSpace(filter)

	s.mu.Lock()
	defer s.mu.Unlock()

	page := domain.Page{Items: []domain.Item{}}
	s.available.Ascend(func(id int) bool {
		if filter != "" && !strings.Contains(strconv.Itoa(id), filter) {
			return true
		}
		if page.Total >= offset && page.Total < offset+limit {
			page.Items = append(page.Items, domain.Item{ID: id})
		}
		page.Total++
		return true
	})
	return page
}

// ListSelected pages through the selection in its stored order
func (s *Store) ListSelected(offset, limit int) domain.Page {
	offset, limit = normalize(offset, limit)

	s.mu.Lock()
	defer s.mu.Unlock()

	page := domain.Page{Items: []domain.Item{}, Total: len(s.selected)}
	if offset < len(s.selected) {
		for _, id := range s.selected[offset:min(offset+limit, len(s.selected))] {
			page.Items = append(page.Items, domain.Item{ID: id})
		}
	}
	return page
}

// Selected returns a copy of the whole selection
func (s *Store) Selected() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.selected)
}

// Select schedules id to move from the available set to the end of the
// selection.
func (s *Store) Select(id int) error {
	if id <= 0 {
		return ErrInvalidID
	}

	s.mu.Lock()
	switch {
	case s.selecting[id] || slices.Contains(s.selected, id):
		s.mu.Unlock()
		return fmt.Errorf("select %d: %w", id, ErrExists)
	case !s.available.Has(id):
		s.mu.Unlock()
		return fmt.Errorf("select %d: %w", id, ErrNotFound)
	}
	s.selecting[id] = true
	s.mu.Unlock()

	s.clock.AfterFunc(s.opts.SelectLag, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.selecting, id)
		if _, ok := s.available.Delete(id); ok {
			s.selected = append(s.selected, id)
		}
	})
	return nil
}

// Add schedules a new id for ingestion into the available set
func (s *Store) Add(id int) (Ticket, error) {
	if id <= 0 {
		return Ticket{}, ErrInvalidID
	}

	s.mu.Lock()
	if s.ingesting[id] || s.selecting[id] || s.available.Has(id) || slices.Contains(s.selected, id) {
		s.mu.Unlock()
		return Ticket{}, fmt.Errorf("add %d: %w", id, ErrExists)
	}
	t := &Ticket{ID: uuid.New().String(), ItemID: id, State: TicketPending}
	s.ingesting[id] = true
	s.tickets[t.ID] = t
	ticket := *t
	s.mu.Unlock()

	s.clock.AfterFunc(s.opts.IngestLag, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.ingesting, id)
		s.available.ReplaceOrInsert(id)
		t.State = TicketIngested
	})
	return ticket, nil
}

// Ticket looks up an ingestion ticket
func (s *Store) Ticket(id string) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return Ticket{}, fmt.Errorf("ticket %s: %w", id, ErrNoTicket)
	}
	return *t, nil
}

// Reorder moves the given ids to the front of the selection in the given
// order. Selected ids not mentioned keep their relative order behind them.
func (s *Store) Reorder(order []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int]bool, len(order))
	for _, id := range order {
		if seen[id] {
			return fmt.Errorf("reorder: id %d listed twice: %w", id, ErrInvalidOrder)
		}
		if !slices.Contains(s.selected, id) {
			return fmt.Errorf("reorder: id %d is not selected: %w", id, ErrInvalidOrder)
		}
		seen[id] = true
	}

	next := make([]int, 0, len(s.selected))
	next = append(next, order...)
	for _, id := range s.selected {
		if !seen[id] {
			next = append(next, id)
		}
	}
	s.selected = next
	return nil
}
