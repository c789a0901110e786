// Package paging keeps a locally materialized prefix of a server-ordered
// collection in step with the server: pages are appended as the user
// scrolls, and the whole prefix is discarded and refetched on reset.
//
// A Collection lives inside a Bubble Tea Update loop. Reset and LoadMore
// return the fetch as a tea.Cmd; the resulting PageMsg must be handed
// back to Apply. Every Reset starts a new generation and responses from
// older generations are dropped, so a slow response to a superseded
// query never lands.
package paging

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"duallist/internal/domain"
)

// FetchFunc loads one page for query q.
type FetchFunc[Q any] func(ctx context.Context, q Q, offset, limit int) (domain.Page, error)

// PageMsg carries a fetch result back into the Update loop.
type PageMsg struct {
	Source     string
	Generation uint64
	Offset     int
	Page       domain.Page
	Err        error
}

// Collection is the incremental loader for one list.
type Collection[Q any] struct {
	name  string
	limit int
	fetch FetchFunc[Q]
	merge MergeFunc
	ctx   context.Context

	query      Q
	items      []domain.Item
	offset     int // offset of the most recently requested page
	prevOffset int // restored when that request fails
	total      int
	totalKnown bool
	loading    bool
	exhausted  bool // a later page came back empty
	generation uint64
	err        error
}

// New creates an empty collection. name routes PageMsgs when several
// collections share one Update loop, so it must be unique per program.
func New[Q any](name string, limit int, fetch FetchFunc[Q], merge MergeFunc) *Collection[Q] {
	if limit <= 0 {
		limit = 20
	}
	if merge == nil {
		merge = Append
	}
	return &Collection[Q]{
		name:  name,
		limit: limit,
		fetch: fetch,
		merge: merge,
		ctx:   context.Background(),
	}
}

// WithContext sets the context passed to every fetch
func (c *Collection[Q]) WithContext(ctx context.Context) *Collection[Q] {
	c.ctx = ctx
	return c
}

// Reset discards all local state and fetches the first page under q.
func (c *Collection[Q]) Reset(q Q) tea.Cmd {
	c.generation++
	c.query = q
	c.items = nil
	c.offset = 0
	c.prevOffset = 0
	c.total = 0
	c.totalKnown = false
	c.exhausted = false
	c.err = nil
	c.loading = true
	return c.fetchCmd(0)
}

// LoadMore requests the page after the last requested one. It returns
// nil while a fetch is in flight or when nothing is left to load. The
// offset advances before the command is returned so that a second
// trigger can never ask for the same page. Until a first page has been
// applied it asks for offset 0 again under the current query.
func (c *Collection[Q]) LoadMore() tea.Cmd {
	if c.loading || !c.HasMore() {
		return nil
	}
	if !c.totalKnown {
		c.offset, c.prevOffset = 0, 0
		c.loading = true
		return c.fetchCmd(0)
	}
	c.prevOffset = c.offset
	c.offset += c.limit
	c.loading = true
	return c.fetchCmd(c.offset)
}

func (c *Collection[Q]) fetchCmd(offset int) tea.Cmd {
	ctx, fetch, q := c.ctx, c.fetch, c.query
	name, gen, limit := c.name, c.generation, c.limit
	return func() tea.Msg {
		page, err := fetch(ctx, q, offset, limit)
		return PageMsg{
			Source:     name,
			Generation: gen,
			Offset:     offset,
			Page:       page,
			Err:        err,
		}
	}
}

// Owns reports whether msg was produced by this collection, any generation.
func (c *Collection[Q]) Owns(msg PageMsg) bool {
	return msg.Source == c.name
}

// Apply folds a fetch result into the collection. It returns false when
// the message belongs to another collection or to a superseded
// generation; such messages leave the state untouched.
func (c *Collection[Q]) Apply(msg PageMsg) bool {
	if msg.Source != c.name || msg.Generation != c.generation {
		return false
	}
	c.loading = false

	if msg.Err != nil {
		c.err = msg.Err
		if msg.Offset != 0 {
			c.offset = c.prevOffset
		}
		return true
	}

	c.err = nil
	c.items = c.merge(c.items, msg.Page.Items, msg.Offset)
	c.total = msg.Page.Total
	c.totalKnown = true
	if msg.Offset != 0 && len(msg.Page.Items) == 0 {
		c.exhausted = true
	}
	return true
}

// ObserveSentinel wires s so that its visibility triggers LoadMore. The
// returned function detaches it; call it on teardown.
func (c *Collection[Q]) ObserveSentinel(s *Sentinel) (unobserve func()) {
	return s.observe(func() tea.Cmd {
		if c.loading || !c.HasMore() {
			return nil
		}
		return c.LoadMore()
	})
}

// SetItems replaces the materialized items without touching paging
// state. Used by owners that reorder locally.
func (c *Collection[Q]) SetItems(items []domain.Item) {
	c.items = items
}

func (c *Collection[Q]) Items() []domain.Item { return c.items }

func (c *Collection[Q]) Len() int { return len(c.items) }

// Total returns the last reported total and whether one has been seen
// since the last reset.
func (c *Collection[Q]) Total() (int, bool) { return c.total, c.totalKnown }

// HasMore is true while the total is unknown or not all items are
// loaded, with one exception to that total-based rule: once a later page
// comes back empty it is false even though fewer than total items are
// loaded, so a server overstating its total cannot keep paging alive.
func (c *Collection[Q]) HasMore() bool {
	if c.exhausted {
		return false
	}
	return !c.totalKnown || len(c.items) < c.total
}

func (c *Collection[Q]) Loading() bool { return c.loading }

func (c *Collection[Q]) Offset() int { return c.offset }

func (c *Collection[Q]) Limit() int { return c.limit }

func (c *Collection[Q]) Query() Q { return c.query }

func (c *Collection[Q]) Generation() uint64 { return c.generation }

// Err is the error of the last applied fetch, nil after a success.
func (c *Collection[Q]) Err() error { return c.err }

func (c *Collection[Q]) Name() string { return c.name }
