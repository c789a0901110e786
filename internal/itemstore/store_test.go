package itemstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duallist/internal/clock"
	"duallist/internal/domain"
)

func newStore(seed int) (*Store, *clock.FakeClock) {
	clk := clock.Fake(time.Unix(0, 0))
	return New(clk, Options{Seed: seed, SelectLag: time.Second, IngestLag: 10 * time.Second}), clk
}

func TestListItemsFiltersAndPages(t *testing.T) {
	s, _ := newStore(100)

	page := s.ListItems("4", 0, 5)
	assert.Equal(t, 19, page.Total)
	assert.Equal(t, []int{4, 14, 24, 34, 40}, domain.IDs(page.Items))

	page = s.ListItems("4", 15, 5)
	assert.Equal(t, []int{64, 74, 84, 94}, domain.IDs(page.Items))

	page = s.ListItems("", 200, 20)
	assert.Equal(t, 100, page.Total)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
}

func TestListItemsClampsLimit(t *testing.T) {
	s, _ := newStore(500)
	assert.Len(t, s.ListItems("", 0, 0).Items, DefaultLimit)
	assert.Len(t, s.ListItems("", 0, 10000).Items, MaxLimit)
}

func TestSelectAppliesAfterLag(t *testing.T) {
	s, clk := newStore(10)

	require.NoError(t, s.Select(3))
	assert.Equal(t, 10, s.ListItems("", 0, 20).Total)
	assert.ErrorIs(t, s.Select(3), ErrExists)

	clk.Advance(time.Second)
	assert.Equal(t, 9, s.ListItems("", 0, 20).Total)
	assert.Equal(t, []int{3}, s.Selected())
	assert.ErrorIs(t, s.Select(3), ErrExists)

	assert.ErrorIs(t, s.Select(42), ErrNotFound)
	assert.ErrorIs(t, s.Select(0), ErrInvalidID)
}

func TestAddIngestsAfterLag(t *testing.T) {
	s, clk := newStore(10)

	ticket, err := s.Add(500)
	require.NoError(t, err)
	assert.Equal(t, 500, ticket.ItemID)
	assert.Equal(t, TicketPending, ticket.State)
	assert.NotEmpty(t, ticket.ID)

	_, err = s.Add(500)
	assert.ErrorIs(t, err, ErrExists)
	_, err = s.Add(5)
	assert.ErrorIs(t, err, ErrExists)

	clk.Advance(9 * time.Second)
	assert.Empty(t, s.ListItems("500", 0, 20).Items)

	clk.Advance(time.Second)
	assert.Equal(t, []int{500}, domain.IDs(s.ListItems("500", 0, 20).Items))

	got, err := s.Ticket(ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, TicketIngested, got.State)

	_, err = s.Ticket("nope")
	assert.ErrorIs(t, err, ErrNoTicket)
}

func TestAddRejectsSelectedIDs(t *testing.T) {
	s, clk := newStore(5)
	require.NoError(t, s.Select(2))
	_, err := s.Add(2)
	assert.ErrorIs(t, err, ErrExists)

	clk.Advance(time.Second)
	_, err = s.Add(2)
	assert.ErrorIs(t, err, ErrExists)
}

func selectAll(t *testing.T, s *Store, clk *clock.FakeClock, ids ...int) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, s.Select(id))
	}
	clk.Advance(time.Second)
}

func TestReorder(t *testing.T) {
	s, clk := newStore(10)
	selectAll(t, s, clk, 1, 2, 3, 4, 5)

	require.NoError(t, s.Reorder([]int{3, 1, 2, 4, 5}))
	assert.Equal(t, []int{3, 1, 2, 4, 5}, s.Selected())

	// a prefix moves to the front, the rest keeps its order
	require.NoError(t, s.Reorder([]int{5, 4}))
	assert.Equal(t, []int{5, 4, 3, 1, 2}, s.Selected())

	require.NoError(t, s.Reorder(nil))
	assert.Equal(t, []int{5, 4, 3, 1, 2}, s.Selected())
}

func TestReorderRejectsBadOrders(t *testing.T) {
	s, clk := newStore(10)
	selectAll(t, s, clk, 1, 2, 3)

	assert.ErrorIs(t, s.Reorder([]int{1, 1}), ErrInvalidOrder)
	assert.ErrorIs(t, s.Reorder([]int{1, 9}), ErrInvalidOrder)
	assert.Equal(t, []int{1, 2, 3}, s.Selected())
}

func TestListSelectedPages(t *testing.T) {
	s, clk := newStore(30)
	for id := 1; id <= 25; id++ {
		require.NoError(t, s.Select(id))
	}
	clk.Advance(time.Second)

	page := s.ListSelected(20, 20)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, []int{21, 22, 23, 24, 25}, domain.IDs(page.Items))
}
