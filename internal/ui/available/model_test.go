package available

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duallist/internal/clock"
	"duallist/internal/domain"
	"duallist/internal/eventbus"
	"duallist/internal/paging"
	"duallist/internal/ui/notice"
	"duallist/internal/ui/uitest"
)

type fixture struct {
	svc   *uitest.Service
	bus   eventbus.EventBus
	clock *clock.FakeClock
	inbox *uitest.Mailbox
	m     *Model
}

func newFixture(t *testing.T, n int) *fixture {
	t.Helper()
	f := &fixture{
		svc:   uitest.NewService(n),
		bus:   eventbus.New(),
		clock: clock.Fake(time.Unix(0, 0)),
		inbox: &uitest.Mailbox{},
	}
	f.m = New(context.Background(), f.svc, f.bus, f.clock, f.inbox.Post, Options{
		Limit:          20,
		BroadcastDelay: 1100 * time.Millisecond,
	})
	f.m.SetSize(40, 13)
	f.m.Focus()
	return f
}

func route(msg tea.Msg) bool {
	switch msg.(type) {
	case paging.PageMsg, SelectResult, RefreshMsg:
		return true
	}
	return false
}

func (f *fixture) drive(cmd tea.Cmd) []tea.Msg {
	return uitest.Drive(f.m, cmd, route)
}

func (f *fixture) press(keys ...string) []tea.Msg {
	var rest []tea.Msg
	for _, k := range keys {
		rest = append(rest, f.drive(f.m.Update(uitest.Key(k)))...)
	}
	return rest
}

func TestMountLoadsFirstPage(t *testing.T) {
	f := newFixture(t, 45)
	f.drive(f.m.Mount())

	assert.Len(t, f.m.Items(), 20)
	assert.Equal(t, []string{"GET /items filter= offset=0 limit=20"}, f.svc.Calls)
	assert.Equal(t, 1, f.bus.Subscribers(eventbus.SelectionChanged))
	assert.Contains(t, f.m.View(), "Select ID: 1")
	assert.Contains(t, f.m.View(), "Loading…")
}

func TestScrollingToSentinelLoadsNextPage(t *testing.T) {
	f := newFixture(t, 45)
	f.drive(f.m.Mount())

	// moving inside the first screen does not load
	f.press("j", "j")
	assert.Len(t, f.svc.Calls, 1)

	f.press("G")
	assert.Len(t, f.m.Items(), 40)
	assert.Equal(t, []string{
		"GET /items filter= offset=0 limit=20",
		"GET /items filter= offset=20 limit=20",
	}, f.svc.Calls)

	f.press("G")
	assert.Len(t, f.m.Items(), 45)
	assert.Contains(t, f.m.View(), "Loaded 45 of 45")

	// nothing left to load
	f.press("G", "k", "j")
	assert.Len(t, f.svc.Calls, 3)
}

func TestFilterResetsList(t *testing.T) {
	f := newFixture(t, 100)
	f.drive(f.m.Mount())

	f.press("/", "4")
	assert.True(t, f.m.Editing())
	assert.Equal(t, "4", f.m.Filter())
	assert.Len(t, f.m.Items(), 19)
	assert.Equal(t, "GET /items filter=4 offset=0 limit=20", f.svc.Calls[len(f.svc.Calls)-1])

	f.press("esc")
	assert.False(t, f.m.Editing())
	assert.Equal(t, "4", f.m.Filter())

	// esc outside the filter box clears it
	f.press("esc")
	assert.Equal(t, "", f.m.Filter())
	assert.Len(t, f.m.Items(), 20)
}

func TestStaleFilterResponseIgnored(t *testing.T) {
	f := newFixture(t, 100)
	f.drive(f.m.Mount())
	f.press("/")

	first := f.m.Update(uitest.Key("4"))
	second := f.m.Update(uitest.Key("2"))

	f.drive(second)
	f.drive(first)

	assert.Equal(t, []int{42}, domain.IDs(f.m.Items()))
}

func TestSelectItemClearsFilterAndBroadcastsLater(t *testing.T) {
	f := newFixture(t, 100)
	f.drive(f.m.Mount())
	f.press("/", "4", "2", "enter")
	require.Equal(t, []int{42}, domain.IDs(f.m.Items()))

	var emitted int
	f.bus.Subscribe(eventbus.SelectionChanged, func() { emitted++ })

	f.press("enter")
	assert.Contains(t, f.svc.Calls, "POST /select 42")
	assert.Equal(t, "", f.m.Filter())
	assert.Len(t, f.m.Items(), 20)
	assert.Equal(t, 1, f.clock.Pending())

	f.clock.Advance(time.Second)
	assert.Zero(t, emitted)
	f.clock.Advance(100 * time.Millisecond)
	assert.Equal(t, 1, emitted)

	// the pane's own subscription asks for a full reset
	posted := f.inbox.Take()
	require.Equal(t, []tea.Msg{RefreshMsg{}}, posted)
	before := len(f.svc.Calls)
	f.drive(f.m.Update(posted[0]))
	assert.Equal(t, "GET /items filter= offset=0 limit=20", f.svc.Calls[before])
	assert.NotContains(t, domain.IDs(f.m.Items()), 42)
}

func TestSelectFailureRaisesNoticeAndStillBroadcasts(t *testing.T) {
	f := newFixture(t, 50)
	f.drive(f.m.Mount())
	f.press("/", "3", "enter")
	require.Equal(t, "3", f.m.Filter())
	f.svc.SelectErr = errors.New("boom")

	var emitted int
	f.bus.Subscribe(eventbus.SelectionChanged, func() { emitted++ })

	rest := f.press("enter")
	require.Len(t, rest, 1)
	msg, ok := rest[0].(notice.Msg)
	require.True(t, ok)
	assert.Equal(t, notice.Error, msg.Notice.Level)

	assert.Equal(t, "", f.m.Filter())
	assert.Len(t, f.m.Items(), 20)
	assert.Equal(t, 1, f.clock.Pending())

	f.clock.Advance(1100 * time.Millisecond)
	assert.Equal(t, 1, emitted)
}

func TestUnmountStopsRefreshButBroadcastStillFires(t *testing.T) {
	f := newFixture(t, 5)
	f.drive(f.m.Mount())

	var emitted int
	f.bus.Subscribe(eventbus.SelectionChanged, func() { emitted++ })

	f.press("enter")
	f.m.Unmount()
	assert.Equal(t, 1, f.bus.Subscribers(eventbus.SelectionChanged))

	f.clock.Advance(2 * time.Second)
	assert.Equal(t, 1, emitted)
	assert.Empty(t, f.inbox.Take())
}

func TestLoadErrorShownInFooter(t *testing.T) {
	f := newFixture(t, 5)
	f.svc.ListErr = errors.New("down")
	f.drive(f.m.Mount())

	assert.False(t, f.m.Loading())
	assert.Contains(t, f.m.View(), "Load failed")

	f.svc.ListErr = nil
	f.press("r")
	assert.Len(t, f.m.Items(), 5)
	assert.Contains(t, f.m.View(), "Loaded 5 of 5")
}

func TestCursorAfterLoadErrorFetchesFirstPage(t *testing.T) {
	f := newFixture(t, 45)
	f.svc.ListErr = errors.New("down")
	f.drive(f.m.Mount())
	require.Empty(t, f.m.Items())

	f.svc.ListErr = nil
	f.press("j")

	assert.Equal(t, []string{
		"GET /items filter= offset=0 limit=20",
		"GET /items filter= offset=0 limit=20",
	}, f.svc.Calls)
	require.Len(t, f.m.Items(), 20)
	assert.Equal(t, 1, f.m.Items()[0].ID)
}

func TestKeysIgnoredWhenBlurred(t *testing.T) {
	f := newFixture(t, 5)
	f.drive(f.m.Mount())
	f.m.Blur()

	assert.Nil(t, f.m.Update(uitest.Key("enter")))
	assert.Nil(t, f.m.Update(uitest.Key("r")))
}
