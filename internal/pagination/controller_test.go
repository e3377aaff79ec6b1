package pagination

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fake remote collection ---

type row struct {
	ID int `json:"id"`
}

type rawPage struct {
	Items []row
	Total int
	Page  int
	Limit int
}

type fakeSource struct {
	mu    sync.Mutex
	rows  []row
	err   error
	calls []Params
	gates map[int]chan struct{} // 1-based call index -> released when closed
}

func newFakeSource(n int) *fakeSource {
	s := &fakeSource{gates: map[int]chan struct{}{}}
	for i := 1; i <= n; i++ {
		s.rows = append(s.rows, row{ID: i})
	}
	return s
}

// hold makes the nth call block until the returned func is invoked.
func (s *fakeSource) hold(call int) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.gates[call] = ch
	return func() { close(ch) }
}

func (s *fakeSource) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *fakeSource) lastCall() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

// fetch ignores ctx on purpose so that gated calls complete late, like a
// transport without abort support.
func (s *fakeSource) fetch(_ context.Context, p Params) (rawPage, error) {
	s.mu.Lock()
	s.calls = append(s.calls, p)
	gate := s.gates[len(s.calls)]
	rows, err := s.rows, s.err
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return rawPage{}, err
	}
	start := min((p.Page-1)*p.Limit, len(rows))
	end := min(start+p.Limit, len(rows))
	return rawPage{Items: rows[start:end], Total: len(rows), Page: p.Page, Limit: p.Limit}, nil
}

func normalizeRaw(r rawPage) (Envelope[row], error) {
	return Envelope[row]{
		Results:      r.Items,
		Limit:        r.Limit,
		Page:         r.Page,
		TotalPages:   PageCount(r.Total, r.Limit),
		TotalResults: r.Total,
	}, nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestController(t *testing.T, src *fakeSource, opts ...Option) *Controller[row] {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger()), WithDebounce(30 * time.Millisecond)}, opts...)
	c := New(src.fetch, normalizeRaw, opts...)
	t.Cleanup(c.Close)
	return c
}

func waitCalls(t *testing.T, c *Controller[row], src *fakeSource, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return src.callCount() == n && !c.Loading()
	}, 2*time.Second, 5*time.Millisecond, "waiting for %d settled fetches", n)
}

func ids(rows []row) []int {
	out := make([]int, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

// --- Tests ---

func TestControllerIdleUntilStart(t *testing.T) {
	src := newFakeSource(5)
	c := newTestController(t, src, WithLimit(2))

	c.SetCustomFilters(map[string]any{"status": "APPLIED"})
	c.Refetch(RefetchOptions{})

	assert.Equal(t, 0, src.callCount())
	assert.False(t, c.Loading())
}

func TestControllerFirstPage(t *testing.T) {
	src := newFakeSource(5)
	c := newTestController(t, src, WithLimit(2))

	c.Start(context.Background())
	waitCalls(t, c, src, 1)

	snap := c.Snapshot()
	assert.Equal(t, []int{1, 2}, ids(snap.Data))
	assert.Equal(t, PageState{Page: 1, Limit: 2, TotalRows: 5, TotalPages: 3}, snap.PageParams)
	assert.Empty(t, snap.Error)
	assert.False(t, snap.Loading)
}

func TestControllerSetPageClamps(t *testing.T) {
	src := newFakeSource(10)
	c := newTestController(t, src, WithLimit(2))
	c.Start(context.Background())
	waitCalls(t, c, src, 1)
	require.Equal(t, 5, c.PageParams().TotalPages)

	c.SetPage(99)
	waitCalls(t, c, src, 2)
	assert.Equal(t, 5, c.PageParams().Page)
	assert.Equal(t, 5, src.lastCall().Page)

	c.SetPage(-3)
	waitCalls(t, c, src, 3)
	assert.Equal(t, 1, c.PageParams().Page)
}

func TestControllerSetPageSamePageDoesNotFetch(t *testing.T) {
	src := newFakeSource(10)
	c := newTestController(t, src, WithLimit(2))
	c.Start(context.Background())
	waitCalls(t, c, src, 1)

	c.SetPage(1)
	c.SetPage(0)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, src.callCount())
}

func TestControllerCustomFiltersResetPage(t *testing.T) {
	src := newFakeSource(10)
	c := newTestController(t, src, WithLimit(2))
	c.Start(context.Background())
	waitCalls(t, c, src, 1)

	c.SetPage(3)
	waitCalls(t, c, src, 2)
	require.Equal(t, 3, c.PageParams().Page)

	c.SetCustomFilters(map[string]any{"status": "INTERVIEW"})
	assert.Equal(t, 1, c.PageParams().Page)
	waitCalls(t, c, src, 3)

	last := src.lastCall()
	assert.Equal(t, 1, last.Page)
	assert.Equal(t, "INTERVIEW", last.Filters["status"])
	assert.Equal(t, "INTERVIEW", c.Filters().CustomFilters["status"])
}

func TestControllerSearchDebounceCollapses(t *testing.T) {
	src := newFakeSource(10)
	c := newTestController(t, src, WithLimit(2))
	c.Start(context.Background())
	waitCalls(t, c, src, 1)

	c.SetPage(4)
	waitCalls(t, c, src, 2)

	c.SetSearchQuery("a")
	c.SetSearchQuery("ab")
	c.SetSearchQuery("abc")
	assert.True(t, c.SearchPending())
	assert.Empty(t, c.Filters().SearchQuery, "nothing committed before the quiet interval")

	waitCalls(t, c, src, 3)
	time.Sleep(100 * time.Millisecond)

	assert.False(t, c.SearchPending())
	assert.Equal(t, 3, src.callCount(), "exactly one fetch for the burst")
	last := src.lastCall()
	assert.Equal(t, "abc", last.SearchQuery)
	assert.Equal(t, 1, last.Page)
	assert.Equal(t, "abc", c.Filters().SearchQuery)
	assert.Equal(t, 1, c.PageParams().Page)
}

func TestControllerSearchSameValueOnFirstPageDoesNotFetch(t *testing.T) {
	src := newFakeSource(4)
	c := newTestController(t, src, WithSearchQuery("go"))
	c.Start(context.Background())
	waitCalls(t, c, src, 1)

	c.SetSearchQuery("go")
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, src.callCount())
}

func TestControllerKeyChangeResetsImmediately(t *testing.T) {
	src := newFakeSource(5)
	c := newTestController(t, src, WithLimit(2), WithKey("jobs"))
	c.Start(context.Background())
	waitCalls(t, c, src, 1)
	c.SetPage(2)
	waitCalls(t, c, src, 2)

	release := src.hold(3)
	c.SetKey("templates")

	snap := c.Snapshot()
	assert.Empty(t, snap.Data)
	assert.True(t, snap.Loading)
	assert.Equal(t, "templates", snap.Key)
	assert.Equal(t, PageState{Page: 1, Limit: 2, TotalRows: 0, TotalPages: 0}, snap.PageParams)

	release()
	waitCalls(t, c, src, 3)
	assert.Equal(t, "templates", src.lastCall().Key)
	assert.Equal(t, []int{1, 2}, ids(c.Data()))
}

func TestControllerSetLimitResets(t *testing.T) {
	src := newFakeSource(5)
	c := newTestController(t, src, WithLimit(2))
	c.Start(context.Background())
	waitCalls(t, c, src, 1)

	release := src.hold(2)
	c.SetLimit(4)
	assert.Empty(t, c.Data())
	assert.Equal(t, PageState{Page: 1, Limit: 4}, c.PageParams())

	release()
	waitCalls(t, c, src, 2)
	assert.Equal(t, []int{1, 2, 3, 4}, ids(c.Data()))
	assert.Equal(t, 2, c.PageParams().TotalPages)
}

func TestControllerErrorKeepsStaleData(t *testing.T) {
	src := newFakeSource(3)
	c := newTestController(t, src, WithLimit(3))
	c.Start(context.Background())
	waitCalls(t, c, src, 1)
	require.Equal(t, []int{1, 2, 3}, ids(c.Data()))

	src.setErr(errors.New("backend unavailable"))
	c.Refetch(RefetchOptions{})
	waitCalls(t, c, src, 2)

	assert.Equal(t, "backend unavailable", c.Error())
	assert.Equal(t, []int{1, 2, 3}, ids(c.Data()))
	assert.False(t, c.Loading())

	// the next attempt clears the error
	src.setErr(nil)
	c.Refetch(RefetchOptions{})
	waitCalls(t, c, src, 3)
	assert.Empty(t, c.Error())
	assert.NoError(t, c.Err())
}

func TestControllerBlankErrorGetsDefaultMessage(t *testing.T) {
	src := newFakeSource(3)
	src.setErr(errors.New("  "))
	c := newTestController(t, src)
	c.Start(context.Background())
	waitCalls(t, c, src, 1)

	assert.Equal(t, DefaultErrorMessage, c.Error())
}

func TestControllerRefetchIsIdempotent(t *testing.T) {
	src := newFakeSource(5)
	c := newTestController(t, src, WithLimit(2))
	c.Start(context.Background())
	waitCalls(t, c, src, 1)

	c.Refetch(RefetchOptions{Page: 2})
	waitCalls(t, c, src, 2)
	first := c.Data()
	assert.False(t, c.Loading())

	c.Refetch(RefetchOptions{Page: 2})
	waitCalls(t, c, src, 3)
	assert.Equal(t, first, c.Data())
	assert.Equal(t, []int{3, 4}, ids(first))
	assert.False(t, c.Loading())
}

func TestControllerDiscardsStaleCompletion(t *testing.T) {
	src := newFakeSource(6)
	c := newTestController(t, src, WithLimit(2))
	c.Start(context.Background())
	waitCalls(t, c, src, 1)

	releaseSlow := src.hold(2)
	c.Refetch(RefetchOptions{Page: 1})
	require.Eventually(t, func() bool { return src.callCount() == 2 }, time.Second, 5*time.Millisecond)
	c.SetPage(2)
	waitCalls(t, c, src, 3)
	require.Equal(t, []int{3, 4}, ids(c.Data()))

	releaseSlow()
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, []int{3, 4}, ids(c.Data()), "late page 1 must not overwrite page 2")
	assert.Equal(t, 2, c.PageParams().Page)
	assert.False(t, c.Loading())
}

func TestControllerLoadingStaysUntilLatestCompletes(t *testing.T) {
	src := newFakeSource(6)
	c := newTestController(t, src, WithLimit(2))
	c.Start(context.Background())
	waitCalls(t, c, src, 1)

	releaseStale := src.hold(2)
	releaseLatest := src.hold(3)
	c.Refetch(RefetchOptions{})
	require.Eventually(t, func() bool { return src.callCount() == 2 }, time.Second, 5*time.Millisecond)
	c.SetPage(2)
	require.Eventually(t, func() bool { return src.callCount() == 3 }, time.Second, 5*time.Millisecond)

	// call 2 finishes first but is stale
	releaseStale()
	time.Sleep(20 * time.Millisecond)
	assert.True(t, c.Loading())
	assert.Equal(t, []int{1, 2}, ids(c.Data()))

	releaseLatest()
	waitCalls(t, c, src, 3)
	assert.Equal(t, []int{3, 4}, ids(c.Data()))
}

func TestControllerCloseSuppressesLateCompletion(t *testing.T) {
	src := newFakeSource(4)
	c := newTestController(t, src, WithLimit(2))
	release := src.hold(1)
	c.Start(context.Background())
	require.Eventually(t, func() bool { return src.callCount() == 1 }, time.Second, 5*time.Millisecond)

	events := c.Subscribe()
	c.Close()
	release()
	time.Sleep(30 * time.Millisecond)

	assert.Empty(t, c.Data())
	for range events {
		// drain the started event; the channel must be closed
	}
	c.SetPage(2)
	c.Refetch(RefetchOptions{})
	assert.Equal(t, 1, src.callCount())
}

func TestControllerCloseDropsPendingSearch(t *testing.T) {
	src := newFakeSource(4)
	c := newTestController(t, src)
	c.Start(context.Background())
	waitCalls(t, c, src, 1)

	c.SetSearchQuery("pending")
	assert.True(t, c.SearchPending())
	c.Close()
	assert.False(t, c.SearchPending())
	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, 1, src.callCount())
	assert.Empty(t, c.Filters().SearchQuery)
}

func TestControllerSettledMeansSearchCommitted(t *testing.T) {
	src := newFakeSource(4)
	c := newTestController(t, src, WithDebounce(time.Millisecond))
	c.Start(context.Background())
	waitCalls(t, c, src, 1)

	for i := range 200 {
		q := fmt.Sprintf("q%d", i)
		c.SetSearchQuery(q)
		require.Eventually(t, func() bool {
			return !c.Loading() && !c.SearchPending()
		}, 2*time.Second, 100*time.Microsecond)
		require.Equal(t, q, c.Filters().SearchQuery, "iteration %d settled before the search was committed", i)
	}
}

func TestControllerSearchPendingUntilLatestCommit(t *testing.T) {
	src := newFakeSource(4)
	c := newTestController(t, src)
	c.Start(context.Background())
	waitCalls(t, c, src, 1)

	c.SetSearchQuery("a")
	c.SetSearchQuery("ab")
	assert.True(t, c.SearchPending())

	// a commit left over from an earlier keystroke must not clear the flag
	c.commitSearch(1, "a")
	assert.True(t, c.SearchPending())

	require.Eventually(t, func() bool {
		return !c.SearchPending() && !c.Loading() && c.Filters().SearchQuery == "ab"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestControllerNormalizerPanicIsFetchFailure(t *testing.T) {
	src := newFakeSource(2)
	c := New(src.fetch, func(rawPage) (Envelope[row], error) {
		panic("unexpected shape")
	}, WithLogger(quietLogger()))
	t.Cleanup(c.Close)

	c.Start(context.Background())
	require.Eventually(t, func() bool { return src.callCount() == 1 && !c.Loading() }, time.Second, 5*time.Millisecond)
	assert.Contains(t, c.Error(), "unexpected shape")
}

func TestControllerRejectsInvalidEnvelope(t *testing.T) {
	src := newFakeSource(2)
	c := New(src.fetch, func(r rawPage) (Envelope[row], error) {
		return Envelope[row]{Results: r.Items, Limit: 0, Page: 1}, nil
	}, WithLogger(quietLogger()))
	t.Cleanup(c.Close)

	c.Start(context.Background())
	require.Eventually(t, func() bool { return src.callCount() == 1 && !c.Loading() }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, c.Err(), ErrInvalidEnvelope)
	assert.Empty(t, c.Data())
}

func TestControllerClampsPageAfterShrink(t *testing.T) {
	src := newFakeSource(10)
	c := newTestController(t, src, WithLimit(2))
	c.Start(context.Background())
	waitCalls(t, c, src, 1)
	c.SetPage(5)
	waitCalls(t, c, src, 2)

	src.mu.Lock()
	src.rows = src.rows[:4]
	src.mu.Unlock()

	// page 5 no longer exists: the controller follows up with page 2
	c.Refetch(RefetchOptions{})
	waitCalls(t, c, src, 4)
	assert.Equal(t, PageState{Page: 2, Limit: 2, TotalRows: 4, TotalPages: 2}, c.PageParams())
	assert.Equal(t, []int{3, 4}, ids(c.Data()))
}

func TestControllerUpdateData(t *testing.T) {
	src := newFakeSource(3)
	c := newTestController(t, src, WithLimit(3))
	c.Start(context.Background())
	waitCalls(t, c, src, 1)

	c.UpdateData(Update[row]{
		Data:       []row{{ID: 1}, {ID: 3}},
		PageParams: &PageState{Page: 1, Limit: 3, TotalRows: 2, TotalPages: 1},
	})

	assert.Equal(t, []int{1, 3}, ids(c.Data()))
	assert.Equal(t, 2, c.PageParams().TotalRows)
	assert.Equal(t, 1, src.callCount())
}

func TestControllerEvents(t *testing.T) {
	src := newFakeSource(3)
	c := newTestController(t, src, WithLimit(2))
	events := c.Subscribe()
	c.Start(context.Background())

	select {
	case ev := <-events:
		assert.Equal(t, EventStarted, ev.Type)
		assert.True(t, ev.Snapshot.Loading)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for started event")
	}

	select {
	case ev := <-events:
		assert.Equal(t, EventCompleted, ev.Type)
		assert.Equal(t, []int{1, 2}, ids(ev.Snapshot.Data))
		assert.Equal(t, uint64(1), ev.Seq)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for completed event")
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "", ErrorMessage(nil))
	assert.Equal(t, "boom", ErrorMessage(errors.New("boom")))
	assert.Equal(t, DefaultErrorMessage, ErrorMessage(errors.New("")))
}
