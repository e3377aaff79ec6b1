package pagination

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultErrorMessage is surfaced when a failure carries no message.
const DefaultErrorMessage = "An error occurred"

// DefaultLimit is the page size used when none is configured.
const DefaultLimit = 10

// EventType categorizes controller events.
type EventType string

const (
	EventStarted   EventType = "started"
	EventCompleted EventType = "completed"
	EventError     EventType = "error"
	EventReset     EventType = "reset"
	EventUpdated   EventType = "updated"
)

// Event is sent to subscribers whenever the exposed state changes.
type Event[T any] struct {
	Type     EventType
	Seq      uint64 // fetch sequence the event belongs to; 0 for local changes
	Err      error  // populated on EventError
	Snapshot Snapshot[T]
}

// Snapshot is a copy of everything a view renders from.
type Snapshot[T any] struct {
	Key        string
	Data       []T
	Loading    bool
	Error      string
	PageParams PageState
	Filters    Filters
}

// RefetchOptions overrides the page or limit for an explicit refetch. Zero
// values keep the current setting.
type RefetchOptions struct {
	Page  int
	Limit int
}

// Update patches the displayed data or pagination without fetching.
type Update[T any] struct {
	Data       []T
	PageParams *PageState
}

type loadFunc[T any] func(ctx context.Context, p Params) (Envelope[T], error)

// Controller coordinates a remote page fetch with a page cursor, a debounced
// search query and custom filters.
//
// Controller is safe for concurrent use. Setters apply synchronously; the
// fetches they trigger run on their own goroutines.
type Controller[T any] struct {
	load     loadFunc[T]
	debounce *Debouncer
	logger   *log.Logger

	mu            sync.Mutex
	key           string
	state         queryState
	search        string
	searchGen     uint64 // bumped per SetSearchQuery; only the latest commit clears searchPending
	searchPending bool
	filters       map[string]any
	items         []T
	loading       bool
	err           error
	refetches     uint64
	seq           uint64
	inflight      context.CancelFunc
	base          context.Context
	stop          context.CancelFunc
	started       bool
	closed        bool
	events        chan Event[T]
}

type settings struct {
	limit    int
	page     int
	debounce time.Duration
	key      string
	search   string
	filters  map[string]any
	logger   *log.Logger
	buffer   int
}

// Option configures a Controller.
type Option func(*settings)

// WithLimit sets the page size.
func WithLimit(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithPage sets the page requested by the first fetch.
func WithPage(n int) Option {
	return func(s *settings) { s.page = n }
}

// WithDebounce sets the quiet interval for SetSearchQuery.
func WithDebounce(d time.Duration) Option {
	return func(s *settings) { s.debounce = d }
}

// WithKey sets the initial collection key.
func WithKey(key string) Option {
	return func(s *settings) { s.key = key }
}

// WithSearchQuery sets an initial, already committed search query.
func WithSearchQuery(q string) Option {
	return func(s *settings) { s.search = q }
}

// WithCustomFilters sets the initial custom filters.
func WithCustomFilters(f map[string]any) Option {
	return func(s *settings) { s.filters = maps.Clone(f) }
}

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithEventBuffer sets the capacity of the Subscribe channel.
func WithEventBuffer(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.buffer = n
		}
	}
}

// New creates a controller from a fetch function and a normalizer that turns
// its raw response into an Envelope. The controller stays idle until Start.
func New[R, T any](fetch func(ctx context.Context, p Params) (R, error), normalize func(R) (Envelope[T], error), opts ...Option) *Controller[T] {
	cfg := settings{
		limit:    DefaultLimit,
		page:     1,
		debounce: DefaultDebounce,
		buffer:   16,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.Default()
	}

	return &Controller[T]{
		load:     composeLoad(fetch, normalize),
		debounce: NewDebouncer(cfg.debounce),
		logger:   cfg.logger.WithPrefix("pagination"),
		key:      cfg.key,
		state:    newQueryState(cfg.page, cfg.limit),
		search:   cfg.search,
		filters:  cfg.filters,
		events:   make(chan Event[T], cfg.buffer),
	}
}

// composeLoad chains fetch, normalize and validation into one call. A panic
// in either function is reported as an error.
func composeLoad[R, T any](fetch func(ctx context.Context, p Params) (R, error), normalize func(R) (Envelope[T], error)) loadFunc[T] {
	return func(ctx context.Context, p Params) (env Envelope[T], err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("pagination: fetch panicked: %v", r)
			}
		}()

		raw, err := fetch(ctx, p)
		if err != nil {
			return env, err
		}
		env, err = normalize(raw)
		if err != nil {
			return env, fmt.Errorf("normalize page: %w", err)
		}
		if err := ValidateEnvelope(env); err != nil {
			return env, err
		}
		return env, nil
	}
}

// Start binds the controller to ctx and dispatches the first fetch.
// Cancelling ctx cancels any fetch in flight. Calling Start twice, or after
// Close, does nothing.
func (c *Controller[T]) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.closed {
		return
	}
	c.started = true
	c.base, c.stop = context.WithCancel(ctx)
	c.dispatchLocked("start")
}

// Close disposes the controller. Pending debounced input is dropped, the
// in-flight fetch is cancelled and the event channel is closed.
func (c *Controller[T]) Close() {
	c.debounce.Cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.searchPending = false
	if c.inflight != nil {
		c.inflight()
		c.inflight = nil
	}
	if c.stop != nil {
		c.stop()
	}
	c.loading = false
	close(c.events)
}

// Subscribe returns the event channel. Sends never block: when the buffer is
// full the event is dropped. The channel is closed by Close.
func (c *Controller[T]) Subscribe() <-chan Event[T] {
	return c.events
}

// SetPage moves to page n, clamped into [1, max(totalPages, 1)] using the
// latest known page count. A fetch is dispatched only if the page changed.
func (c *Controller[T]) SetPage(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.state.setPage(n) {
		c.dispatchLocked("page")
	}
}

// SetSearchQuery records a keystroke. The value is committed once the
// debounce interval passes without another call; committing resets the page
// to 1.
func (c *Controller[T]) SetSearchQuery(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.searchGen++
	gen := c.searchGen
	c.searchPending = true
	c.debounce.Start(func() { c.commitSearch(gen, text) })
}

func (c *Controller[T]) commitSearch(gen uint64, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if gen == c.searchGen {
		c.searchPending = false
	}
	changed := text != c.search || c.state.cur.Page != 1
	c.search = text
	c.state.cur.Page = 1
	if changed {
		c.dispatchLocked("search")
	}
}

// SetCustomFilters replaces the custom filters and resets the page to 1.
func (c *Controller[T]) SetCustomFilters(f map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.filters = maps.Clone(f)
	c.state.cur.Page = 1
	c.dispatchLocked("filters")
}

// Refetch runs another fetch even if nothing changed.
func (c *Controller[T]) Refetch(opts RefetchOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if opts.Page > 0 {
		c.state.cur.Page = opts.Page
	}
	if opts.Limit > 0 {
		c.state.cur.Limit = opts.Limit
	}
	c.refetches++
	c.dispatchLocked("refetch")
}

// SetKey binds the controller to a different logical collection. The
// displayed data and pagination are reset before the next fetch starts.
func (c *Controller[T]) SetKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || key == c.key {
		return
	}
	c.key = key
	c.resetLocked(c.state.cur.Limit)
	c.dispatchLocked("key")
}

// SetLimit changes the page size, resetting data and pagination.
func (c *Controller[T]) SetLimit(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || n <= 0 || n == c.state.cur.Limit {
		return
	}
	c.resetLocked(n)
	c.dispatchLocked("limit")
}

// UpdateData patches the displayed state locally, e.g. after the view deleted
// a row. Nothing is fetched.
func (c *Controller[T]) UpdateData(u Update[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if u.Data != nil {
		c.items = slices.Clone(u.Data)
	}
	if u.PageParams != nil {
		p := *u.PageParams
		if p.Limit <= 0 {
			p.Limit = c.state.cur.Limit
		}
		p.Page = clampPage(p.Page, p.TotalPages)
		c.state.replace(p)
	}
	c.emitLocked(EventUpdated, 0, nil)
}

// Snapshot returns a copy of the current state.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Data returns a copy of the displayed page.
func (c *Controller[T]) Data() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Loading reports whether a fetch is in flight.
func (c *Controller[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Error returns the last failure message, or "".
func (c *Controller[T]) Error() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ErrorMessage(c.err)
}

// Err returns the last failure, or nil.
func (c *Controller[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// PageParams returns the pagination state.
func (c *Controller[T]) PageParams() PageState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.snapshot()
}

// Filters returns the committed search query and custom filters.
func (c *Controller[T]) Filters() Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Filters{SearchQuery: c.search, CustomFilters: maps.Clone(c.filters)}
}

// SearchPending reports whether search input has not been committed yet. It
// stays true until the commit has updated the filters and dispatched its
// fetch, so !Loading() && !SearchPending() means the view is settled.
func (c *Controller[T]) SearchPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searchPending
}

// Key returns the current collection key.
func (c *Controller[T]) Key() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key
}

// ErrorMessage collapses err into the single string shown to views.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return DefaultErrorMessage
}

func (c *Controller[T]) resetLocked(limit int) {
	c.items = nil
	c.state.reset(limit)
	c.emitLocked(EventReset, 0, nil)
}

// dispatchLocked starts a fetch for the current inputs. Caller must hold c.mu.
func (c *Controller[T]) dispatchLocked(reason string) {
	if !c.started || c.closed {
		return
	}
	if c.inflight != nil {
		c.inflight()
	}
	c.seq++
	seq := c.seq
	ctx, cancel := context.WithCancel(c.base)
	c.inflight = cancel
	c.loading = true
	c.err = nil

	p := Params{
		Key:         c.key,
		Page:        c.state.cur.Page,
		Limit:       c.state.cur.Limit,
		SearchQuery: c.search,
		Filters:     maps.Clone(c.filters),
	}
	c.logger.Debug("fetch dispatched", "seq", seq, "reason", reason, "key", p.Key, "page", p.Page, "limit", p.Limit, "search", p.SearchQuery, "refetches", c.refetches)
	c.emitLocked(EventStarted, seq, nil)

	go c.run(ctx, seq, p)
}

func (c *Controller[T]) run(ctx context.Context, seq uint64, p Params) {
	env, err := c.load(ctx, p)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if seq != c.seq {
		c.logger.Debug("stale page discarded", "seq", seq, "latest", c.seq)
		return
	}
	c.inflight()
	c.inflight = nil
	c.loading = false

	if err != nil {
		c.err = err
		c.logger.Warn("fetch failed", "seq", seq, "page", p.Page, "err", err)
		c.emitLocked(EventError, seq, err)
		return
	}

	c.items = env.Results
	page := clampPage(env.Page, env.TotalPages)
	c.state.replace(PageState{
		Page:       page,
		Limit:      env.Limit,
		TotalRows:  env.TotalResults,
		TotalPages: env.TotalPages,
	})
	c.emitLocked(EventCompleted, seq, nil)

	if page != env.Page {
		c.logger.Debug("page out of range after fetch", "page", env.Page, "totalPages", env.TotalPages)
		c.dispatchLocked("clamp")
	}
}

func (c *Controller[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{
		Key:        c.key,
		Data:       slices.Clone(c.items),
		Loading:    c.loading,
		Error:      ErrorMessage(c.err),
		PageParams: c.state.snapshot(),
		Filters:    Filters{SearchQuery: c.search, CustomFilters: maps.Clone(c.filters)},
	}
}

// emitLocked sends an event without blocking. Caller must hold c.mu.
func (c *Controller[T]) emitLocked(t EventType, seq uint64, err error) {
	if c.closed {
		return
	}
	select {
	case c.events <- Event[T]{Type: t, Seq: seq, Err: err, Snapshot: c.snapshotLocked()}:
	default:
	}
}
