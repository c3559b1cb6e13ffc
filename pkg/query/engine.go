// Package query implements the reusable remote-pagination controller
// behind every list view: it binds a dynamic endpoint, page/size/sort/
// filter state, and materializes one page of results plus a total count.
package query

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/cexll/merchantops-go/pkg/apiclient"
)

const defaultPageSize = 20

// Options configures an Engine.
type Options struct {
	// Endpoint resolves the current target path. An empty result means
	// "nothing to fetch": the engine clears its page without a network call.
	Endpoint func() string
	// Sort is the initial sort expression.
	Sort string
	// Size is the initial page size. Zero means the default of 20.
	Size int
	// Filters seeds the filter map without counting as a change.
	Filters map[string]string
	// AutoFetch issues the first fetch at construction time.
	AutoFetch bool
	// Manual disables fetch-on-change; consumers subscribe and decide.
	Manual bool
}

// Engine is a generic paginated-list controller. Page is 1-based on the
// API surface and converted to the backend's zero-based index on the
// wire. Overlapping fetches are sequence-guarded: a stale response never
// overwrites a newer one.
type Engine[T any] struct {
	client *apiclient.Client

	mu       sync.Mutex
	endpoint func() string
	lastEP   string
	page     int
	size     int
	sort     string
	keyword  string
	filters  map[string]string

	items   []T
	total   int
	loading bool
	err     error

	seq    uint64
	closed bool
	manual bool

	subMu sync.Mutex
	subs  map[int]func(Change)
	nextS int
}

// New constructs an engine bound to the given endpoint resolver.
func New[T any](client *apiclient.Client, opts Options) *Engine[T] {
	size := opts.Size
	if size <= 0 {
		size = defaultPageSize
	}
	e := &Engine[T]{
		client:   client,
		endpoint: opts.Endpoint,
		page:     1,
		size:     size,
		sort:     opts.Sort,
		filters:  map[string]string{},
		manual:   opts.Manual,
		subs:     map[int]func(Change){},
	}
	for k, v := range opts.Filters {
		e.filters[k] = v
	}
	if e.endpoint != nil {
		e.lastEP = e.endpoint()
	}
	if opts.AutoFetch {
		_ = e.Fetch(context.Background())
	}
	return e
}

// OnChange registers a change subscriber and returns its cancel func.
// Subscribers run synchronously after the engine applies the change and
// before any automatic fetch.
func (e *Engine[T]) OnChange(fn func(Change)) func() {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	id := e.nextS
	e.nextS++
	e.subs[id] = fn
	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		delete(e.subs, id)
	}
}

// SetPage moves to a 1-based page and re-fetches.
func (e *Engine[T]) SetPage(ctx context.Context, page int) {
	if page < 1 {
		page = 1
	}
	e.mu.Lock()
	if e.page == page {
		e.mu.Unlock()
		return
	}
	e.page = page
	e.mu.Unlock()
	e.changed(ctx, ChangePage)
}

// SetSize changes the page size and re-fetches.
func (e *Engine[T]) SetSize(ctx context.Context, size int) {
	if size < 1 {
		size = defaultPageSize
	}
	e.mu.Lock()
	if e.size == size {
		e.mu.Unlock()
		return
	}
	e.size = size
	e.mu.Unlock()
	e.changed(ctx, ChangeSize)
}

// SetSort changes the sort expression and re-fetches.
func (e *Engine[T]) SetSort(ctx context.Context, sort string) {
	e.mu.Lock()
	if e.sort == sort {
		e.mu.Unlock()
		return
	}
	e.sort = sort
	e.mu.Unlock()
	e.changed(ctx, ChangeSort)
}

// SetKeyword changes the free-text search, rewinds to page 1 and re-fetches.
func (e *Engine[T]) SetKeyword(ctx context.Context, keyword string) {
	e.mu.Lock()
	e.keyword = keyword
	e.mu.Unlock()
	e.changed(ctx, ChangeKeyword)
}

// SetFilters replaces the filter map, rewinds to page 1 and re-fetches.
func (e *Engine[T]) SetFilters(ctx context.Context, filters map[string]string) {
	clone := make(map[string]string, len(filters))
	for k, v := range filters {
		clone[k] = v
	}
	e.mu.Lock()
	e.filters = clone
	e.mu.Unlock()
	e.changed(ctx, ChangeFilters)
}

// RefreshEndpoint re-resolves the endpoint. When the resolved value moved
// (for example "my branch" became "all branches"), pagination rewinds and
// the engine re-fetches.
func (e *Engine[T]) RefreshEndpoint(ctx context.Context) {
	if e.endpoint == nil {
		return
	}
	current := e.endpoint()
	e.mu.Lock()
	if current == e.lastEP {
		e.mu.Unlock()
		return
	}
	e.lastEP = current
	e.mu.Unlock()
	e.changed(ctx, ChangeEndpoint)
}

// Close tears the engine down; no fetch started afterwards mutates state.
func (e *Engine[T]) Close() {
	e.mu.Lock()
	e.closed = true
	e.seq++
	e.loading = false
	e.mu.Unlock()
}

// Items returns the current page of results.
func (e *Engine[T]) Items() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]T(nil), e.items...)
}

// Total returns the total row count reported by the backend.
func (e *Engine[T]) Total() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.total
}

// Page returns the current 1-based page.
func (e *Engine[T]) Page() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.page
}

// Size returns the current page size.
func (e *Engine[T]) Size() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.size
}

// Sort returns the current sort expression.
func (e *Engine[T]) Sort() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sort
}

// Loading reports whether a fetch is in flight.
func (e *Engine[T]) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// Err returns the last fetch error, nil after a success.
func (e *Engine[T]) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Fetch materializes the current page. An empty endpoint clears the page
// and issues no network call. On failure the previous items and total
// survive; only the error slot changes. Loading always ends false for
// the newest fetch.
func (e *Engine[T]) Fetch(ctx context.Context) error {
	// Resolve outside the lock; resolvers may call back into getters.
	var endpoint string
	if e.endpoint != nil {
		endpoint = e.endpoint()
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	if e.endpoint != nil {
		e.lastEP = endpoint
	}
	if endpoint == "" {
		// Invalidate any in-flight fetch so its response cannot
		// repopulate the cleared page.
		e.seq++
		e.items = nil
		e.total = 0
		e.err = nil
		e.loading = false
		e.mu.Unlock()
		return nil
	}

	e.seq++
	seq := e.seq
	e.loading = true

	params, err := apiclient.ListParams{
		Page:    e.page - 1,
		Size:    e.size,
		Sort:    e.sort,
		Keyword: e.keyword,
	}.Values()
	if err != nil {
		e.loading = false
		e.err = err
		e.mu.Unlock()
		return err
	}
	params = apiclient.MergeFilters(params, e.filters)
	size := e.size
	e.mu.Unlock()

	result := apiclient.Call[json.RawMessage](ctx, e.client, endpoint, apiclient.CallOptions{Params: params})

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || seq != e.seq {
		// A newer fetch owns the state now; this response is stale.
		return nil
	}
	e.loading = false
	if !result.Ok() {
		e.err = result.Err
		return result.Err
	}

	items, total, err := interpret[T](result, size)
	if err != nil {
		e.err = err
		return err
	}
	e.items = items
	e.total = total
	e.err = nil
	return nil
}

// interpret maps the three response shapes onto (items, total): an
// envelope with a content sequence plus a count header, a bare array plus
// a count header, or a bare array with the length as best-effort total.
func interpret[T any](result apiclient.Result[json.RawMessage], size int) ([]T, int, error) {
	var body json.RawMessage
	if result.Data != nil {
		body = *result.Data
	}

	headerTotal := -1
	if result.Header != nil {
		if raw := result.Header.Get(apiclient.HeaderTotalCount); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				headerTotal = n
			}
		}
	}

	var items []T
	if len(body) > 0 && headerTotal >= 0 {
		var envelope struct {
			Content json.RawMessage `json:"content"`
		}
		if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Content) > 0 {
			if err := json.Unmarshal(envelope.Content, &items); err != nil {
				return nil, 0, err
			}
			return capItems(items, size), headerTotal, nil
		}
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, 0, err
		}
		return capItems(items, size), headerTotal, nil
	}

	if len(body) > 0 {
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, 0, err
		}
	}
	items = capItems(items, size)
	return items, len(items), nil
}

func capItems[T any](items []T, size int) []T {
	if size > 0 && len(items) > size {
		return items[:size]
	}
	return items
}

func (e *Engine[T]) changed(ctx context.Context, change Change) {
	if ResetsPage(change) {
		e.mu.Lock()
		e.page = 1
		e.mu.Unlock()
	}
	e.notify(change)
	if !e.manual && ShouldFetch(change) {
		_ = e.Fetch(ctx)
	}
}

func (e *Engine[T]) notify(change Change) {
	e.subMu.Lock()
	subs := make([]func(Change), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.subMu.Unlock()
	for _, fn := range subs {
		fn(change)
	}
}
