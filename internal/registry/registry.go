// Package registry holds the deduplicating, insertion-ordered set of Items
// discovered during a crawl. It is the crawl engine's single source of
// truth: no other component caches items.
package registry

import (
	"log"

	"github.com/sasha-s/go-deadlock"

	"github.com/writefreely/gopherwalk"
)

// Registry is a deduplicating append-only ordered list of Items. Mutations
// are guarded by go-deadlock's Mutex rather than sync.Mutex. The canonical
// crawl only ever touches the Registry from its own sequential walk, but
// the analyzer's metering pass holds a reference to the same Registry as
// the crawl driver and inserts into it; go-deadlock flags any
// lock-ordering mistake a future caller introduces instead of letting it
// hang the run silently.
type Registry struct {
	mu        deadlock.Mutex
	items     []gopherwalk.Item
	index     map[key]struct{}
	descended map[string]bool
	Logger    *log.Logger
}

type key struct {
	kind   gopherwalk.ItemKind
	record string
}

// New creates an empty Registry. logger may be nil, in which case the
// package-level standard logger is used for first-insertion log lines.
func New(logger *log.Logger) *Registry {
	return &Registry{
		index:     make(map[key]struct{}),
		Logger:    logger,
		descended: make(map[string]bool),
	}
}

func (r *Registry) logf(format string, args ...interface{}) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Insert adds item if its (Kind, Record) pair has not been seen before. It
// reports whether the item was newly inserted, and logs a one-line entry on
// first insertion naming the indexed kind and record.
func (r *Registry) Insert(item gopherwalk.Item) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{item.Kind, item.Record}
	if _, seen := r.index[k]; seen {
		return false
	}
	r.index[k] = struct{}{}
	r.items = append(r.items, item)
	r.logf("Indexed %s: %s", item.Kind, item.Record)
	return true
}

// Items returns a snapshot of the registry in first-observation order.
// Iteration is by index at the call site, so appends that happen between
// snapshots are safe to observe by re-calling Items.
func (r *Registry) Items() []gopherwalk.Item {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]gopherwalk.Item, len(r.items))
	copy(out, r.items)
	return out
}

// Len reports how many items are currently indexed.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// At returns the item at index i. The crawl driver uses this, rather than
// holding a slice reference across appends, so that growth of the backing
// array never invalidates its cursor.
func (r *Registry) At(i int) gopherwalk.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[i]
}

// MarkDescended records that the Directory at selector has been fetched, so
// the crawl driver never descends into it twice even if it is re-discovered
// (the Insert dedup already prevents re-discovery, but MarkDescended keeps
// the "at most once" invariant independent of that).
func (r *Registry) MarkDescended(selector string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.descended[selector] {
		return false
	}
	r.descended[selector] = true
	return true
}
