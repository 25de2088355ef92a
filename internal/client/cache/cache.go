// Package cache implements the client-side normalized cache with the
// page-merge policies for paginated snippet lists.
//
// Entities are stored once, keyed by id: a snippet appearing in several
// cached lists (all, search, mine) is backed by a single entry, so
// updating it anywhere updates every view. List fields hold ordered id
// slices plus the pagination bookkeeping (totalCount, hasMore) and are
// keyed by operation name, with search lists additionally keyed by query
// string.
package cache

import (
	"sync"

	"github.com/sakif/snippet-store/internal/model"
)

// List keys for the operations sharing the paginated shape.
const (
	AllSnippetsKey = "getAllSnippets"
	MySnippetsKey  = "getMySnippets"
)

// SearchKey returns the list key for a search, scoped by query string so
// each search term keeps its own pagination state.
func SearchKey(query string) string {
	return "searchSnippets(" + query + ")"
}

// listState is the cached state of one paginated list field.
type listState struct {
	ids        []string
	totalCount int
	hasMore    bool
}

// Cache is the process-wide normalized store the UI reads from. All
// methods are safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	users    map[string]*model.User
	snippets map[string]*model.Snippet
	lists    map[string]*listState
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{
		users:    make(map[string]*model.User),
		snippets: make(map[string]*model.Snippet),
		lists:    make(map[string]*listState),
	}
}

// MergePage folds one page of a server response into the list identified
// by key.
//
// Page 1 (or an absent page, passed as <= 1) replaces the cached list
// entirely, which is what a refresh or a new search term needs. Pages 2+
// append: incoming items already present are dropped, the remainder is
// trimmed to totalCount-len(cached) items (clamped at zero, since a stale
// totalCount racing a concurrent delete can make that count negative),
// and the result is appended. hasMore is recomputed from the merged
// length, never trusted from the incoming page.
func (c *Cache) MergePage(key string, page int, incoming *model.SnippetPage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]string, 0, len(incoming.Snippets))
	for i := range incoming.Snippets {
		c.storeSnippet(&incoming.Snippets[i])
		ids = append(ids, incoming.Snippets[i].ID)
	}

	existing, ok := c.lists[key]
	if page <= 1 || !ok {
		c.lists[key] = &listState{
			ids:        dedupe(ids),
			totalCount: incoming.TotalCount,
			hasMore:    incoming.HasMore,
		}
		return
	}

	present := make(map[string]bool, len(existing.ids))
	for _, id := range existing.ids {
		present[id] = true
	}

	fresh := make([]string, 0, len(ids))
	for _, id := range ids {
		if !present[id] {
			present[id] = true
			fresh = append(fresh, id)
		}
	}

	remaining := incoming.TotalCount - len(existing.ids)
	if remaining < 0 {
		remaining = 0
	}
	if len(fresh) > remaining {
		fresh = fresh[:remaining]
	}

	existing.ids = append(existing.ids, fresh...)
	existing.totalCount = incoming.TotalCount
	existing.hasMore = len(existing.ids) < existing.totalCount
}

// ListPage materializes the cached list into the paginated response
// shape the UI renders. Returns false if the list has never been fetched.
func (c *Cache) ListPage(key string) (*model.SnippetPage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ls, ok := c.lists[key]
	if !ok {
		return nil, false
	}

	snippets := make([]model.Snippet, 0, len(ls.ids))
	for _, id := range ls.ids {
		if s, ok := c.snippets[id]; ok {
			snippets = append(snippets, *s)
		}
	}

	return &model.SnippetPage{
		Snippets:   snippets,
		TotalCount: ls.totalCount,
		HasMore:    ls.hasMore,
	}, true
}

// Snippet returns the normalized snippet entity for id, if cached.
func (c *Cache) Snippet(id string) (*model.Snippet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.snippets[id]
	if !ok {
		return nil, false
	}
	copied := *s
	return &copied, true
}

// User returns the normalized user entity for id, if cached.
func (c *Cache) User(id string) (*model.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[id]
	if !ok {
		return nil, false
	}
	copied := *u
	return &copied, true
}

// PutSnippet normalizes a single fetched snippet into the cache.
func (c *Cache) PutSnippet(s *model.Snippet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storeSnippet(s)
}

// PutUser normalizes a single fetched user into the cache.
func (c *Cache) PutUser(u *model.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storeUser(u)
}

// AddCreated folds a freshly created snippet into the cached lists: a
// public snippet is prepended to the all-snippets list and, when cached,
// to the my-snippets list; a private one touches only the my-snippets
// list. Counts are incremented and duplicate-by-id insertion is a no-op.
func (c *Cache) AddCreated(s *model.Snippet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.storeSnippet(s)

	if s.Visibility == model.VisibilityPublic {
		if _, ok := c.lists[AllSnippetsKey]; !ok {
			c.lists[AllSnippetsKey] = &listState{}
		}
		c.prepend(AllSnippetsKey, s.ID)
	}
	if _, ok := c.lists[MySnippetsKey]; ok {
		c.prepend(MySnippetsKey, s.ID)
	}
}

// Evict removes a deleted snippet from the normalized store and strips it
// out of every cached list that referenced it, decrementing that list's
// total count, clamped at zero.
func (c *Cache) Evict(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.snippets, id)

	for _, ls := range c.lists {
		idx := -1
		for i, cached := range ls.ids {
			if cached == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			continue
		}
		ls.ids = append(ls.ids[:idx], ls.ids[idx+1:]...)
		if ls.totalCount > 0 {
			ls.totalCount--
		}
		ls.hasMore = len(ls.ids) < ls.totalCount
	}
}

// Reset drops everything, e.g. on sign-out.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = make(map[string]*model.User)
	c.snippets = make(map[string]*model.Snippet)
	c.lists = make(map[string]*listState)
}

// storeSnippet normalizes s: the snippet is stored by id, its embedded
// owner is stored by id too, and the cached snippet points at the
// canonical user instance. Callers must hold c.mu.
func (c *Cache) storeSnippet(s *model.Snippet) {
	copied := *s
	if copied.Owner != nil {
		c.storeUser(copied.Owner)
		copied.Owner = c.users[copied.Owner.ID]
		copied.OwnerID = copied.Owner.ID
	}
	c.snippets[copied.ID] = &copied
}

// storeUser normalizes u, updating the canonical instance in place so
// every snippet referencing it observes the change.
func (c *Cache) storeUser(u *model.User) {
	if existing, ok := c.users[u.ID]; ok {
		*existing = *u
		return
	}
	copied := *u
	c.users[u.ID] = &copied
}

// prepend inserts id at the head of the list, guarding against
// duplicates. Callers must hold c.mu.
func (c *Cache) prepend(key, id string) {
	ls := c.lists[key]
	for _, cached := range ls.ids {
		if cached == id {
			return
		}
	}
	ls.ids = append([]string{id}, ls.ids...)
	ls.totalCount++
	ls.hasMore = len(ls.ids) < ls.totalCount
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
