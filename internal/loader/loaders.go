package loader

import (
	"context"
	"net/http"

	"github.com/sakif/snippet-store/internal/model"
	"github.com/sakif/snippet-store/internal/repository"
)

// Loaders bundles the three per-request batch loaders: user by id,
// snippet by id, and all snippets owned by a user id.
type Loaders struct {
	Users           *Loader[string, *model.User]
	Snippets        *Loader[string, *model.Snippet]
	SnippetsByOwner *Loader[string, []model.Snippet]
}

// NewLoaders constructs a fresh loader set over the given repositories.
// Call once per inbound request.
func NewLoaders(users repository.UserRepository, snippets repository.SnippetRepository) *Loaders {
	return &Loaders{
		Users: New(func(ctx context.Context, ids []string) (map[string]*model.User, error) {
			fetched, err := users.GetByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			byID := make(map[string]*model.User, len(fetched))
			for i := range fetched {
				byID[fetched[i].ID] = &fetched[i]
			}
			return byID, nil
		}),
		Snippets: New(func(ctx context.Context, ids []string) (map[string]*model.Snippet, error) {
			fetched, err := snippets.GetByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			byID := make(map[string]*model.Snippet, len(fetched))
			for i := range fetched {
				byID[fetched[i].ID] = &fetched[i]
			}
			return byID, nil
		}),
		SnippetsByOwner: New(func(ctx context.Context, ownerIDs []string) (map[string][]model.Snippet, error) {
			fetched, err := snippets.ListByOwners(ctx, ownerIDs)
			if err != nil {
				return nil, err
			}
			// Every requested owner gets an entry, so owners with no
			// snippets cache an empty slice rather than refetching.
			byOwner := make(map[string][]model.Snippet, len(ownerIDs))
			for _, id := range ownerIDs {
				byOwner[id] = []model.Snippet{}
			}
			for _, s := range fetched {
				byOwner[s.OwnerID] = append(byOwner[s.OwnerID], s)
			}
			return byOwner, nil
		}),
	}
}

type contextKey struct{}

// NewContext returns a context carrying the loader set.
func NewContext(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext retrieves the request's loader set, if one was attached.
func FromContext(ctx context.Context) (*Loaders, bool) {
	l, ok := ctx.Value(contextKey{}).(*Loaders)
	return l, ok
}

// Middleware attaches a fresh loader set to every inbound request.
// Loaders are never shared across requests; their lifetime is exactly one
// API call.
func Middleware(users repository.UserRepository, snippets repository.SnippetRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := NewContext(r.Context(), NewLoaders(users, snippets))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
