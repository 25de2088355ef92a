// Package repository declares the storage interfaces consumed by the
// service and loader layers. The sqlite subpackage provides the concrete
// implementation; services only ever see these interfaces.
package repository

import (
	"context"

	"github.com/sakif/snippet-store/internal/model"
)

// ListPage is a limit/offset window over a listing query. Callers are
// expected to have clamped the values already (the service layer owns the
// [1,50] limit rule).
type ListPage struct {
	Limit  int
	Offset int
}

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// GetByIDs returns the users matching ids in a single query. Missing
	// ids are simply absent from the result; no error is returned for them.
	GetByIDs(ctx context.Context, ids []string) ([]model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

// SnippetRepository persists snippets.
type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	// GetByIDs returns the snippets matching ids in a single query.
	GetByIDs(ctx context.Context, ids []string) ([]model.Snippet, error)
	// ListPublic returns one page of public snippets, newest first, along
	// with the total number of public snippets.
	ListPublic(ctx context.Context, page ListPage) ([]model.Snippet, int, error)
	// ListByOwner returns all snippets owned by ownerID, newest first,
	// regardless of visibility.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Snippet, error)
	// ListByOwners returns all snippets owned by any of ownerIDs in a
	// single query.
	ListByOwners(ctx context.Context, ownerIDs []string) ([]model.Snippet, error)
	// SearchPublic returns one page of public snippets whose title,
	// description, code, or language contains query (case-insensitive),
	// newest first, along with the total match count.
	SearchPublic(ctx context.Context, query string, page ListPage) ([]model.Snippet, int, error)
	Delete(ctx context.Context, id string) error
}
