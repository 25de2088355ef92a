// Package service contains the business rules: pagination clamping,
// visibility filtering, ownership checks, and credential handling.
// Services speak in repository interfaces and domain errors; they know
// nothing about HTTP or GraphQL.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/snippet-store/internal/apperror"
	"github.com/sakif/snippet-store/internal/loader"
	"github.com/sakif/snippet-store/internal/model"
	"github.com/sakif/snippet-store/internal/repository"
)

// Validation and pagination constants.
const (
	MaxTitleLength = 200
	MaxCodeLength  = 100000 // ~100KB of code

	DefaultPageLimit = 10
	MaxPageLimit     = 50
)

// CreateSnippetInput is the payload for creating a snippet.
type CreateSnippetInput struct {
	Title       string
	Language    string
	Code        string
	Description string
	Visibility  string
}

// SnippetService handles business logic for snippets.
type SnippetService struct {
	repo   repository.SnippetRepository
	logger *slog.Logger
}

// NewSnippetService creates a SnippetService.
func NewSnippetService(repo repository.SnippetRepository, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		repo:   repo,
		logger: logger,
	}
}

// clampPage normalizes (page, limit) to page >= 1 and limit in [1,50].
// A non-positive limit falls back to the default page size.
func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// ListPublic returns one page of public snippets, newest first.
func (s *SnippetService) ListPublic(ctx context.Context, page, limit int) (*model.SnippetPage, error) {
	page, limit = clampPage(page, limit)
	skip := (page - 1) * limit

	snippets, total, err := s.repo.ListPublic(ctx, repository.ListPage{Limit: limit, Offset: skip})
	if err != nil {
		s.logger.Error("failed to list public snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}

	return &model.SnippetPage{
		Snippets:   snippets,
		TotalCount: total,
		HasMore:    skip+len(snippets) < total,
	}, nil
}

// Search returns one page of public snippets whose title, description,
// code, or language contains query, case-insensitively, newest first.
// Private snippets never appear in search results, regardless of caller.
func (s *SnippetService) Search(ctx context.Context, query string, page, limit int) (*model.SnippetPage, error) {
	page, limit = clampPage(page, limit)
	skip := (page - 1) * limit

	snippets, total, err := s.repo.SearchPublic(ctx, query, repository.ListPage{Limit: limit, Offset: skip})
	if err != nil {
		s.logger.Error("failed to search snippets",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("searching snippets: %w", err)
	}

	return &model.SnippetPage{
		Snippets:   snippets,
		TotalCount: total,
		HasMore:    skip+len(snippets) < total,
	}, nil
}

// ListOwned returns one page of the snippets owned by ownerID, newest
// first, including private ones. Fails with an authentication error when
// no identity is present.
//
// When the request carries a loader set, the owner's full snippet list
// comes from the by-owner batch loader and is paged in memory, so repeated
// resolutions within one request share a single store query.
func (s *SnippetService) ListOwned(ctx context.Context, ownerID string, page, limit int) (*model.SnippetPage, error) {
	if ownerID == "" {
		return nil, apperror.Unauthenticated("authentication required")
	}
	page, limit = clampPage(page, limit)

	var all []model.Snippet
	if loaders, ok := loader.FromContext(ctx); ok {
		owned, err := loaders.SnippetsByOwner.Load(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("listing owned snippets: %w", err)
		}
		all = owned
	} else {
		owned, err := s.repo.ListByOwner(ctx, ownerID)
		if err != nil {
			s.logger.Error("failed to list owned snippets",
				slog.String("ownerID", ownerID),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("listing owned snippets: %w", err)
		}
		all = owned
	}

	return paginate(all, page, limit), nil
}

// paginate slices an already-sorted full result set into one page.
func paginate(all []model.Snippet, page, limit int) *model.SnippetPage {
	skip := (page - 1) * limit

	items := []model.Snippet{}
	if skip < len(all) {
		end := skip + limit
		if end > len(all) {
			end = len(all)
		}
		items = all[skip:end]
	}

	return &model.SnippetPage{
		Snippets:   items,
		TotalCount: len(all),
		HasMore:    skip+len(items) < len(all),
	}
}

// GetByID retrieves a snippet by id. Returns apperror.ErrNotFound when it
// doesn't exist; the API layer maps that to a null result. Prefers the
// request's snippet loader when one is attached.
func (s *SnippetService) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	if loaders, ok := loader.FromContext(ctx); ok {
		snippet, err := loaders.Snippets.Load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("getting snippet %s: %w", id, err)
		}
		if snippet == nil {
			return nil, apperror.NotFound("snippet", id)
		}
		return snippet, nil
	}

	return s.repo.GetByID(ctx, id)
}

// Create validates and saves a new snippet owned by ownerID.
func (s *SnippetService) Create(ctx context.Context, ownerID string, in CreateSnippetInput) (*model.Snippet, error) {
	if ownerID == "" {
		return nil, apperror.Unauthenticated("authentication required")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "snippet title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("snippet title must be %d characters or less", MaxTitleLength))
	}
	if !model.ValidLanguage(in.Language) {
		return nil, apperror.ValidationFailed("language",
			fmt.Sprintf("unsupported language %q", in.Language))
	}
	if in.Code == "" {
		return nil, apperror.ValidationFailed("code", "snippet code is required")
	}
	if len(in.Code) > MaxCodeLength {
		return nil, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}

	visibility := model.Visibility(in.Visibility)
	if in.Visibility == "" {
		visibility = model.VisibilityPublic
	}
	if !visibility.Valid() {
		return nil, apperror.ValidationFailed("visibility",
			fmt.Sprintf("visibility must be %q or %q", model.VisibilityPublic, model.VisibilityPrivate))
	}

	snippet := &model.Snippet{
		Title:       title,
		Language:    in.Language,
		Code:        in.Code,
		Description: strings.TrimSpace(in.Description),
		Visibility:  visibility,
		OwnerID:     ownerID,
	}

	if err := s.repo.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("ownerID", ownerID),
		slog.String("visibility", string(snippet.Visibility)),
	)

	return snippet, nil
}

// Delete removes a snippet permanently. Only the owner may delete it;
// anyone else gets an authorization error and the snippet is left intact.
func (s *SnippetService) Delete(ctx context.Context, callerID, id string) (bool, error) {
	if callerID == "" {
		return false, apperror.Unauthenticated("not authenticated")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return false, apperror.ValidationFailed("id", "snippet ID is required")
	}

	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if snippet.OwnerID != callerID {
		return false, apperror.Forbidden("you are not authorized to delete this snippet")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return false, err
	}

	s.logger.Info("snippet deleted",
		slog.String("id", id),
		slog.String("ownerID", callerID),
	)
	return true, nil
}
