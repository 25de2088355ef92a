package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snippet-store/internal/apperror"
	"github.com/sakif/snippet-store/internal/model"
	"github.com/sakif/snippet-store/internal/repository"
)

// SnippetRepo implements repository.SnippetRepository over the shared
// pool.
type SnippetRepo struct {
	conn *sql.DB
}

var _ repository.SnippetRepository = (*SnippetRepo)(nil)

const snippetColumns = `id, title, language, code, description, visibility, owner_id, created_at, updated_at`

// newestFirst orders by creation time, newest first. The id tie-break
// keeps ordering deterministic when two snippets share a timestamp: xids
// embed a per-process counter, so later ids sort later.
const newestFirst = ` ORDER BY created_at DESC, id DESC`

// publicOnly restricts a query to publicly visible snippets.
const publicOnly = `visibility = 'public'`

// searchMatch is the case-insensitive substring match across the four
// searchable fields.
const searchMatch = `(instr(lower(title), lower(?)) > 0
	OR instr(lower(description), lower(?)) > 0
	OR instr(lower(code), lower(?)) > 0
	OR instr(lower(language), lower(?)) > 0)`

// Create inserts a new snippet. The generated xid and timestamps are
// written back into snippet.
func (r *SnippetRepo) Create(ctx context.Context, snippet *model.Snippet) error {
	now := time.Now()
	snippet.ID = xid.New().String()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO snippets (id, title, language, code, description, visibility, owner_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.Title,
		snippet.Language,
		snippet.Code,
		snippet.Description,
		string(snippet.Visibility),
		snippet.OwnerID,
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

// GetByID retrieves a single snippet by id, regardless of visibility.
// Returns apperror.ErrNotFound if the snippet doesn't exist.
func (r *SnippetRepo) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ?`, id)

	s, err := scanSnippet(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}
	return s, nil
}

// GetByIDs fetches all snippets matching ids in one query. Missing ids are
// absent from the result.
func (r *SnippetRepo) GetByIDs(ctx context.Context, ids []string) ([]model.Snippet, error) {
	if len(ids) == 0 {
		return []model.Snippet{}, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id IN (`+placeholders(len(ids))+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: batch getting snippets: %w", err)
	}
	defer rows.Close()

	return collectSnippets(rows)
}

// ListPublic returns one page of public snippets, newest first, plus the
// total count of public snippets.
func (r *SnippetRepo) ListPublic(ctx context.Context, page repository.ListPage) ([]model.Snippet, int, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE `+publicOnly+newestFirst+` LIMIT ? OFFSET ?`,
		page.Limit, page.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing public snippets: %w", err)
	}
	defer rows.Close()

	snippets, err := collectSnippets(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = r.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snippets WHERE `+publicOnly).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting public snippets: %w", err)
	}

	return snippets, total, nil
}

// ListByOwner returns all snippets owned by ownerID, newest first,
// including private ones.
func (r *SnippetRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Snippet, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE owner_id = ?`+newestFirst,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	return collectSnippets(rows)
}

// ListByOwners returns all snippets owned by any of ownerIDs in a single
// query, for the by-owner batch loader.
func (r *SnippetRepo) ListByOwners(ctx context.Context, ownerIDs []string) ([]model.Snippet, error) {
	if len(ownerIDs) == 0 {
		return []model.Snippet{}, nil
	}

	args := make([]any, len(ownerIDs))
	for i, id := range ownerIDs {
		args[i] = id
	}

	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE owner_id IN (`+placeholders(len(ownerIDs))+`)`+newestFirst,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: batch listing snippets by owner: %w", err)
	}
	defer rows.Close()

	return collectSnippets(rows)
}

// SearchPublic returns one page of public snippets whose title,
// description, code, or language contains query, case-insensitively,
// newest first, plus the total match count.
func (r *SnippetRepo) SearchPublic(ctx context.Context, query string, page repository.ListPage) ([]model.Snippet, int, error) {
	where := publicOnly + ` AND ` + searchMatch

	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE `+where+newestFirst+` LIMIT ? OFFSET ?`,
		query, query, query, query, page.Limit, page.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: searching snippets: %w", err)
	}
	defer rows.Close()

	snippets, err := collectSnippets(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = r.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snippets WHERE `+where,
		query, query, query, query,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting search matches: %w", err)
	}

	return snippets, total, nil
}

// Delete removes a snippet permanently. Returns apperror.ErrNotFound if no
// row matched.
func (r *SnippetRepo) Delete(ctx context.Context, id string) error {
	result, err := r.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}

	return nil
}

func scanSnippet(s scanner) (*model.Snippet, error) {
	var sn model.Snippet
	var visibility string
	err := s.Scan(
		&sn.ID,
		&sn.Title,
		&sn.Language,
		&sn.Code,
		&sn.Description,
		&visibility,
		&sn.OwnerID,
		&sn.CreatedAt,
		&sn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sn.Visibility = model.Visibility(visibility)
	return &sn, nil
}

func collectSnippets(rows *sql.Rows) ([]model.Snippet, error) {
	snippets := []model.Snippet{}
	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}
	return snippets, nil
}
