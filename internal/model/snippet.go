package model

import "time"

// Visibility controls who can discover a snippet.
type Visibility string

const (
	// VisibilityPublic snippets appear in listings and search for everyone.
	VisibilityPublic Visibility = "public"
	// VisibilityPrivate snippets are visible only to their owner.
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is one of the known visibility values.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Languages is the fixed set of language tags a snippet may carry.
var Languages = []string{
	"javascript",
	"python",
	"java",
	"c++",
	"ruby",
	"swift",
	"go",
	"php",
	"typescript",
	"rust",
	"sql",
	"bash",
}

// ValidLanguage reports whether lang is one of the supported language tags.
func ValidLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Snippet is a stored unit of code with metadata.
//
// A snippet always belongs to exactly one owner, set at creation time and
// never transferred. OwnerID is the persisted reference; Owner is the
// denormalized profile attached when a snippet travels through the API:
// the server resolves it per request through the user loader, the client
// keeps one normalized User instance per id.
type Snippet struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Language    string     `json:"language"`
	Code        string     `json:"code"`
	Description string     `json:"description,omitempty"`
	Visibility  Visibility `json:"visibility"`
	OwnerID     string     `json:"-"`
	Owner       *User      `json:"owner,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// SnippetPage is one page of a snippet listing.
//
// TotalCount is the number of snippets matching the whole query, not just
// this page. HasMore is true when skip+len(Snippets) < TotalCount.
type SnippetPage struct {
	Snippets   []Snippet `json:"snippets"`
	TotalCount int       `json:"totalCount"`
	HasMore    bool      `json:"hasMore"`
}
