// Package client is the Go API client for the snippet-store GraphQL
// endpoint. It maintains the normalized cache (see the cache subpackage),
// persists the session across runs, and checks token expiry locally
// before every request so an expired credential is simply omitted instead
// of sent to certain rejection.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sakif/snippet-store/internal/client/cache"
	"github.com/sakif/snippet-store/internal/model"
)

// snippetFields is the snippet selection shared by every operation, owner
// included so the cache can normalize it.
const snippetFields = `
	id
	title
	language
	code
	description
	visibility
	createdAt
	updatedAt
	owner {
		id
		username
		email
		createdAt
		updatedAt
	}`

// userFields is the public profile selection.
const userFields = `
	id
	username
	email
	createdAt
	updatedAt`

// APIError is an error surfaced by the server inside a GraphQL response.
// The message is exactly what the server produced.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// CreateSnippetInput is the payload for CreateSnippet.
type CreateSnippetInput struct {
	Title       string `json:"title"`
	Language    string `json:"language"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Visibility  string `json:"visibility"`
}

// Client talks to one snippet-store endpoint. It is safe for concurrent
// use.
type Client struct {
	endpoint    string
	http        *http.Client
	cache       *cache.Cache
	sessionPath string

	mu      sync.Mutex
	session *Session
	signout *time.Timer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, e.g. with a test
// server's client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSessionPath overrides where the session file lives.
func WithSessionPath(path string) Option {
	return func(c *Client) { c.sessionPath = path }
}

// New creates a Client for the given GraphQL endpoint URL and restores
// any persisted session. A stored token that has already expired is
// discarded immediately; a live one gets a local sign-out scheduled for
// the moment it expires.
func New(endpoint string, opts ...Option) (*Client, error) {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 30 * time.Second},
		cache:    cache.New(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.sessionPath == "" {
		path, err := DefaultSessionPath()
		if err != nil {
			return nil, err
		}
		c.sessionPath = path
	}

	session, err := LoadSession(c.sessionPath)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.session = session
	if c.session.Token != "" {
		if tokenExpired(c.session.Token) {
			if err := c.clearSessionLocked(); err != nil {
				c.mu.Unlock()
				return nil, err
			}
		} else {
			c.scheduleSignoutLocked()
		}
	}
	c.mu.Unlock()

	return c, nil
}

// Cache exposes the normalized cache, the store the UI layer reads from.
func (c *Client) Cache() *cache.Cache {
	return c.cache
}

// CurrentUser returns the signed-in user's profile, or nil when
// anonymous.
func (c *Client) CurrentUser() *model.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.session.Token == "" || tokenExpired(c.session.Token) {
		return nil
	}
	return c.session.User
}

// Register creates an account, stores the issued session, and returns the
// new profile.
func (c *Client) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	query := fmt.Sprintf(`mutation RegisterUser($input: CreateUserInput!) {
		registerUser(input: $input) { token user {%s} }
	}`, userFields)

	var payload struct {
		Token string      `json:"token"`
		User  *model.User `json:"user"`
	}
	err := c.do(ctx, query, map[string]any{
		"input": map[string]any{"username": username, "email": email, "password": password},
	}, "registerUser", &payload)
	if err != nil {
		return nil, err
	}

	if err := c.adoptSession(payload.Token, payload.User); err != nil {
		return nil, err
	}
	return payload.User, nil
}

// Login authenticates, stores the issued session, and returns the
// profile.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	query := fmt.Sprintf(`mutation LoginUser($input: LoginInput!) {
		loginUser(input: $input) { token user {%s} }
	}`, userFields)

	var payload struct {
		Token string      `json:"token"`
		User  *model.User `json:"user"`
	}
	err := c.do(ctx, query, map[string]any{
		"input": map[string]any{"email": email, "password": password},
	}, "loginUser", &payload)
	if err != nil {
		return nil, err
	}

	if err := c.adoptSession(payload.Token, payload.User); err != nil {
		return nil, err
	}
	return payload.User, nil
}

// Logout clears the persisted session and resets the cache.
func (c *Client) Logout() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clearSessionLocked()
}

// AllSnippets fetches one page of public snippets, merges it into the
// cache, and returns the full merged list view (what a UI rendering the
// "all snippets" page shows after the fetch).
func (c *Client) AllSnippets(ctx context.Context, page, limit int) (*model.SnippetPage, error) {
	query := fmt.Sprintf(`query GetSnippets($page: Int, $limit: Int) {
		getAllSnippets(page: $page, limit: $limit) {
			snippets {%s}
			totalCount
			hasMore
		}
	}`, snippetFields)

	var result model.SnippetPage
	err := c.do(ctx, query, map[string]any{"page": page, "limit": limit}, "getAllSnippets", &result)
	if err != nil {
		return nil, err
	}

	c.cache.MergePage(cache.AllSnippetsKey, page, &result)
	merged, _ := c.cache.ListPage(cache.AllSnippetsKey)
	return merged, nil
}

// MySnippets fetches one page of the caller's snippets and returns the
// merged list view. Fails with the server's authentication error when
// anonymous.
func (c *Client) MySnippets(ctx context.Context, page, limit int) (*model.SnippetPage, error) {
	query := fmt.Sprintf(`query GetMySnippets($page: Int, $limit: Int) {
		getMySnippets(page: $page, limit: $limit) {
			snippets {%s}
			totalCount
			hasMore
		}
	}`, snippetFields)

	var result model.SnippetPage
	err := c.do(ctx, query, map[string]any{"page": page, "limit": limit}, "getMySnippets", &result)
	if err != nil {
		return nil, err
	}

	c.cache.MergePage(cache.MySnippetsKey, page, &result)
	merged, _ := c.cache.ListPage(cache.MySnippetsKey)
	return merged, nil
}

// SearchSnippets fetches one page of search results for query and returns
// the merged list view for that query string.
func (c *Client) SearchSnippets(ctx context.Context, searchQuery string, page, limit int) (*model.SnippetPage, error) {
	query := fmt.Sprintf(`query SearchSnippets($query: String!, $page: Int, $limit: Int) {
		searchSnippets(query: $query, page: $page, limit: $limit) {
			snippets {%s}
			totalCount
			hasMore
		}
	}`, snippetFields)

	var result model.SnippetPage
	err := c.do(ctx, query, map[string]any{"query": searchQuery, "page": page, "limit": limit}, "searchSnippets", &result)
	if err != nil {
		return nil, err
	}

	key := cache.SearchKey(searchQuery)
	c.cache.MergePage(key, page, &result)
	merged, _ := c.cache.ListPage(key)
	return merged, nil
}

// SnippetByID fetches a single snippet. Returns (nil, nil) when the id
// doesn't exist, mirroring the nullable schema field.
func (c *Client) SnippetByID(ctx context.Context, id string) (*model.Snippet, error) {
	query := fmt.Sprintf(`query GetSnippetById($id: ID!) {
		getSnippetById(id: $id) {%s}
	}`, snippetFields)

	var result *model.Snippet
	err := c.do(ctx, query, map[string]any{"id": id}, "getSnippetById", &result)
	if err != nil {
		return nil, err
	}
	if result != nil {
		c.cache.PutSnippet(result)
	}
	return result, nil
}

// CreateSnippet creates a snippet and folds it into the cached lists: a
// public one appears at the top of the all-snippets view without a
// refetch, a private one only in the my-snippets view.
func (c *Client) CreateSnippet(ctx context.Context, input CreateSnippetInput) (*model.Snippet, error) {
	query := fmt.Sprintf(`mutation CreateSnippet($input: CreateSnippetInput!) {
		createSnippet(input: $input) {%s}
	}`, snippetFields)

	var result model.Snippet
	err := c.do(ctx, query, map[string]any{"input": input}, "createSnippet", &result)
	if err != nil {
		return nil, err
	}

	c.cache.AddCreated(&result)
	return &result, nil
}

// DeleteSnippet deletes a snippet and, on success, evicts it from the
// cache and every cached list.
func (c *Client) DeleteSnippet(ctx context.Context, id string) error {
	query := `mutation DeleteSnippet($id: ID!) {
		deleteSnippet(id: $id)
	}`

	var deleted bool
	if err := c.do(ctx, query, map[string]any{"id": id}, "deleteSnippet", &deleted); err != nil {
		return err
	}
	if deleted {
		c.cache.Evict(id)
	}
	return nil
}

// User fetches a user profile by id.
func (c *Client) User(ctx context.Context, id string) (*model.User, error) {
	query := fmt.Sprintf(`query GetUser($id: ID!) {
		getUser(id: $id) {%s}
	}`, userFields)

	var result model.User
	if err := c.do(ctx, query, map[string]any{"id": id}, "getUser", &result); err != nil {
		return nil, err
	}
	c.cache.PutUser(&result)
	return &result, nil
}

// Users fetches all user profiles.
func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	query := fmt.Sprintf(`query GetAllUsers {
		getAllUsers {%s}
	}`, userFields)

	var result []model.User
	if err := c.do(ctx, query, nil, "getAllUsers", &result); err != nil {
		return nil, err
	}
	return result, nil
}

// do executes one GraphQL operation and unmarshals data[field] into out.
// A server-side error array becomes an *APIError carrying the first
// message verbatim.
func (c *Client) do(ctx context.Context, query string, vars map[string]any, field string, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": vars,
	})
	if err != nil {
		return fmt.Errorf("client: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("client: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if token := c.validToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("client: unexpected status %d", resp.StatusCode)
	}

	var envelope struct {
		Data   map[string]json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("client: decoding response: %w", err)
	}

	if len(envelope.Errors) > 0 {
		return &APIError{Message: envelope.Errors[0].Message}
	}

	if out != nil {
		raw, ok := envelope.Data[field]
		if !ok {
			return fmt.Errorf("client: response missing field %q", field)
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("client: decoding %s: %w", field, err)
		}
	}

	return nil
}

// validToken returns the stored token if it is still live, or "" so the
// request goes out anonymous. The expiry check is purely local, so no
// round-trip is spent on a doomed credential.
func (c *Client) validToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.session.Token == "" {
		return ""
	}
	if tokenExpired(c.session.Token) {
		return ""
	}
	return c.session.Token
}

// adoptSession persists a freshly issued token+profile and schedules the
// local sign-out for when the token expires.
func (c *Client) adoptSession(token string, user *model.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = &Session{Token: token, User: user}
	if err := SaveSession(c.sessionPath, c.session); err != nil {
		return err
	}
	if user != nil {
		c.cache.PutUser(user)
	}
	c.scheduleSignoutLocked()
	return nil
}

// scheduleSignoutLocked arms a timer that clears the session the moment
// the current token expires. Callers must hold c.mu.
func (c *Client) scheduleSignoutLocked() {
	if c.signout != nil {
		c.signout.Stop()
		c.signout = nil
	}

	expiry, err := tokenExpiry(c.session.Token)
	if err != nil {
		return
	}
	until := time.Until(expiry)
	if until <= 0 {
		return
	}

	c.signout = time.AfterFunc(until, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		_ = c.clearSessionLocked()
	})
}

// clearSessionLocked drops the session state, the session file, and the
// cache. Callers must hold c.mu.
func (c *Client) clearSessionLocked() error {
	if c.signout != nil {
		c.signout.Stop()
		c.signout = nil
	}
	c.session = &Session{}
	c.cache.Reset()
	return ClearSession(c.sessionPath)
}
