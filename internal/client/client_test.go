package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/sakif/snippet-store/internal/model"
)

// fakeServer is a canned GraphQL endpoint. Each call pops the next
// response from the queue and records the Authorization header it saw.
type fakeServer struct {
	responses   []string
	authHeaders []string
}

func (f *fakeServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))

		resp := `{"data":{}}`
		if len(f.responses) > 0 {
			resp = f.responses[0]
			f.responses = f.responses[1:]
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(resp))
	}
}

func newTestClient(t *testing.T, f *fakeServer, sessionPath string) *Client {
	t.Helper()

	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	if sessionPath == "" {
		sessionPath = filepath.Join(t.TempDir(), "session.json")
	}
	c, err := New(srv.URL, WithSessionPath(sessionPath))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func snippetJSON(id, title string) string {
	return fmt.Sprintf(`{"id":%q,"title":%q,"language":"go","code":"x","visibility":"public",
		"createdAt":"2026-01-01T00:00:00Z","updatedAt":"2026-01-01T00:00:00Z",
		"owner":{"id":"u1","username":"ada","email":"ada@example.com",
		"createdAt":"2026-01-01T00:00:00Z","updatedAt":"2026-01-01T00:00:00Z"}}`, id, title)
}

// =========================================================================
// SESSION HANDLING TESTS
// =========================================================================

func TestNew_DiscardsExpiredStoredSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	expired := &Session{
		Token: fakeJWT(time.Now().Add(-time.Minute).Unix()),
		User:  &model.User{ID: "u1", Username: "ada"},
	}
	if err := SaveSession(path, expired); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	c := newTestClient(t, &fakeServer{}, path)

	if user := c.CurrentUser(); user != nil {
		t.Errorf("CurrentUser() = %+v, want nil after expiry", user)
	}
	stored, err := LoadSession(path)
	if err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if stored.Token != "" {
		t.Error("expired session file was not cleared")
	}
}

func TestNew_KeepsLiveStoredSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	live := &Session{
		Token: fakeJWT(time.Now().Add(time.Hour).Unix()),
		User:  &model.User{ID: "u1", Username: "ada"},
	}
	if err := SaveSession(path, live); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	c := newTestClient(t, &fakeServer{}, path)

	user := c.CurrentUser()
	if user == nil || user.Username != "ada" {
		t.Errorf("CurrentUser() = %+v, want the stored profile", user)
	}
}

func TestDo_ExpiredTokenIsNotSent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	// Expires just after New's check runs, so the session survives
	// construction but is stale by the time the request goes out.
	almostExpired := &Session{
		Token: fakeJWT(time.Now().Add(1100 * time.Millisecond).Unix()),
		User:  &model.User{ID: "u1"},
	}
	if err := SaveSession(path, almostExpired); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	f := &fakeServer{responses: []string{`{"data":{"getAllUsers":[]}}`}}
	c := newTestClient(t, f, path)

	time.Sleep(1500 * time.Millisecond)

	if _, err := c.Users(context.Background()); err != nil {
		t.Fatalf("Users() error = %v", err)
	}
	if len(f.authHeaders) != 1 || f.authHeaders[0] != "" {
		t.Errorf("Authorization headers = %v, want one anonymous request", f.authHeaders)
	}
}

func TestLogin_StoresSessionAndSendsToken(t *testing.T) {
	token := fakeJWT(time.Now().Add(time.Hour).Unix())
	loginResp := fmt.Sprintf(`{"data":{"loginUser":{"token":%q,
		"user":{"id":"u1","username":"ada","email":"ada@example.com"}}}}`, token)

	path := filepath.Join(t.TempDir(), "session.json")
	f := &fakeServer{responses: []string{loginResp, `{"data":{"getAllUsers":[]}}`}}
	c := newTestClient(t, f, path)

	user, err := c.Login(context.Background(), "ada@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.Username != "ada" {
		t.Errorf("Login() user = %+v, want ada", user)
	}

	stored, err := LoadSession(path)
	if err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if stored.Token != token {
		t.Error("Login() did not persist the session")
	}

	if _, err := c.Users(context.Background()); err != nil {
		t.Fatalf("Users() error = %v", err)
	}
	if got := f.authHeaders[len(f.authHeaders)-1]; got != "Bearer "+token {
		t.Errorf("Authorization = %q, want the issued bearer token", got)
	}
}

func TestLogout_ClearsEverything(t *testing.T) {
	token := fakeJWT(time.Now().Add(time.Hour).Unix())
	loginResp := fmt.Sprintf(`{"data":{"loginUser":{"token":%q,"user":{"id":"u1","username":"ada"}}}}`, token)

	path := filepath.Join(t.TempDir(), "session.json")
	f := &fakeServer{responses: []string{loginResp}}
	c := newTestClient(t, f, path)

	if _, err := c.Login(context.Background(), "ada@example.com", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := c.Logout(); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	if c.CurrentUser() != nil {
		t.Error("CurrentUser() non-nil after logout")
	}
	stored, _ := LoadSession(path)
	if stored.Token != "" {
		t.Error("session file survived logout")
	}
}

// =========================================================================
// ERROR SURFACING TESTS
// =========================================================================

func TestDo_ServerErrorBecomesAPIError(t *testing.T) {
	f := &fakeServer{responses: []string{`{"errors":[{"message":"invalid password"}]}`}}
	c := newTestClient(t, f, "")

	_, err := c.Login(context.Background(), "ada@example.com", "wrong")
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("Login() error = %T (%v), want *APIError", err, err)
	}
	if apiErr.Message != "invalid password" {
		t.Errorf("APIError message = %q, want the server message verbatim", apiErr.Message)
	}
}

// =========================================================================
// LIST MERGING TESTS
// =========================================================================

func TestAllSnippets_MergesAcrossPages(t *testing.T) {
	page1 := fmt.Sprintf(`{"data":{"getAllSnippets":{"snippets":[%s,%s],"totalCount":3,"hasMore":true}}}`,
		snippetJSON("A", "first"), snippetJSON("B", "second"))
	page2 := fmt.Sprintf(`{"data":{"getAllSnippets":{"snippets":[%s],"totalCount":3,"hasMore":false}}}`,
		snippetJSON("C", "third"))

	f := &fakeServer{responses: []string{page1, page2}}
	c := newTestClient(t, f, "")

	first, err := c.AllSnippets(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("AllSnippets(page 1) error = %v", err)
	}
	if len(first.Snippets) != 2 || !first.HasMore {
		t.Fatalf("page 1 view = %d snippets hasMore %v, want 2 and true", len(first.Snippets), first.HasMore)
	}

	merged, err := c.AllSnippets(context.Background(), 2, 2)
	if err != nil {
		t.Fatalf("AllSnippets(page 2) error = %v", err)
	}
	if len(merged.Snippets) != 3 {
		t.Fatalf("merged view has %d snippets, want 3", len(merged.Snippets))
	}
	ids := []string{merged.Snippets[0].ID, merged.Snippets[1].ID, merged.Snippets[2].ID}
	if ids[0] != "A" || ids[1] != "B" || ids[2] != "C" {
		t.Errorf("merged ids = %v, want [A B C]", ids)
	}
	if merged.HasMore {
		t.Error("merged hasMore = true, want false at totalCount")
	}
}

func TestCreateSnippet_AppearsInCachedList(t *testing.T) {
	page1 := fmt.Sprintf(`{"data":{"getAllSnippets":{"snippets":[%s],"totalCount":1,"hasMore":false}}}`,
		snippetJSON("A", "existing"))
	created := fmt.Sprintf(`{"data":{"createSnippet":%s}}`, snippetJSON("N", "brand new"))

	f := &fakeServer{responses: []string{page1, created}}
	c := newTestClient(t, f, "")

	if _, err := c.AllSnippets(context.Background(), 1, 10); err != nil {
		t.Fatalf("AllSnippets() error = %v", err)
	}
	if _, err := c.CreateSnippet(context.Background(), CreateSnippetInput{
		Title: "brand new", Language: "go", Code: "x", Visibility: "public",
	}); err != nil {
		t.Fatalf("CreateSnippet() error = %v", err)
	}

	view, ok := c.Cache().ListPage("getAllSnippets")
	if !ok {
		t.Fatal("all-snippets list missing from cache")
	}
	if len(view.Snippets) != 2 || view.Snippets[0].ID != "N" {
		t.Errorf("cached list = %v, want the new snippet prepended", view.Snippets)
	}
}

func TestDeleteSnippet_EvictsFromCache(t *testing.T) {
	page1 := fmt.Sprintf(`{"data":{"getAllSnippets":{"snippets":[%s,%s],"totalCount":2,"hasMore":false}}}`,
		snippetJSON("A", "keep"), snippetJSON("B", "remove"))

	f := &fakeServer{responses: []string{page1, `{"data":{"deleteSnippet":true}}`}}
	c := newTestClient(t, f, "")

	if _, err := c.AllSnippets(context.Background(), 1, 10); err != nil {
		t.Fatalf("AllSnippets() error = %v", err)
	}
	if err := c.DeleteSnippet(context.Background(), "B"); err != nil {
		t.Fatalf("DeleteSnippet() error = %v", err)
	}

	view, _ := c.Cache().ListPage("getAllSnippets")
	if len(view.Snippets) != 1 || view.Snippets[0].ID != "A" {
		t.Errorf("cached list after delete = %v, want only A", view.Snippets)
	}
	if view.TotalCount != 1 {
		t.Errorf("totalCount = %d, want 1", view.TotalCount)
	}
}

func TestSnippetByID_NullResult(t *testing.T) {
	f := &fakeServer{responses: []string{`{"data":{"getSnippetById":null}}`}}
	c := newTestClient(t, f, "")

	s, err := c.SnippetByID(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("SnippetByID() error = %v", err)
	}
	if s != nil {
		t.Errorf("SnippetByID() = %+v, want nil for a null field", s)
	}
}
