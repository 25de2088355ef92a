// Package graph exposes the application's operations as a GraphQL schema.
//
// The schema is the API contract; resolvers are thin adapters that read
// identity from the request context, delegate to the service layer, and
// pre-warm the request's batch loaders with entities that are about to be
// resolved (for example the owners of a freshly listed page of snippets).
package graph

import (
	"fmt"
	"log/slog"

	"github.com/graphql-go/graphql"

	"github.com/sakif/snippet-store/internal/auth"
	"github.com/sakif/snippet-store/internal/loader"
	"github.com/sakif/snippet-store/internal/model"
	"github.com/sakif/snippet-store/internal/service"
)

// Resolver holds the services the schema resolves against.
type Resolver struct {
	snippets *service.SnippetService
	auth     *service.AuthService
	logger   *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(snippets *service.SnippetService, authSvc *service.AuthService, logger *slog.Logger) *Resolver {
	return &Resolver{
		snippets: snippets,
		auth:     authSvc,
		logger:   logger,
	}
}

// authPayload matches the AuthPayload GraphQL type.
type authPayload struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// NewSchema builds the executable schema over r.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	userType := newUserType()
	snippetType := newSnippetType(userType, r.resolveOwner)
	paginatedType := newPaginatedSnippetsType(snippetType)
	authPayloadType := newAuthPayloadType(userType)

	createSnippetInput := newCreateSnippetInput()
	createUserInput := newCreateUserInput()
	loginInput := newLoginInput()

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"getAllSnippets": &graphql.Field{
				Type:    graphql.NewNonNull(paginatedType),
				Args:    pageArgs(),
				Resolve: r.getAllSnippets,
			},
			"getSnippetById": &graphql.Field{
				Type: snippetType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.getSnippetByID,
			},
			"getMySnippets": &graphql.Field{
				Type:    graphql.NewNonNull(paginatedType),
				Args:    pageArgs(),
				Resolve: r.getMySnippets,
			},
			"searchSnippets": &graphql.Field{
				Type: graphql.NewNonNull(paginatedType),
				Args: mergeArgs(pageArgs(), graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				}),
				Resolve: r.searchSnippets,
			},
			"getUser": &graphql.Field{
				Type: graphql.NewNonNull(userType),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.getUser,
			},
			"getAllUsers": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(userType))),
				Resolve: r.getAllUsers,
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createSnippet": &graphql.Field{
				Type: graphql.NewNonNull(snippetType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(createSnippetInput)},
				},
				Resolve: r.createSnippet,
			},
			"deleteSnippet": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.deleteSnippet,
			},
			"registerUser": &graphql.Field{
				Type: graphql.NewNonNull(authPayloadType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(createUserInput)},
				},
				Resolve: r.registerUser,
			},
			"loginUser": &graphql.Field{
				Type: graphql.NewNonNull(authPayloadType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(loginInput)},
				},
				Resolve: r.loginUser,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// === Query resolvers ===

func (r *Resolver) getAllSnippets(p graphql.ResolveParams) (interface{}, error) {
	page, err := r.snippets.ListPublic(p.Context, intArg(p, "page", 1), intArg(p, "limit", 10))
	if err != nil {
		return nil, err
	}
	r.warmOwners(p, page.Snippets)
	return page, nil
}

func (r *Resolver) getSnippetByID(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["id"].(string)

	snippet, err := r.snippets.GetByID(p.Context, id)
	if err != nil {
		// The schema declares a nullable Snippet: a missing id resolves
		// to null rather than an error.
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return snippet, nil
}

func (r *Resolver) getMySnippets(p graphql.ResolveParams) (interface{}, error) {
	userID, _ := auth.UserIDFromContext(p.Context)

	page, err := r.snippets.ListOwned(p.Context, userID, intArg(p, "page", 1), intArg(p, "limit", 10))
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (r *Resolver) searchSnippets(p graphql.ResolveParams) (interface{}, error) {
	query, _ := p.Args["query"].(string)

	page, err := r.snippets.Search(p.Context, query, intArg(p, "page", 1), intArg(p, "limit", 10))
	if err != nil {
		return nil, err
	}
	r.warmOwners(p, page.Snippets)
	return page, nil
}

func (r *Resolver) getUser(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["id"].(string)
	return r.auth.GetUserByID(p.Context, id)
}

func (r *Resolver) getAllUsers(p graphql.ResolveParams) (interface{}, error) {
	return r.auth.ListUsers(p.Context)
}

// === Mutation resolvers ===

func (r *Resolver) createSnippet(p graphql.ResolveParams) (interface{}, error) {
	userID, _ := auth.UserIDFromContext(p.Context)
	input, _ := p.Args["input"].(map[string]interface{})

	return r.snippets.Create(p.Context, userID, service.CreateSnippetInput{
		Title:       stringField(input, "title"),
		Language:    stringField(input, "language"),
		Code:        stringField(input, "code"),
		Description: stringField(input, "description"),
		Visibility:  stringField(input, "visibility"),
	})
}

func (r *Resolver) deleteSnippet(p graphql.ResolveParams) (interface{}, error) {
	userID, _ := auth.UserIDFromContext(p.Context)
	id, _ := p.Args["id"].(string)

	return r.snippets.Delete(p.Context, userID, id)
}

func (r *Resolver) registerUser(p graphql.ResolveParams) (interface{}, error) {
	input, _ := p.Args["input"].(map[string]interface{})

	result, err := r.auth.Register(p.Context,
		stringField(input, "username"),
		stringField(input, "email"),
		stringField(input, "password"),
	)
	if err != nil {
		return nil, err
	}
	return &authPayload{Token: result.Token, User: result.User}, nil
}

func (r *Resolver) loginUser(p graphql.ResolveParams) (interface{}, error) {
	input, _ := p.Args["input"].(map[string]interface{})

	result, err := r.auth.Login(p.Context,
		stringField(input, "email"),
		stringField(input, "password"),
	)
	if err != nil {
		return nil, err
	}
	return &authPayload{Token: result.Token, User: result.User}, nil
}

// === Field resolvers ===

// resolveOwner resolves Snippet.owner through the request's user loader,
// so every owner on a listed page costs one batched query in total.
func (r *Resolver) resolveOwner(p graphql.ResolveParams) (interface{}, error) {
	var snippet *model.Snippet
	switch src := p.Source.(type) {
	case *model.Snippet:
		snippet = src
	case model.Snippet:
		snippet = &src
	default:
		return nil, fmt.Errorf("graph: unexpected source type %T for owner", p.Source)
	}

	if snippet.Owner != nil {
		return snippet.Owner, nil
	}
	return r.auth.GetUserByID(p.Context, snippet.OwnerID)
}

// warmOwners primes the user loader with the distinct owner ids of a page
// of snippets, collapsing the per-snippet owner resolutions that follow
// into a single batched query.
func (r *Resolver) warmOwners(p graphql.ResolveParams, snippets []model.Snippet) {
	loaders, ok := loader.FromContext(p.Context)
	if !ok || len(snippets) == 0 {
		return
	}

	seen := make(map[string]bool, len(snippets))
	ids := make([]string, 0, len(snippets))
	for _, s := range snippets {
		if !seen[s.OwnerID] {
			seen[s.OwnerID] = true
			ids = append(ids, s.OwnerID)
		}
	}

	if _, err := loaders.Users.LoadMany(p.Context, ids); err != nil {
		r.logger.Warn("failed to warm user loader", slog.String("error", err.Error()))
	}
}
