package graph

import "github.com/graphql-go/graphql"

// GraphQL object and input types. Field resolution falls through to the
// default resolver, which reads struct fields by json tag; only
// Snippet.owner carries a custom resolver (wired in schema.go, where the
// Resolver is available).

func newUserType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"username":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"email":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt": &graphql.Field{Type: graphql.DateTime},
			"updatedAt": &graphql.Field{Type: graphql.DateTime},
		},
	})
}

func newSnippetType(userType *graphql.Object, resolveOwner graphql.FieldResolveFn) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Snippet",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"language":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"code":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"description": &graphql.Field{Type: graphql.String},
			"visibility":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt":   &graphql.Field{Type: graphql.DateTime},
			"updatedAt":   &graphql.Field{Type: graphql.DateTime},
			"owner": &graphql.Field{
				Type:    graphql.NewNonNull(userType),
				Resolve: resolveOwner,
			},
		},
	})
}

func newPaginatedSnippetsType(snippetType *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "PaginatedSnippets",
		Fields: graphql.Fields{
			"snippets":   &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(snippetType)))},
			"totalCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"hasMore":    &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		},
	})
}

func newAuthPayloadType(userType *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthPayload",
		Fields: graphql.Fields{
			"token": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"user":  &graphql.Field{Type: graphql.NewNonNull(userType)},
		},
	})
}

func newCreateSnippetInput() *graphql.InputObject {
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreateSnippetInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"title":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"language":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"code":        &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"description": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"visibility":  &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})
}

func newCreateUserInput() *graphql.InputObject {
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreateUserInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"username": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"email":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})
}

func newLoginInput() *graphql.InputObject {
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "LoginInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"email":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})
}

// pageArgs are the shared pagination arguments. Defaults mirror the API
// contract: page 1, limit 10, with the service clamping limit to [1,50].
func pageArgs() graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"page":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
		"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
	}
}
