package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/sakif/snippet-store/internal/apperror"
)

// GraphQLHandler executes GraphQL operations posted to the single API
// endpoint. Authentication and loader middleware have already run by the
// time a request reaches it, so the context carries the caller's identity
// (if any) and a fresh loader set.
type GraphQLHandler struct {
	schema graphql.Schema
	logger *slog.Logger
}

// NewGraphQLHandler creates a GraphQLHandler for the given schema.
func NewGraphQLHandler(schema graphql.Schema, logger *slog.Logger) *GraphQLHandler {
	return &GraphQLHandler{
		schema: schema,
		logger: logger,
	}
}

// graphqlRequest is the standard GraphQL-over-HTTP POST body.
type graphqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// HandleQuery executes one GraphQL request.
//
// HTTP: POST /graphql
//
// Resolver failures are reported inside the 200 response's "errors" array
// with the domain error's message verbatim, per GraphQL convention. Only a
// malformed request body produces a non-200 status.
func (h *GraphQLHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid GraphQL request body", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	if req.Query == "" {
		writeError(w, apperror.ValidationFailed("query", "query is required"))
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		OperationName:  req.OperationName,
		VariableValues: req.Variables,
		Context:        r.Context(),
	})

	if len(result.Errors) > 0 {
		h.logger.Debug("graphql operation returned errors",
			slog.String("operation", req.OperationName),
			slog.Int("count", len(result.Errors)),
		)
	}

	writeJSON(w, http.StatusOK, result)
}
