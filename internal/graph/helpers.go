package graph

import (
	"errors"

	"github.com/graphql-go/graphql"

	"github.com/sakif/snippet-store/internal/apperror"
)

// intArg reads an integer argument, falling back to def when the argument
// is missing or not an int.
func intArg(p graphql.ResolveParams, name string, def int) int {
	if v, ok := p.Args[name]; ok {
		if i, ok := v.(int); ok {
			return i
		}
	}
	return def
}

// stringField reads a string field out of an input object map.
func stringField(input map[string]interface{}, name string) string {
	if input == nil {
		return ""
	}
	s, _ := input[name].(string)
	return s
}

// mergeArgs combines argument maps into one.
func mergeArgs(maps ...graphql.FieldConfigArgument) graphql.FieldConfigArgument {
	merged := graphql.FieldConfigArgument{}
	for _, m := range maps {
		for name, arg := range m {
			merged[name] = arg
		}
	}
	return merged
}

func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}
